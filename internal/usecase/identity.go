package usecase

import (
	"strings"

	"booking-calendar-sync/internal/domain/entity"
)

// Identifier is the deduplication key of a booking and which rule chose it
type Identifier struct {
	Value string
	Basis entity.MatchBasis
}

// Tagged scopes the identifier to one segment slot
func (id Identifier) Tagged(slot string) string {
	if slot == "" {
		return id.Value
	}
	return id.Value + "#" + slot
}

// ResolveFlightIdentity returns the confirmation code if present, else the
// booking reference.
func ResolveFlightIdentity(b *entity.FlightBooking) (Identifier, error) {
	if code := normalizeIdentifier(b.ConfirmationCode); code != "" {
		return Identifier{Value: code, Basis: entity.BasisPrimaryIdentifier}, nil
	}
	if ref := normalizeIdentifier(b.BookingReference); ref != "" {
		return Identifier{Value: ref, Basis: entity.BasisFallbackIdentifier}, nil
	}
	return Identifier{}, &entity.InvalidBookingError{Reason: "flight booking has neither confirmation code nor booking reference"}
}

// alternateFlightIdentity returns the booking reference when the resolver
// picked the confirmation code and the email carries both.
func alternateFlightIdentity(b *entity.FlightBooking, resolved Identifier) (Identifier, bool) {
	if resolved.Basis != entity.BasisPrimaryIdentifier {
		return Identifier{}, false
	}
	ref := normalizeIdentifier(b.BookingReference)
	if ref == "" || ref == resolved.Value {
		return Identifier{}, false
	}
	return Identifier{Value: ref, Basis: entity.BasisFallbackIdentifier}, true
}

// ResolveCarShareIdentity returns the booking reference
func ResolveCarShareIdentity(b *entity.CarShareBooking) (Identifier, error) {
	ref := normalizeIdentifier(b.BookingReference)
	if ref == "" {
		return Identifier{}, &entity.InvalidBookingError{Reason: "car-share booking has no booking reference"}
	}
	return Identifier{Value: ref, Basis: entity.BasisPrimaryIdentifier}, nil
}

// normalizeIdentifier drops whitespace so identifiers embed as one token
func normalizeIdentifier(s string) string {
	return strings.Join(strings.Fields(s), "")
}
