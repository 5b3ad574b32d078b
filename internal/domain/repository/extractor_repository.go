package repository

import (
	"context"

	"booking-calendar-sync/internal/domain/entity"
)

// BookingExtractor turns email text into booking records. Emails without
// booking content yield *entity.ExtractionFailure.
type BookingExtractor interface {
	ExtractFlight(ctx context.Context, email *entity.Email) (*entity.FlightBooking, error)
	ExtractCarShare(ctx context.Context, email *entity.Email, provider entity.Provider) (*entity.CarShareBooking, error)
}
