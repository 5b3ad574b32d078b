package entity

import (
	"fmt"
	"strings"
	"time"
)

// Airport identifies a departure or arrival airport
type Airport struct {
	Code string
	Name string
	City string
}

// DisplayName renders the airport for event locations
func (a Airport) DisplayName() string {
	switch {
	case a.Name != "" && a.City != "":
		return fmt.Sprintf("%s (%s), %s", a.Name, a.Code, a.City)
	case a.Name != "":
		return fmt.Sprintf("%s (%s)", a.Name, a.Code)
	default:
		return a.Code
	}
}

// FlightSegment is one directional flight leg
type FlightSegment struct {
	Airline       string
	FlightNumber  string
	Departure     Airport
	Arrival       Airport
	DepartureTime time.Time
	ArrivalTime   time.Time
	AircraftType  string
	SeatNumber    string
}

// Validate checks the segment's own invariants
func (s FlightSegment) Validate() error {
	if strings.TrimSpace(s.FlightNumber) == "" {
		return &InvalidBookingError{Reason: "segment has no flight number"}
	}
	if s.Departure.Code == "" || s.Arrival.Code == "" {
		return &InvalidBookingError{Reason: fmt.Sprintf("segment %s is missing an airport code", s.FlightNumber)}
	}
	if s.DepartureTime.IsZero() || s.ArrivalTime.IsZero() {
		return &InvalidBookingError{Reason: fmt.Sprintf("segment %s is missing a timestamp", s.FlightNumber)}
	}
	if !s.ArrivalTime.After(s.DepartureTime) {
		return &InvalidBookingError{Reason: fmt.Sprintf("segment %s arrives before it departs", s.FlightNumber)}
	}
	return nil
}

// SegmentDirection distinguishes outbound from return legs
type SegmentDirection string

const (
	DirectionOutbound SegmentDirection = "outbound"
	DirectionReturn   SegmentDirection = "return"
)

// SegmentSlot names a segment's position within its booking, e.g. outbound-1
type SegmentSlot struct {
	Direction SegmentDirection
	Index     int // 1-based
}

func (s SegmentSlot) String() string {
	return fmt.Sprintf("%s-%d", s.Direction, s.Index)
}

// SlottedSegment pairs a segment with its slot
type SlottedSegment struct {
	Slot    SegmentSlot
	Segment FlightSegment
}

// FlightBooking is the normalized content of one airline email
type FlightBooking struct {
	ConfirmationCode string
	BookingReference string
	PassengerName    string
	OutboundSegments []FlightSegment
	ReturnSegments   []FlightSegment
	TotalPrice       string
	CheckinURL       string
	SourceEmailID    string
	EmailReceivedAt  time.Time
}

// Validate rejects bookings that cannot be reconciled
func (b *FlightBooking) Validate() error {
	if strings.TrimSpace(b.ConfirmationCode) == "" && strings.TrimSpace(b.BookingReference) == "" {
		return &InvalidBookingError{Reason: "flight booking has neither confirmation code nor booking reference"}
	}
	if len(b.OutboundSegments) == 0 {
		return &InvalidBookingError{Reason: "flight booking has no outbound segments"}
	}
	for _, s := range b.Segments() {
		if err := s.Segment.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Segments lists outbound legs then return legs with their slots
func (b *FlightBooking) Segments() []SlottedSegment {
	out := make([]SlottedSegment, 0, len(b.OutboundSegments)+len(b.ReturnSegments))
	for i, s := range b.OutboundSegments {
		out = append(out, SlottedSegment{Slot: SegmentSlot{Direction: DirectionOutbound, Index: i + 1}, Segment: s})
	}
	for i, s := range b.ReturnSegments {
		out = append(out, SlottedSegment{Slot: SegmentSlot{Direction: DirectionReturn, Index: i + 1}, Segment: s})
	}
	return out
}

// Provider is a supported car-share operator
type Provider string

const (
	ProviderMitsuiCarshares Provider = "mitsui_carshares"
	ProviderTimesCar        Provider = "times_car"
)

// Label is the human name used in event titles
func (p Provider) Label() string {
	switch p {
	case ProviderMitsuiCarshares:
		return "三井のカーシェアーズ"
	case ProviderTimesCar:
		return "タイムズカー"
	default:
		return string(p)
	}
}

// ParseProvider maps a provider name to the enum
func ParseProvider(s string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderMitsuiCarshares:
		return ProviderMitsuiCarshares, true
	case ProviderTimesCar:
		return ProviderTimesCar, true
	}
	return "", false
}

// Station is a car-share pickup and return point
type Station struct {
	Name    string
	Address string
	Code    string
}

// Key identifies the physical resource for overlap checks. It is a single
// token so it can sit in the event marker line.
func (s Station) Key() string {
	if code := strings.Join(strings.Fields(s.Code), ""); code != "" {
		return strings.ToLower(code)
	}
	return strings.ToLower(strings.Join(strings.Fields(s.Name), ""))
}

// Car describes the reserved vehicle
type Car struct {
	Type   string
	Number string
	Name   string
}

// CarShareBooking is the normalized content of one car-share email.
// Status is what this email announced, not accumulated state.
type CarShareBooking struct {
	BookingReference string
	ConfirmationCode string
	Provider         Provider
	Status           BookingStatus
	UserName         string
	Station          Station
	Car              *Car
	Start            time.Time
	End              time.Time
	TotalPrice       string
	SourceEmailID    string
	EmailReceivedAt  time.Time
}

// Validate rejects bookings that cannot be reconciled
func (b *CarShareBooking) Validate() error {
	if strings.TrimSpace(b.BookingReference) == "" {
		return &InvalidBookingError{Reason: "car-share booking has no booking reference"}
	}
	if b.Provider == "" {
		return &InvalidBookingError{Reason: "car-share booking has no provider"}
	}
	if !b.Status.Valid() {
		return &InvalidBookingError{Reason: fmt.Sprintf("unknown booking status %q", b.Status)}
	}
	if strings.TrimSpace(b.Station.Name) == "" && b.Station.Code == "" {
		return &InvalidBookingError{Reason: "car-share booking has no station"}
	}
	if b.Start.IsZero() || b.End.IsZero() || !b.End.After(b.Start) {
		return &InvalidBookingError{Reason: "car-share booking end must be after start"}
	}
	return nil
}

// Window is the half-open rental interval [Start, End)
func (b *CarShareBooking) Window() TimeWindow {
	return TimeWindow{Start: b.Start, End: b.End}
}

// Duration is derived from the window
func (b *CarShareBooking) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// TimeWindow is a half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open windows intersect
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}
