package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
)

// text accepts JSON strings, numbers and null
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text(n.String())
	return nil
}

func (t text) String() string { return string(t) }

type airportDTO struct {
	Code text `json:"code"`
	Name text `json:"name"`
	City text `json:"city"`
}

type segmentDTO struct {
	Airline          text       `json:"airline"`
	FlightNumber     text       `json:"flight_number"`
	DepartureAirport airportDTO `json:"departure_airport"`
	ArrivalAirport   airportDTO `json:"arrival_airport"`
	DepartureTime    text       `json:"departure_time"`
	ArrivalTime      text       `json:"arrival_time"`
	AircraftType     text       `json:"aircraft_type"`
	SeatNumber       text       `json:"seat_number"`
}

type flightDTO struct {
	ConfirmationCode text         `json:"confirmation_code"`
	BookingReference text         `json:"booking_reference"`
	PassengerName    text         `json:"passenger_name"`
	OutboundSegments []segmentDTO `json:"outbound_segments"`
	ReturnSegments   []segmentDTO `json:"return_segments"`
	TotalPrice       text         `json:"total_price"`
	CheckinURL       text         `json:"checkin_url"`
}

type stationDTO struct {
	Name    text `json:"station_name"`
	Address text `json:"station_address"`
	Code    text `json:"station_code"`
}

type carDTO struct {
	Type   text `json:"car_type"`
	Number text `json:"car_number"`
	Name   text `json:"car_name"`
}

type carShareDTO struct {
	BookingReference text       `json:"booking_reference"`
	ConfirmationCode text       `json:"confirmation_code"`
	Status           text       `json:"status"`
	UserName         text       `json:"user_name"`
	StartTime        text       `json:"start_time"`
	EndTime          text       `json:"end_time"`
	Station          stationDTO `json:"station"`
	Car              *carDTO    `json:"car"`
	TotalPrice       text       `json:"total_price"`
}

func (e *OpenAIExtractor) toFlightBooking(ctx context.Context, dto flightDTO) (*entity.FlightBooking, error) {
	b := &entity.FlightBooking{
		ConfirmationCode: dto.ConfirmationCode.String(),
		BookingReference: dto.BookingReference.String(),
		PassengerName:    dto.PassengerName.String(),
		TotalPrice:       dto.TotalPrice.String(),
		CheckinURL:       dto.CheckinURL.String(),
	}
	var err error
	if b.OutboundSegments, err = e.toSegments(ctx, entity.DirectionOutbound, dto.OutboundSegments); err != nil {
		return nil, err
	}
	if b.ReturnSegments, err = e.toSegments(ctx, entity.DirectionReturn, dto.ReturnSegments); err != nil {
		return nil, err
	}

	if len(b.OutboundSegments) == 0 {
		return nil, &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo, Detail: "no outbound segments"}
	}
	return b, nil
}

// toSegments converts every extracted leg. Slots are positional, so one
// unusable leg rejects the booking rather than shifting the legs after it.
func (e *OpenAIExtractor) toSegments(ctx context.Context, dir entity.SegmentDirection, dtos []segmentDTO) ([]entity.FlightSegment, error) {
	out := make([]entity.FlightSegment, 0, len(dtos))
	for i, d := range dtos {
		slot := entity.SegmentSlot{Direction: dir, Index: i + 1}
		seg := entity.FlightSegment{
			Airline:      d.Airline.String(),
			FlightNumber: strings.ToUpper(strings.Join(strings.Fields(d.FlightNumber.String()), "")),
			Departure:    toAirport(d.DepartureAirport),
			Arrival:      toAirport(d.ArrivalAirport),
			AircraftType: d.AircraftType.String(),
			SeatNumber:   d.SeatNumber.String(),
		}

		dep, err := parseTimestamp(d.DepartureTime.String(), e.zoneFor(ctx, seg.Departure.Code))
		if err != nil {
			return nil, invalidSegment(slot, seg.FlightNumber, "departure time: "+err.Error())
		}
		arr, err := parseTimestamp(d.ArrivalTime.String(), e.zoneFor(ctx, seg.Arrival.Code))
		if err != nil {
			return nil, invalidSegment(slot, seg.FlightNumber, "arrival time: "+err.Error())
		}
		seg.DepartureTime, seg.ArrivalTime = dep, arr

		if err := seg.Validate(); err != nil {
			return nil, invalidSegment(slot, seg.FlightNumber, err.Error())
		}
		out = append(out, seg)
	}
	return out, nil
}

func invalidSegment(slot entity.SegmentSlot, flight, reason string) error {
	return &entity.InvalidBookingError{Reason: fmt.Sprintf("segment %s (%s): %s", slot, flight, reason)}
}

func toAirport(d airportDTO) entity.Airport {
	return entity.Airport{
		Code: strings.ToUpper(d.Code.String()),
		Name: d.Name.String(),
		City: d.City.String(),
	}
}

// zoneFor returns the airport's zone, falling back to Asia/Tokyo
func (e *OpenAIExtractor) zoneFor(ctx context.Context, code string) *time.Location {
	if e.airports == nil || code == "" {
		return fallbackZone
	}
	info, err := e.airports.GetByAirportCode(ctx, code)
	if err != nil {
		return fallbackZone
	}
	if loc := info.Location(); loc != nil {
		return loc
	}
	return fallbackZone
}

func toCarShareBooking(dto carShareDTO, provider entity.Provider) (*entity.CarShareBooking, error) {
	if dto.Station.Name == "" && dto.Station.Code == "" {
		return nil, &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo, Detail: "no station"}
	}

	start, err := parseTimestamp(dto.StartTime.String(), fallbackZone)
	if err != nil {
		return nil, &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo, Detail: "start time: " + err.Error()}
	}
	end, err := parseTimestamp(dto.EndTime.String(), fallbackZone)
	if err != nil {
		return nil, &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo, Detail: "end time: " + err.Error()}
	}

	b := &entity.CarShareBooking{
		BookingReference: dto.BookingReference.String(),
		ConfirmationCode: dto.ConfirmationCode.String(),
		Provider:         provider,
		Status:           entity.ParseBookingStatus(dto.Status.String()),
		UserName:         dto.UserName.String(),
		Station: entity.Station{
			Name:    dto.Station.Name.String(),
			Address: dto.Station.Address.String(),
			Code:    dto.Station.Code.String(),
		},
		Start:      start,
		End:        end,
		TotalPrice: dto.TotalPrice.String(),
	}
	if dto.Car != nil && (dto.Car.Type != "" || dto.Car.Number != "" || dto.Car.Name != "") {
		b.Car = &entity.Car{
			Type:   dto.Car.Type.String(),
			Number: dto.Car.Number.String(),
			Name:   dto.Car.Name.String(),
		}
	}
	return b, nil
}

var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTimestamp reads an ISO 8601 timestamp. Values without an offset
// are read in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
