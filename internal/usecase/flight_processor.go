package usecase

import (
	"context"
	"fmt"
	"strings"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
)

// ProcessResult is what reconciling one booking did to the calendar
type ProcessResult struct {
	Applied            []entity.AppliedAction
	IllegalTransitions int
}

// FlightProcessor reconciles flight bookings, one event per segment
type FlightProcessor struct {
	matcher     *EventMatcher
	reconciler  *Reconciler
	applier     *ActionApplier
	airlineRepo repository.AirlineRepository
	airportRepo repository.AirportRepository
	logger      logger.Logger
}

// NewFlightProcessor creates a new flight processor. The reference data
// repositories are optional.
func NewFlightProcessor(
	matcher *EventMatcher,
	reconciler *Reconciler,
	applier *ActionApplier,
	airlineRepo repository.AirlineRepository,
	airportRepo repository.AirportRepository,
	logger logger.Logger,
) *FlightProcessor {
	return &FlightProcessor{
		matcher:     matcher,
		reconciler:  reconciler,
		applier:     applier,
		airlineRepo: airlineRepo,
		airportRepo: airportRepo,
		logger:      logger,
	}
}

// Process validates the booking and reconciles every segment slot.
// Segments already applied stay applied when a later one fails.
func (fp *FlightProcessor) Process(ctx context.Context, b *entity.FlightBooking) (ProcessResult, error) {
	var res ProcessResult

	if err := b.Validate(); err != nil {
		return res, err
	}
	id, err := ResolveFlightIdentity(b)
	if err != nil {
		return res, err
	}

	log := fp.logger.With("identifier", id.Value, "basis", string(id.Basis))
	b = fp.enrich(ctx, b)

	for _, ss := range b.Segments() {
		match, err := fp.matcher.FindFlightSegment(ctx, b, id, ss)
		if err != nil {
			return res, fmt.Errorf("segment %s: %w", ss.Slot, err)
		}

		action := fp.reconciler.ReconcileFlightSegment(b, ss, match)
		log.Debug("Reconciled flight segment",
			"slot", ss.Slot.String(),
			"flight", ss.Segment.FlightNumber,
			"match", match.String(),
			"action", string(action.Type))

		applied, err := fp.applier.Apply(ctx, action)
		if err != nil {
			return res, fmt.Errorf("segment %s: %w", ss.Slot, err)
		}
		res.Applied = append(res.Applied, applied)
	}

	log.Info("Flight booking reconciled", "segments", len(res.Applied))
	return res, nil
}

// enrich returns a copy with airline and airport names filled from
// reference data when the email did not carry them. Lookup failures only
// cost display detail.
func (fp *FlightProcessor) enrich(ctx context.Context, b *entity.FlightBooking) *entity.FlightBooking {
	out := *b
	out.OutboundSegments = append([]entity.FlightSegment(nil), b.OutboundSegments...)
	out.ReturnSegments = append([]entity.FlightSegment(nil), b.ReturnSegments...)

	fill := func(segs []entity.FlightSegment) {
		for i := range segs {
			s := &segs[i]
			if s.Airline == "" && fp.airlineRepo != nil && len(s.FlightNumber) >= 2 {
				code := strings.ToUpper(s.FlightNumber[:2])
				if airline, err := fp.airlineRepo.GetByCode(ctx, code); err == nil {
					s.Airline = airline.Name
				} else {
					fp.logger.Debug("Airline lookup failed", "code", code, "error", err)
				}
			}
			fp.fillAirport(ctx, &s.Departure)
			fp.fillAirport(ctx, &s.Arrival)
		}
	}
	fill(out.OutboundSegments)
	fill(out.ReturnSegments)
	return &out
}

func (fp *FlightProcessor) fillAirport(ctx context.Context, a *entity.Airport) {
	if fp.airportRepo == nil || a.Name != "" || a.Code == "" {
		return
	}
	info, err := fp.airportRepo.GetByAirportCode(ctx, strings.ToUpper(a.Code))
	if err != nil {
		fp.logger.Debug("Airport lookup failed", "code", a.Code, "error", err)
		return
	}
	a.Name = info.AirportName
	if a.City == "" {
		a.City = info.CityName
	}
}
