package usecase

import (
	"context"
	"fmt"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/pkg/logger"
)

// CarShareProcessor reconciles car-share bookings, one event per reservation
type CarShareProcessor struct {
	matcher    *EventMatcher
	reconciler *Reconciler
	applier    *ActionApplier
	logger     logger.Logger
}

// NewCarShareProcessor creates a new car-share processor
func NewCarShareProcessor(matcher *EventMatcher, reconciler *Reconciler, applier *ActionApplier, logger logger.Logger) *CarShareProcessor {
	return &CarShareProcessor{
		matcher:    matcher,
		reconciler: reconciler,
		applier:    applier,
		logger:     logger,
	}
}

// Process validates the booking, matches it and applies the status table
func (cp *CarShareProcessor) Process(ctx context.Context, b *entity.CarShareBooking) (ProcessResult, error) {
	var res ProcessResult

	if err := b.Validate(); err != nil {
		return res, err
	}
	id, err := ResolveCarShareIdentity(b)
	if err != nil {
		return res, err
	}

	log := cp.logger.With("booking_reference", id.Value, "status", string(b.Status), "station", b.Station.Name)

	match, err := cp.matcher.FindCarShare(ctx, b, id)
	if err != nil {
		return res, err
	}

	decision := cp.reconciler.ReconcileCarShare(b, match)
	if decision.Illegal {
		res.IllegalTransitions++
		log.Warn("Unexpected car-share status transition",
			"from", string(decision.PriorStatus),
			"to", string(b.Status),
			"event_id", match.Event.ID)
	}
	if len(match.NewerConflicts) > 0 {
		log.Info("Overlapping reservations from newer emails left in place", "count", len(match.NewerConflicts))
	}

	log.Debug("Reconciled car-share booking",
		"match", match.String(),
		"action", decision.Action.String(),
		"cleanup", len(decision.Cleanup))

	for _, action := range decision.Actions() {
		applied, err := cp.applier.Apply(ctx, action)
		if err != nil {
			return res, fmt.Errorf("reservation %s: %w", id.Value, err)
		}
		res.Applied = append(res.Applied, applied)
	}

	log.Info("Car-share booking reconciled", "action", string(decision.Action.Type))
	return res, nil
}
