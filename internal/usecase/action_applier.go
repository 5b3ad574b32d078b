package usecase

import (
	"context"
	"fmt"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/metrics"
)

const dryRunEventID = "dry-run"

// ActionApplier executes reconciler actions against the calendar
type ActionApplier struct {
	calendar repository.CalendarRepository
	dryRun   bool
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewActionApplier creates an applier. In dry-run mode actions are only logged.
func NewActionApplier(calendar repository.CalendarRepository, dryRun bool, logger logger.Logger, m *metrics.Metrics) *ActionApplier {
	return &ActionApplier{calendar: calendar, dryRun: dryRun, logger: logger, metrics: m}
}

// Apply runs one action. Skip actions are recorded without a calendar call.
func (a *ActionApplier) Apply(ctx context.Context, action entity.Action) (entity.AppliedAction, error) {
	applied := entity.AppliedAction{Action: action, ResultEventID: action.EventID, DryRun: a.dryRun}

	log := a.logger.With("action", string(action.Type), "event_id", action.EventID, "slot", action.Slot, "reason", action.Reason)

	if action.Type != entity.ActionSkip && a.dryRun {
		log.Info("Dry run, calendar left untouched")
		if action.Type == entity.ActionCreate {
			applied.ResultEventID = dryRunEventID
		}
		return applied, nil
	}

	switch action.Type {
	case entity.ActionCreate:
		if action.Fields == nil {
			return applied, fmt.Errorf("create action without fields")
		}
		id, err := a.calendar.Create(ctx, *action.Fields)
		if err != nil {
			return applied, fmt.Errorf("create event: %w", err)
		}
		applied.ResultEventID = id

	case entity.ActionUpdate, entity.ActionReplace:
		if action.Fields == nil {
			return applied, fmt.Errorf("%s action without fields", action.Type)
		}
		if err := a.calendar.Update(ctx, action.EventID, *action.Fields); err != nil {
			return applied, fmt.Errorf("%s event %s: %w", action.Type, action.EventID, err)
		}

	case entity.ActionDelete:
		if err := a.calendar.Delete(ctx, action.EventID); err != nil {
			return applied, fmt.Errorf("delete event %s: %w", action.EventID, err)
		}

	case entity.ActionSkip:
		log.Debug("No calendar change needed")

	default:
		return applied, fmt.Errorf("unknown action type %q", action.Type)
	}

	if a.metrics != nil {
		a.metrics.CalendarActions.WithLabelValues(string(action.Type)).Inc()
	}
	if action.Type != entity.ActionSkip {
		log.Info("Calendar updated", "result_event_id", applied.ResultEventID)
	}
	return applied, nil
}
