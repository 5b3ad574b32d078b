package usecase

import (
	"fmt"

	"booking-calendar-sync/internal/domain/entity"
)

// Reconciler decides calendar actions. It performs no I/O.
type Reconciler struct {
	strictTransitions bool
}

// NewReconciler creates a reconciler. With strictTransitions, car-share
// status changes outside entity.CarShareTransitions are skipped instead
// of applied.
func NewReconciler(strictTransitions bool) *Reconciler {
	return &Reconciler{strictTransitions: strictTransitions}
}

// ReconcileFlightSegment creates the segment event or merges the booking
// into the matched one.
func (r *Reconciler) ReconcileFlightSegment(b *entity.FlightBooking, ss entity.SlottedSegment, match entity.MatchResult) entity.Action {
	incoming := flightDataFromBooking(b, ss)
	slot := ss.Slot.String()

	if !match.Found() {
		fields := incoming.fields()
		return entity.Action{Type: entity.ActionCreate, Fields: &fields, Slot: slot, Reason: "no existing event"}
	}

	existing := *match.Event
	merged := mergeFlightData(flightDataFromEvent(existing), incoming)
	fields := merged.fields()

	if fields.Equal(entity.FieldsOf(existing)) {
		return entity.Action{Type: entity.ActionSkip, EventID: existing.ID, Slot: slot, Basis: match.Basis, Reason: "unchanged"}
	}
	return entity.Action{Type: entity.ActionUpdate, EventID: existing.ID, Fields: &fields, Slot: slot, Basis: match.Basis, Reason: "merge"}
}

// CarShareDecision is the primary action for the reservation plus the
// deletes that keep one event per reservation and per occupied slot.
type CarShareDecision struct {
	Action      entity.Action
	Cleanup     []entity.Action
	PriorStatus entity.BookingStatus
	Illegal     bool
}

// Actions lists the primary action followed by cleanup
func (d CarShareDecision) Actions() []entity.Action {
	return append([]entity.Action{d.Action}, d.Cleanup...)
}

// ReconcileCarShare applies the status table: reserved or changed take
// the slot, cancelled removes it, completed marks it done.
func (r *Reconciler) ReconcileCarShare(b *entity.CarShareBooking, match CarShareMatch) CarShareDecision {
	var d CarShareDecision

	if match.Found() {
		d.PriorStatus = parseMarker(match.Event.Description).Status
		// an overlapping event belongs to another reservation, so its
		// status says nothing about this one
		if match.Basis == entity.BasisPrimaryIdentifier && d.PriorStatus != "" && !entity.CanTransition(d.PriorStatus, b.Status) {
			d.Illegal = true
			if r.strictTransitions {
				d.Action = entity.Action{
					Type:    entity.ActionSkip,
					EventID: match.Event.ID,
					Basis:   match.Basis,
					Reason:  fmt.Sprintf("illegal transition %s -> %s", d.PriorStatus, b.Status),
				}
				return d
			}
		}
	}

	for _, dup := range match.Duplicates {
		d.Cleanup = append(d.Cleanup, deleteAction(dup, entity.BasisPrimaryIdentifier, "duplicate event for reservation"))
	}

	switch b.Status {
	case entity.StatusReserved, entity.StatusChanged:
		if !match.Found() {
			if len(match.NewerConflicts) > 0 {
				d.Action = entity.Action{Type: entity.ActionSkip, Reason: "slot taken by a newer reservation"}
				return d
			}
			fields := carShareFields(b)
			d.Action = entity.Action{Type: entity.ActionCreate, Fields: &fields, Reason: "new reservation"}
			return d
		}
		d.Action = r.replaceOrSkip(b, match.MatchResult)
		for _, ev := range match.Superseded {
			d.Cleanup = append(d.Cleanup, deleteAction(ev, entity.BasisTimeWindowOverlap, "superseded by overlapping reservation"))
		}

	case entity.StatusCancelled:
		if !match.Found() {
			d.Action = entity.Action{Type: entity.ActionSkip, Reason: "cancellation of unknown reservation"}
			return d
		}
		d.Action = deleteAction(*match.Event, match.Basis, "cancelled")

	case entity.StatusCompleted:
		fields := carShareFields(b)
		if !match.Found() {
			d.Action = entity.Action{Type: entity.ActionCreate, Fields: &fields, Reason: "completed reservation"}
			return d
		}
		if fields.Equal(entity.FieldsOf(*match.Event)) {
			d.Action = entity.Action{Type: entity.ActionSkip, EventID: match.Event.ID, Basis: match.Basis, Reason: "unchanged"}
			return d
		}
		d.Action = entity.Action{Type: entity.ActionUpdate, EventID: match.Event.ID, Fields: &fields, Basis: match.Basis, Reason: "completed"}
	}
	return d
}

func (r *Reconciler) replaceOrSkip(b *entity.CarShareBooking, match entity.MatchResult) entity.Action {
	fields := carShareFields(b)
	if fields.Equal(entity.FieldsOf(*match.Event)) {
		return entity.Action{Type: entity.ActionSkip, EventID: match.Event.ID, Basis: match.Basis, Reason: "unchanged"}
	}
	return entity.Action{Type: entity.ActionReplace, EventID: match.Event.ID, Fields: &fields, Basis: match.Basis, Reason: string(b.Status)}
}

func deleteAction(ev entity.CalendarEventRef, basis entity.MatchBasis, reason string) entity.Action {
	return entity.Action{Type: entity.ActionDelete, EventID: ev.ID, Basis: basis, Reason: reason}
}
