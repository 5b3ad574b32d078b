package usecase

import (
	"testing"

	"booking-calendar-sync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileFlightSegment(t *testing.T) {
	r := NewReconciler(false)

	t.Run("no match creates", func(t *testing.T) {
		b := anaBooking("887525617", "0709")
		a := r.ReconcileFlightSegment(b, outbound1(b), entity.NoMatch())
		assert.Equal(t, entity.ActionCreate, a.Type)
		require.NotNil(t, a.Fields)
		assert.Equal(t, "outbound-1", a.Slot)
	})

	t.Run("identical content skips", func(t *testing.T) {
		b := anaBooking("887525617", "0709")
		existing := refFromFields("evt-1", flightDataFromBooking(b, outbound1(b)).fields())

		a := r.ReconcileFlightSegment(b, outbound1(b), entity.Matched(existing, entity.BasisPrimaryIdentifier))
		assert.Equal(t, entity.ActionSkip, a.Type)
		assert.Equal(t, "unchanged", a.Reason)
		assert.Equal(t, "evt-1", a.EventID)
	})

	t.Run("later email without seat keeps stored seat", func(t *testing.T) {
		first := anaBooking("887525617", "0709")
		first.OutboundSegments[0].SeatNumber = "12A"
		existing := refFromFields("evt-1", flightDataFromBooking(first, outbound1(first)).fields())

		second := anaBooking("887525617", "0709")
		second.OutboundSegments[0].SeatNumber = "未指定"
		second.OutboundSegments[0].AircraftType = "B787"

		a := r.ReconcileFlightSegment(second, outbound1(second), entity.Matched(existing, entity.BasisPrimaryIdentifier))
		require.Equal(t, entity.ActionUpdate, a.Type)
		assert.Contains(t, a.Fields.Description, "Seat: 12A")
		assert.Contains(t, a.Fields.Description, "Aircraft: B787")
	})

	t.Run("reference-only event gains the confirmation code", func(t *testing.T) {
		first := anaBooking("", "0709")
		existing := refFromFields("evt-1", flightDataFromBooking(first, outbound1(first)).fields())

		second := anaBooking("887525617", "0709")
		a := r.ReconcileFlightSegment(second, outbound1(second), entity.Matched(existing, entity.BasisFallbackIdentifier))
		require.Equal(t, entity.ActionUpdate, a.Type)
		assert.Contains(t, a.Fields.Description, "id=887525617#outbound-1")
		assert.Contains(t, a.Fields.Description, "id=0709#outbound-1")
		assert.Equal(t, entity.BasisFallbackIdentifier, a.Basis)
	})
}

func TestReconcileCarShare_StatusTable(t *testing.T) {
	r := NewReconciler(false)
	received := at(2, 8, 0)
	existingFor := func(status entity.BookingStatus) entity.CalendarEventRef {
		return refFromFields("evt-1", carShareFields(carShare("R-1", status, at(10, 14, 0), at(10, 16, 0), at(1, 8, 0))))
	}

	tests := []struct {
		name     string
		status   entity.BookingStatus
		existing *entity.CalendarEventRef
		want     entity.ActionType
	}{
		{"reserved new", entity.StatusReserved, nil, entity.ActionCreate},
		{"changed new", entity.StatusChanged, nil, entity.ActionCreate},
		{"completed new", entity.StatusCompleted, nil, entity.ActionCreate},
		{"cancelled unknown is a no-op", entity.StatusCancelled, nil, entity.ActionSkip},
		{"changed existing replaces", entity.StatusChanged, ptr(existingFor(entity.StatusReserved)), entity.ActionReplace},
		{"cancelled existing deletes", entity.StatusCancelled, ptr(existingFor(entity.StatusReserved)), entity.ActionDelete},
		{"completed existing updates", entity.StatusCompleted, ptr(existingFor(entity.StatusChanged)), entity.ActionUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := carShare("R-1", tt.status, at(10, 15, 0), at(10, 17, 0), received)
			match := CarShareMatch{}
			if tt.existing != nil {
				match.MatchResult = entity.Matched(*tt.existing, entity.BasisPrimaryIdentifier)
			}

			d := r.ReconcileCarShare(b, match)
			assert.Equal(t, tt.want, d.Action.Type)
			assert.False(t, d.Illegal)
			if tt.existing != nil && tt.want != entity.ActionCreate {
				assert.Equal(t, "evt-1", d.Action.EventID)
			}
		})
	}
}

func TestReconcileCarShare_CompletedTitle(t *testing.T) {
	r := NewReconciler(false)
	b := carShare("R-1", entity.StatusCompleted, at(10, 14, 0), at(10, 16, 0), at(2, 8, 0))

	d := r.ReconcileCarShare(b, CarShareMatch{})
	require.Equal(t, entity.ActionCreate, d.Action.Type)
	assert.Contains(t, d.Action.Fields.Summary, "✅")
}

func TestReconcileCarShare_Idempotent(t *testing.T) {
	r := NewReconciler(false)
	b := carShare("R-1", entity.StatusReserved, at(10, 14, 0), at(10, 16, 0), at(2, 8, 0))
	existing := refFromFields("evt-1", carShareFields(b))

	d := r.ReconcileCarShare(b, CarShareMatch{MatchResult: entity.Matched(existing, entity.BasisPrimaryIdentifier)})
	assert.Equal(t, entity.ActionSkip, d.Action.Type)
	assert.Empty(t, d.Cleanup)
}

func TestReconcileCarShare_ConflictReplacement(t *testing.T) {
	r := NewReconciler(false)
	// reservation 14:00-16:00 superseded by a newer one for 15:00-17:00 at the same station
	old := refFromFields("old", carShareFields(carShare("R-1", entity.StatusReserved, at(10, 14, 0), at(10, 16, 0), at(1, 8, 0))))
	extra := refFromFields("extra", carShareFields(carShare("R-9", entity.StatusReserved, at(10, 16, 30), at(10, 17, 30), at(1, 9, 0))))
	b := carShare("R-2", entity.StatusChanged, at(10, 15, 0), at(10, 17, 0), at(2, 8, 0))

	match := CarShareMatch{MatchResult: entity.Matched(old, entity.BasisTimeWindowOverlap)}
	match.Superseded = []entity.CalendarEventRef{extra}

	d := r.ReconcileCarShare(b, match)
	require.Equal(t, entity.ActionReplace, d.Action.Type)
	assert.Equal(t, "old", d.Action.EventID)
	assert.Equal(t, at(10, 15, 0), d.Action.Fields.Start)
	assert.Contains(t, d.Action.Fields.Description, "id=R-2")

	require.Len(t, d.Cleanup, 1)
	assert.Equal(t, entity.ActionDelete, d.Cleanup[0].Type)
	assert.Equal(t, "extra", d.Cleanup[0].EventID)
	assert.False(t, d.Illegal, "overlap matches carry another reservation's status")
}

func TestReconcileCarShare_NewerConflictBlocksCreate(t *testing.T) {
	r := NewReconciler(false)
	newer := refFromFields("newer", carShareFields(carShare("R-3", entity.StatusReserved, at(10, 14, 0), at(10, 16, 0), at(5, 8, 0))))
	b := carShare("R-2", entity.StatusReserved, at(10, 15, 0), at(10, 17, 0), at(2, 8, 0))

	d := r.ReconcileCarShare(b, CarShareMatch{NewerConflicts: []entity.CalendarEventRef{newer}})
	assert.Equal(t, entity.ActionSkip, d.Action.Type)
	assert.Empty(t, d.Cleanup)
}

func TestReconcileCarShare_DuplicatesDeleted(t *testing.T) {
	r := NewReconciler(false)
	b := carShare("R-1", entity.StatusCancelled, at(10, 14, 0), at(10, 16, 0), at(2, 8, 0))
	first := refFromFields("a", carShareFields(carShare("R-1", entity.StatusReserved, at(10, 14, 0), at(10, 16, 0), at(1, 8, 0))))
	dup := first
	dup.ID = "b"

	d := r.ReconcileCarShare(b, CarShareMatch{
		MatchResult: entity.Matched(first, entity.BasisPrimaryIdentifier),
		Duplicates:  []entity.CalendarEventRef{dup},
	})
	actions := d.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, entity.ActionDelete, actions[0].Type)
	assert.Equal(t, "a", actions[0].EventID)
	assert.Equal(t, "b", actions[1].EventID)
}

func TestReconcileCarShare_IllegalTransition(t *testing.T) {
	completedEvent := refFromFields("evt-1", carShareFields(carShare("R-1", entity.StatusCompleted, at(10, 14, 0), at(10, 16, 0), at(1, 8, 0))))
	b := carShare("R-1", entity.StatusChanged, at(10, 15, 0), at(10, 17, 0), at(2, 8, 0))
	match := CarShareMatch{MatchResult: entity.Matched(completedEvent, entity.BasisPrimaryIdentifier)}

	t.Run("permissive applies and flags", func(t *testing.T) {
		d := NewReconciler(false).ReconcileCarShare(b, match)
		assert.True(t, d.Illegal)
		assert.Equal(t, entity.StatusCompleted, d.PriorStatus)
		assert.Equal(t, entity.ActionReplace, d.Action.Type)
	})

	t.Run("strict skips", func(t *testing.T) {
		d := NewReconciler(true).ReconcileCarShare(b, match)
		assert.True(t, d.Illegal)
		assert.Equal(t, entity.ActionSkip, d.Action.Type)
		assert.Contains(t, d.Action.Reason, "completed -> changed")
	})
}

func ptr[T any](v T) *T { return &v }
