package usecase

import (
	"context"
	"fmt"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
)

const (
	searchLookBehind = 30 * 24 * time.Hour
	searchLookAhead  = 365 * 24 * time.Hour
	// overlapPadding widens the overlap search range; the precise
	// half-open test is applied to the results.
	overlapPadding = 2 * time.Hour
)

// EventMatcher finds the calendar event that currently represents a booking
type EventMatcher struct {
	calendar repository.CalendarRepository
	now      func() time.Time
}

// NewEventMatcher creates a matcher over the calendar store
func NewEventMatcher(calendar repository.CalendarRepository, now func() time.Time) *EventMatcher {
	if now == nil {
		now = time.Now
	}
	return &EventMatcher{calendar: calendar, now: now}
}

// searchRange is now-30d .. now+365d, stretched to cover the booking itself
func (m *EventMatcher) searchRange(start, end time.Time) (time.Time, time.Time) {
	now := m.now()
	tmin := now.Add(-searchLookBehind)
	tmax := now.Add(searchLookAhead)
	if !start.IsZero() && start.Add(-24*time.Hour).Before(tmin) {
		tmin = start.Add(-24 * time.Hour)
	}
	if !end.IsZero() && end.Add(24*time.Hour).After(tmax) {
		tmax = end.Add(24 * time.Hour)
	}
	return tmin, tmax
}

// FindFlightSegment looks up the event for one segment slot. The resolved
// identifier is tried first; when it came from the confirmation code and
// the email also carries a booking reference, the reference is tried next
// so events first created from a reference-only email are still found.
func (m *EventMatcher) FindFlightSegment(ctx context.Context, b *entity.FlightBooking, id Identifier, ss entity.SlottedSegment) (entity.MatchResult, error) {
	slot := ss.Slot.String()
	candidates := []Identifier{id}
	if alt, ok := alternateFlightIdentity(b, id); ok {
		candidates = append(candidates, alt)
	}

	tmin, tmax := m.searchRange(ss.Segment.DepartureTime, ss.Segment.ArrivalTime)
	for _, cand := range candidates {
		events, err := m.calendar.Search(ctx, cand.Value, tmin, tmax)
		if err != nil {
			return entity.NoMatch(), fmt.Errorf("search flight events for %s: %w", cand.Value, err)
		}

		tagged := cand.Tagged(slot)
		hits := filterEvents(events, func(ev entity.CalendarEventRef, mk eventMarker) bool {
			return mk.Kind == kindFlight && mk.hasID(tagged)
		})

		switch len(hits) {
		case 0:
			continue
		case 1:
			return entity.Matched(hits[0], cand.Basis), nil
		default:
			ids := make([]string, len(hits))
			for i, h := range hits {
				ids[i] = h.ID
			}
			return entity.NoMatch(), &entity.AmbiguousMatchError{Identifier: cand.Value, Slot: slot, EventIDs: ids}
		}
	}
	return entity.NoMatch(), nil
}

// CarShareMatch extends MatchResult with what the overlap stage saw
type CarShareMatch struct {
	entity.MatchResult
	// Duplicates are extra events carrying the same booking reference
	Duplicates []entity.CalendarEventRef
	// NewerConflicts overlap the booking but came from later emails
	NewerConflicts []entity.CalendarEventRef
}

// FindCarShare runs the identifier stage and then the overlap stage for
// the same station. Overlapping events of other reservations written from
// older emails come back as Superseded; the first of them becomes the
// match when the identifier stage found nothing.
func (m *EventMatcher) FindCarShare(ctx context.Context, b *entity.CarShareBooking, id Identifier) (CarShareMatch, error) {
	var res CarShareMatch

	tmin, tmax := m.searchRange(b.Start, b.End)
	events, err := m.calendar.Search(ctx, id.Value, tmin, tmax)
	if err != nil {
		return res, fmt.Errorf("search car-share events for %s: %w", id.Value, err)
	}
	own := filterEvents(events, func(ev entity.CalendarEventRef, mk eventMarker) bool {
		return mk.Kind == kindCarShare && mk.hasID(id.Value)
	})
	if len(own) > 0 {
		res.MatchResult = entity.Matched(own[0], entity.BasisPrimaryIdentifier)
		res.Duplicates = own[1:]
	}

	nearby, err := m.calendar.Search(ctx, "", b.Start.Add(-overlapPadding), b.End.Add(overlapPadding))
	if err != nil {
		return res, fmt.Errorf("search overlapping car-share events: %w", err)
	}

	stationKey := b.Station.Key()
	window := b.Window()
	conflicts := filterEvents(nearby, func(ev entity.CalendarEventRef, mk eventMarker) bool {
		if mk.Kind != kindCarShare || mk.hasID(id.Value) {
			return false
		}
		if mk.Station != stationKey || (mk.Provider != "" && mk.Provider != string(b.Provider)) {
			return false
		}
		return ev.Window().Overlaps(window)
	})

	var older []entity.CalendarEventRef
	for _, ev := range conflicts {
		if supersedes(b.EmailReceivedAt, parseMarker(ev.Description).Received) {
			older = append(older, ev)
		} else {
			res.NewerConflicts = append(res.NewerConflicts, ev)
		}
	}

	if res.Found() {
		res.Superseded = older
		return res, nil
	}
	if len(older) > 0 {
		res.MatchResult = entity.Matched(older[0], entity.BasisTimeWindowOverlap)
		res.Superseded = older[1:]
	}
	return res, nil
}

// supersedes applies "newer email wins". Without receipt times on both
// sides the booking being processed now wins, since mail is processed in
// arrival order.
func supersedes(incoming, existing time.Time) bool {
	if incoming.IsZero() || existing.IsZero() {
		return true
	}
	return !incoming.Before(existing)
}

func filterEvents(events []entity.CalendarEventRef, keep func(entity.CalendarEventRef, eventMarker) bool) []entity.CalendarEventRef {
	seen := make(map[string]bool, len(events))
	var out []entity.CalendarEventRef
	for _, ev := range events {
		if seen[ev.ID] {
			continue
		}
		if keep(ev, parseMarker(ev.Description)) {
			seen[ev.ID] = true
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out
}
