package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"booking-calendar-sync/internal/domain/entity"
)

// fakeCalendar is an in-memory calendar whose search is a plain substring
// match, like the real one
type fakeCalendar struct {
	mu     sync.Mutex
	events map[string]entity.CalendarEventRef
	seq    int
	calls  []string
	// failAfterCommit makes the next creates store the event and then
	// report a retryable server error
	failAfterCommit int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]entity.CalendarEventRef)}
}

func (f *fakeCalendar) Search(ctx context.Context, query string, timeMin, timeMax time.Time) ([]entity.CalendarEventRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "search:"+query)

	var out []entity.CalendarEventRef
	for _, ev := range f.events {
		text := ev.Summary + "\n" + ev.Description + "\n" + ev.Location
		if query != "" && !strings.Contains(text, query) {
			continue
		}
		if !ev.Start.Before(timeMax) || !ev.End.After(timeMin) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCalendar) Create(ctx context.Context, fields entity.EventFields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fields.ID
	if id == "" {
		f.seq++
		id = fmt.Sprintf("evt-%d", f.seq)
	} else if _, ok := f.events[id]; ok {
		return "", &entity.CalendarIntegrationError{Op: "create", StatusCode: 409, Err: fmt.Errorf("event %s already exists", id)}
	}
	f.events[id] = refFromFields(id, fields)
	f.calls = append(f.calls, "create:"+id)

	if f.failAfterCommit > 0 {
		f.failAfterCommit--
		return "", &entity.CalendarIntegrationError{Op: "create", StatusCode: 503, Retryable: true, Err: fmt.Errorf("backend error")}
	}
	return id, nil
}

func (f *fakeCalendar) Update(ctx context.Context, eventID string, fields entity.EventFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[eventID]; !ok {
		return &entity.CalendarIntegrationError{Op: "update", StatusCode: 404, Err: fmt.Errorf("no event %s", eventID)}
	}
	f.events[eventID] = refFromFields(eventID, fields)
	f.calls = append(f.calls, "update:"+eventID)
	return nil
}

func (f *fakeCalendar) Delete(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
	f.calls = append(f.calls, "delete:"+eventID)
	return nil
}

// put seeds an event directly
func (f *fakeCalendar) put(id string, fields entity.EventFields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id] = refFromFields(id, fields)
}

func (f *fakeCalendar) all() []entity.CalendarEventRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.CalendarEventRef, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev)
	}
	sortEvents(out)
	return out
}

func (f *fakeCalendar) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if !strings.HasPrefix(c, "search:") {
			out = append(out, c)
		}
	}
	return out
}

func refFromFields(id string, fields entity.EventFields) entity.CalendarEventRef {
	props := make(map[string]string, len(fields.Properties))
	for k, v := range fields.Properties {
		props[k] = v
	}
	return entity.CalendarEventRef{
		ID:          id,
		Summary:     fields.Summary,
		Description: fields.Description,
		Location:    fields.Location,
		Start:       fields.Start,
		End:         fields.End,
		Properties:  props,
	}
}
