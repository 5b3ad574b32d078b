package entity

import "time"

// CalendarEventRef is an existing event as read back from the calendar
type CalendarEventRef struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Properties  map[string]string
}

// Window returns the event's half-open interval
func (e CalendarEventRef) Window() TimeWindow {
	return TimeWindow{Start: e.Start, End: e.End}
}

// EventFields is everything written to the calendar for one event
type EventFields struct {
	// ID is a client-chosen id for inserts; empty lets the calendar pick one
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Properties  map[string]string
}

// Equal compares the written fields of two events
func (f EventFields) Equal(o EventFields) bool {
	if f.Summary != o.Summary || f.Description != o.Description || f.Location != o.Location {
		return false
	}
	if !f.Start.Equal(o.Start) || !f.End.Equal(o.End) {
		return false
	}
	if len(f.Properties) != len(o.Properties) {
		return false
	}
	for k, v := range f.Properties {
		if o.Properties[k] != v {
			return false
		}
	}
	return true
}

// FieldsOf returns the writable fields of an existing event
func FieldsOf(e CalendarEventRef) EventFields {
	return EventFields{
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       e.Start,
		End:         e.End,
		Properties:  e.Properties,
	}
}
