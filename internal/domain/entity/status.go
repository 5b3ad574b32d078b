package entity

import "strings"

// BookingStatus is the lifecycle state a car-share email announces
type BookingStatus string

const (
	StatusReserved  BookingStatus = "reserved"
	StatusChanged   BookingStatus = "changed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the known statuses
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusReserved, StatusChanged, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ParseBookingStatus maps free text to a status, defaulting to reserved
func ParseBookingStatus(s string) BookingStatus {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st
	}
	return StatusReserved
}

// Emoji is the title tag shown on the calendar
func (s BookingStatus) Emoji() string {
	switch s {
	case StatusChanged:
		return "🔄"
	case StatusCancelled:
		return "❌"
	case StatusCompleted:
		return "✅"
	default:
		return "🚗"
	}
}

// CarShareTransitions is the allowed prior -> next status table.
// Reconciliation stays permissive unless strict mode is enabled; the
// table is used to flag transitions the provider should never send.
var CarShareTransitions = map[BookingStatus][]BookingStatus{
	StatusReserved:  {StatusReserved, StatusChanged, StatusCancelled, StatusCompleted},
	StatusChanged:   {StatusChanged, StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {StatusCompleted},
}

// CanTransition reports whether moving from prev to next is in the table.
// An unknown prior state accepts anything.
func CanTransition(prev, next BookingStatus) bool {
	allowed, ok := CarShareTransitions[prev]
	if !ok {
		return true
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}
