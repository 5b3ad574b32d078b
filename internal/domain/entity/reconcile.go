package entity

import "fmt"

// MatchBasis records which signal found an existing event
type MatchBasis string

const (
	BasisNone               MatchBasis = ""
	BasisPrimaryIdentifier  MatchBasis = "primary_identifier"
	BasisFallbackIdentifier MatchBasis = "fallback_identifier"
	BasisTimeWindowOverlap  MatchBasis = "time_window_overlap"
)

// MatchResult is NoMatch when Event is nil.
// Superseded holds other reservations' events on the same resource whose
// windows overlap the booking; they are removed when the booking takes
// the slot.
type MatchResult struct {
	Event      *CalendarEventRef
	Basis      MatchBasis
	Superseded []CalendarEventRef
}

// NoMatch is the empty result
func NoMatch() MatchResult { return MatchResult{} }

// Matched builds a match on a single event
func Matched(ev CalendarEventRef, basis MatchBasis) MatchResult {
	return MatchResult{Event: &ev, Basis: basis}
}

// Found reports whether an event was matched
func (m MatchResult) Found() bool { return m.Event != nil }

func (m MatchResult) String() string {
	if m.Event == nil {
		return "NoMatch"
	}
	return fmt.Sprintf("Matched(%s, %s)", m.Event.ID, m.Basis)
}

// ActionType is what the reconciler decided for one event
type ActionType string

const (
	ActionCreate  ActionType = "create"
	ActionUpdate  ActionType = "update"
	ActionReplace ActionType = "replace"
	ActionDelete  ActionType = "delete"
	ActionSkip    ActionType = "skip"
)

// Action is a single calendar mutation (or a recorded no-op)
type Action struct {
	Type    ActionType
	EventID string
	Fields  *EventFields
	Slot    string
	Basis   MatchBasis
	Reason  string
}

func (a Action) String() string {
	if a.EventID == "" {
		return fmt.Sprintf("%s(%s)", a.Type, a.Reason)
	}
	return fmt.Sprintf("%s(%s: %s)", a.Type, a.EventID, a.Reason)
}

// AppliedAction is an action plus the event it touched
type AppliedAction struct {
	Action
	ResultEventID string
	DryRun        bool
}
