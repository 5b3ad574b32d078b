package entity

import "time"

// EmailOutcome classifies how one email ended
type EmailOutcome string

const (
	OutcomeProcessed      EmailOutcome = "processed"
	OutcomePromotional    EmailOutcome = "promotional"
	OutcomeNoFlightInfo   EmailOutcome = "no_flight_info"
	OutcomeNoCarShareInfo EmailOutcome = "no_carshare_info"
	OutcomeUnsupported    EmailOutcome = "unsupported"
	OutcomeFailed         EmailOutcome = "failed"
)

// EmailFailure is one failed email in a run
type EmailFailure struct {
	EmailID string
	Subject string
	Error   string
}

// RunSummary aggregates one sync run
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool

	Emails         int
	Processed      int
	Promotional    int
	NoFlightInfo   int
	NoCarShareInfo int
	Unsupported    int
	Failed         int

	Created  int
	Updated  int
	Replaced int
	Deleted  int
	Skipped  int

	IllegalTransitions int

	Failures []EmailFailure
}

// RecordOutcome counts the email outcome
func (s *RunSummary) RecordOutcome(o EmailOutcome) {
	switch o {
	case OutcomeProcessed:
		s.Processed++
	case OutcomePromotional:
		s.Promotional++
	case OutcomeNoFlightInfo:
		s.NoFlightInfo++
	case OutcomeNoCarShareInfo:
		s.NoCarShareInfo++
	case OutcomeUnsupported:
		s.Unsupported++
	case OutcomeFailed:
		s.Failed++
	}
}

// RecordAction counts one applied action
func (s *RunSummary) RecordAction(t ActionType) {
	switch t {
	case ActionCreate:
		s.Created++
	case ActionUpdate:
		s.Updated++
	case ActionReplace:
		s.Replaced++
	case ActionDelete:
		s.Deleted++
	case ActionSkip:
		s.Skipped++
	}
}

// Mutations is the number of calendar writes in the run
func (s *RunSummary) Mutations() int {
	return s.Created + s.Updated + s.Replaced + s.Deleted
}

// FullyFailed distinguishes systemic failure from partial failure
func (s *RunSummary) FullyFailed() bool {
	return s.Failed > 0 && s.Processed == 0
}

// Duration of the run
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
