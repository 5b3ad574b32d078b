package entity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is returned by reference data lookups with no row
var ErrNotFound = errors.New("not found")

// InvalidBookingError means a record failed its own invariants.
// It is never retried.
type InvalidBookingError struct {
	Reason string
}

func (e *InvalidBookingError) Error() string {
	return "invalid booking: " + e.Reason
}

// Extraction failure reasons
const (
	ReasonNoBookingInfo = "no_booking_info"
	ReasonPromotional   = "promotional"
)

// ExtractionFailure is an expected outcome, not an alarm: the email had
// nothing to reconcile.
type ExtractionFailure struct {
	Reason string
	Detail string
}

func (e *ExtractionFailure) Error() string {
	if e.Detail == "" {
		return "extraction: " + e.Reason
	}
	return fmt.Sprintf("extraction: %s: %s", e.Reason, e.Detail)
}

// CalendarIntegrationError wraps a failed calendar call
type CalendarIntegrationError struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *CalendarIntegrationError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "retryable"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("calendar %s failed (%s, status %d): %v", e.Op, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar %s failed (%s): %v", e.Op, kind, e.Err)
}

func (e *CalendarIntegrationError) Unwrap() error {
	return e.Err
}

// IsRetryableCalendarError reports whether err is a retryable calendar failure
func IsRetryableCalendarError(err error) bool {
	var cerr *CalendarIntegrationError
	return errors.As(err, &cerr) && cerr.Retryable
}

// IsConflictCalendarError reports whether the calendar rejected a write
// because the event id is already taken
func IsConflictCalendarError(err error) bool {
	var cerr *CalendarIntegrationError
	return errors.As(err, &cerr) && cerr.StatusCode == http.StatusConflict
}

// AmbiguousMatchError means more than one live event claims the same
// identity and slot. It indicates corrupted calendar state.
type AmbiguousMatchError struct {
	Identifier string
	Slot       string
	EventIDs   []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %s slot %s: events %s",
		e.Identifier, e.Slot, strings.Join(e.EventIDs, ","))
}
