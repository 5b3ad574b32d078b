package entity

import (
	"fmt"
	"time"
)

// Category is the closed set of email kinds the sync understands
type Category int

const (
	CategoryUnknown Category = iota
	CategoryFlight
	CategoryCarShare
)

func (c Category) String() string {
	switch c {
	case CategoryFlight:
		return "flight"
	case CategoryCarShare:
		return "carshare"
	default:
		return "unknown"
	}
}

// Email represents an email message from Gmail
type Email struct {
	ID         string
	ThreadID   string
	From       string
	To         string
	Subject    string
	Body       string
	HTMLBody   string
	ReceivedAt time.Time
	Labels     []string
}

// Classified is an email with its category resolved once up front
type Classified struct {
	Email    *Email
	Category Category
	Provider Provider // car-share only
}

// FetchWindow bounds which received emails a run looks at
type FetchWindow struct {
	After  time.Time
	Before time.Time // zero means open-ended
	// DateOnly renders the bounds as calendar dates instead of epoch seconds
	DateOnly bool
}

// MessageFetchFailure is one listed message that could not be read
type MessageFetchFailure struct {
	ID  string
	Err error
}

// FetchError is returned alongside the emails that were read
type FetchError struct {
	Failures []MessageFetchFailure
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %d messages", len(e.Failures))
}
