package repository

import (
	"context"
	"time"

	"booking-calendar-sync/internal/domain/entity"
)

// CalendarRepository is the calendar store, the system of record for
// booking state. Failures are reported as *entity.CalendarIntegrationError.
type CalendarRepository interface {
	// Search returns events whose text contains query and whose time
	// range intersects [timeMin, timeMax).
	Search(ctx context.Context, query string, timeMin, timeMax time.Time) ([]entity.CalendarEventRef, error)
	Create(ctx context.Context, fields entity.EventFields) (string, error)
	Update(ctx context.Context, eventID string, fields entity.EventFields) error
	Delete(ctx context.Context, eventID string) error
}
