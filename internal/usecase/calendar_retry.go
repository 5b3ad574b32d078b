package usecase

import (
	"context"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/metrics"
	"booking-calendar-sync/pkg/retry"

	"github.com/google/uuid"
)

// RetryingCalendar retries rate-limited and 5xx calendar failures with
// exponential backoff. Other failures pass through untouched.
type RetryingCalendar struct {
	inner   repository.CalendarRepository
	policy  retry.Policy
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewRetryingCalendar wraps a calendar repository
func NewRetryingCalendar(inner repository.CalendarRepository, policy retry.Policy, logger logger.Logger, m *metrics.Metrics) *RetryingCalendar {
	return &RetryingCalendar{inner: inner, policy: policy, logger: logger, metrics: m}
}

func (c *RetryingCalendar) do(ctx context.Context, op string, fn func() error) error {
	return retry.Do(ctx, c.policy, fn, entity.IsRetryableCalendarError, func(err error, wait time.Duration) {
		c.logger.Warn("Retrying calendar call", "operation", op, "wait", wait.String(), "error", err)
		if c.metrics != nil {
			c.metrics.CalendarRetries.WithLabelValues(op).Inc()
		}
	})
}

func (c *RetryingCalendar) Search(ctx context.Context, query string, timeMin, timeMax time.Time) ([]entity.CalendarEventRef, error) {
	var events []entity.CalendarEventRef
	err := c.do(ctx, "search", func() error {
		var err error
		events, err = c.inner.Search(ctx, query, timeMin, timeMax)
		return err
	})
	return events, err
}

// Create pins a client event id before the first attempt. An insert that
// committed but still reported a retryable failure then comes back as a
// conflict on the next attempt, which counts as success.
func (c *RetryingCalendar) Create(ctx context.Context, fields entity.EventFields) (string, error) {
	if fields.ID == "" {
		fields.ID = newClientEventID()
	}

	var (
		id       string
		attempts int
	)
	err := c.do(ctx, "create", func() error {
		attempts++
		var err error
		id, err = c.inner.Create(ctx, fields)
		if err != nil && attempts > 1 && entity.IsConflictCalendarError(err) {
			c.logger.Info("Earlier create attempt was committed", "event_id", fields.ID)
			id = fields.ID
			return nil
		}
		return err
	})
	return id, err
}

// newClientEventID returns 32 lowercase hex digits, a valid base32hex
// calendar event id
func newClientEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (c *RetryingCalendar) Update(ctx context.Context, eventID string, fields entity.EventFields) error {
	return c.do(ctx, "update", func() error {
		return c.inner.Update(ctx, eventID, fields)
	})
}

func (c *RetryingCalendar) Delete(ctx context.Context, eventID string) error {
	return c.do(ctx, "delete", func() error {
		return c.inner.Delete(ctx, eventID)
	})
}
