package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendar stores booking events in one Google calendar
type GoogleCalendar struct {
	service    *calendar.Service
	calendarID string
	logger     logger.Logger
}

// NewCalendarClient creates a Calendar API client from an OAuth token source
func NewCalendarClient(ctx context.Context, tokenSource oauth2.TokenSource) (*calendar.Service, error) {
	service, err := calendar.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return service, nil
}

// NewGoogleCalendar creates a calendar repository for calendarID
func NewGoogleCalendar(service *calendar.Service, calendarID string, logger logger.Logger) repository.CalendarRepository {
	return &GoogleCalendar{
		service:    service,
		calendarID: calendarID,
		logger:     logger,
	}
}

// Search lists single events intersecting [timeMin, timeMax) whose text
// contains query. An empty query matches every event in range.
func (c *GoogleCalendar) Search(ctx context.Context, query string, timeMin, timeMax time.Time) ([]entity.CalendarEventRef, error) {
	call := c.service.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		MaxResults(250)
	if query != "" {
		call = call.Q(query)
	}

	var refs []entity.CalendarEventRef
	err := call.Pages(ctx, func(events *calendar.Events) error {
		for _, ev := range events.Items {
			ref, ok := toEventRef(ev)
			if !ok {
				c.logger.Debug("Skipping event without timed bounds", "event_id", ev.Id)
				continue
			}
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, classifyError("search", err)
	}
	return refs, nil
}

// Create inserts a new event and returns its id
func (c *GoogleCalendar) Create(ctx context.Context, fields entity.EventFields) (string, error) {
	created, err := c.service.Events.Insert(c.calendarID, toEvent(fields)).Context(ctx).Do()
	if err != nil {
		return "", classifyError("create", err)
	}
	c.logger.Debug("Calendar event created", "event_id", created.Id, "summary", fields.Summary)
	return created.Id, nil
}

// Update overwrites every written field of an event
func (c *GoogleCalendar) Update(ctx context.Context, eventID string, fields entity.EventFields) error {
	if _, err := c.service.Events.Update(c.calendarID, eventID, toEvent(fields)).Context(ctx).Do(); err != nil {
		return classifyError("update", err)
	}
	c.logger.Debug("Calendar event updated", "event_id", eventID)
	return nil
}

// Delete removes an event. An event that is already gone counts as deleted.
func (c *GoogleCalendar) Delete(ctx context.Context, eventID string) error {
	err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			c.logger.Debug("Calendar event already deleted", "event_id", eventID)
			return nil
		}
		return classifyError("delete", err)
	}
	c.logger.Debug("Calendar event deleted", "event_id", eventID)
	return nil
}

func toEvent(f entity.EventFields) *calendar.Event {
	ev := &calendar.Event{
		Id:          f.ID,
		Summary:     f.Summary,
		Description: f.Description,
		Location:    f.Location,
		Start:       toEventDateTime(f.Start),
		End:         toEventDateTime(f.End),
	}
	if len(f.Properties) > 0 {
		ev.ExtendedProperties = &calendar.EventExtendedProperties{Private: f.Properties}
	}
	return ev
}

func toEventDateTime(t time.Time) *calendar.EventDateTime {
	dt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if name := t.Location().String(); name != "Local" && name != "" {
		dt.TimeZone = name
	}
	return dt
}

// toEventRef converts an API event; all-day events are reported with
// date bounds at UTC midnight
func toEventRef(ev *calendar.Event) (entity.CalendarEventRef, bool) {
	start, ok := parseEventDateTime(ev.Start)
	if !ok {
		return entity.CalendarEventRef{}, false
	}
	end, ok := parseEventDateTime(ev.End)
	if !ok {
		return entity.CalendarEventRef{}, false
	}

	ref := entity.CalendarEventRef{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       start,
		End:         end,
	}
	if ev.ExtendedProperties != nil && len(ev.ExtendedProperties.Private) > 0 {
		ref.Properties = ev.ExtendedProperties.Private
	}
	return ref, true
}

func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, err == nil
	}
	if dt.Date != "" {
		t, err := time.Parse("2006-01-02", dt.Date)
		return t, err == nil
	}
	return time.Time{}, false
}

// classifyError wraps an API failure. Throttling and server errors are
// retryable; other client errors are not.
func classifyError(op string, err error) error {
	cerr := &entity.CalendarIntegrationError{Op: op, Err: err}

	var apiErr *googleapi.Error
	switch {
	case errors.As(err, &apiErr):
		cerr.StatusCode = apiErr.Code
		cerr.Retryable = retryableStatus(apiErr)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		cerr.Retryable = false
	default:
		// transport failure before any response
		cerr.Retryable = true
	}
	return cerr
}

func retryableStatus(apiErr *googleapi.Error) bool {
	switch {
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= 500:
		return true
	case apiErr.Code == http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}
