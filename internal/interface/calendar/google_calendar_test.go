package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func newTestCalendar(t *testing.T, handler http.Handler) *GoogleCalendar {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewGoogleCalendar(svc, "primary", logger.NewNop()).(*GoogleCalendar)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		status    int
	}{
		{"too many requests", &googleapi.Error{Code: 429}, true, 429},
		{"server error", &googleapi.Error{Code: 503}, true, 503},
		{"rate limit forbidden", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}}, true, 403},
		{"permission forbidden", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "forbidden"}}}, false, 403},
		{"bad request", &googleapi.Error{Code: 400}, false, 400},
		{"duplicate id", &googleapi.Error{Code: 409}, false, 409},
		{"canceled", context.Canceled, false, 0},
		{"transport", errors.New("connection reset by peer"), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError("create", tt.err)
			var cerr *entity.CalendarIntegrationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "create", cerr.Op)
			assert.Equal(t, tt.retryable, cerr.Retryable)
			assert.Equal(t, tt.status, cerr.StatusCode)
			assert.Equal(t, tt.retryable, entity.IsRetryableCalendarError(err))
		})
	}
}

func TestToEventRoundTrip(t *testing.T) {
	fields := entity.EventFields{
		Summary:     "✈️ HND → ITM (ANA NH006)",
		Description: "Flight: NH006",
		Location:    "Haneda",
		Start:       time.Date(2025, 3, 10, 8, 0, 0, 0, tokyo),
		End:         time.Date(2025, 3, 10, 9, 5, 0, 0, tokyo),
		Properties:  map[string]string{"source": "booking-calendar-sync", "kind": "flight"},
	}

	ev := toEvent(fields)
	ev.Id = "evt1"
	assert.Equal(t, "2025-03-10T08:00:00+09:00", ev.Start.DateTime)
	assert.Equal(t, "JST", ev.Start.TimeZone)

	ref, ok := toEventRef(ev)
	require.True(t, ok)
	assert.Equal(t, "evt1", ref.ID)
	assert.True(t, entity.FieldsOf(ref).Equal(fields))
}

func TestToEventRef_AllDayAndMissing(t *testing.T) {
	ref, ok := toEventRef(&calendar.Event{
		Id:    "a",
		Start: &calendar.EventDateTime{Date: "2025-03-10"},
		End:   &calendar.EventDateTime{Date: "2025-03-11"},
	})
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, ref.End.Sub(ref.Start))

	_, ok = toEventRef(&calendar.Event{Id: "b"})
	assert.False(t, ok)
}

func TestGoogleCalendar_SearchPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "0709", q.Get("q"))
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.NotEmpty(t, q.Get("timeMin"))

		if q.Get("pageToken") == "" {
			writeJSON(t, w, map[string]any{
				"items": []map[string]any{{
					"id":    "e1",
					"start": map[string]string{"dateTime": "2025-03-10T08:00:00+09:00"},
					"end":   map[string]string{"dateTime": "2025-03-10T09:05:00+09:00"},
					"extendedProperties": map[string]any{
						"private": map[string]string{"kind": "flight"},
					},
				}},
				"nextPageToken": "p2",
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"items": []map[string]any{{
				"id":    "e2",
				"start": map[string]string{"dateTime": "2025-03-12T08:00:00+09:00"},
				"end":   map[string]string{"dateTime": "2025-03-12T09:05:00+09:00"},
			}},
		})
	})

	c := newTestCalendar(t, mux)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	refs, err := c.Search(context.Background(), "0709", now, now.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "flight", refs[0].Properties["kind"])
	assert.Equal(t, "e2", refs[1].ID)
}

func TestGoogleCalendar_DeleteAlreadyGone(t *testing.T) {
	c := newTestCalendar(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if strings.HasSuffix(r.URL.Path, "/gone") {
			http.Error(w, `{"error":{"code":410,"message":"deleted"}}`, http.StatusGone)
			return
		}
		http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
	}))

	assert.NoError(t, c.Delete(context.Background(), "gone"))

	err := c.Delete(context.Background(), "other")
	require.Error(t, err)
	assert.True(t, entity.IsRetryableCalendarError(err))
}

func TestGoogleCalendar_CreateSendsPrivateProperties(t *testing.T) {
	c := newTestCalendar(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var ev calendar.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		require.NotNil(t, ev.ExtendedProperties)
		assert.Equal(t, "carshare", ev.ExtendedProperties.Private["kind"])
		writeJSON(t, w, map[string]string{"id": "new-1"})
	}))

	id, err := c.Create(context.Background(), entity.EventFields{
		Summary:    "🚗 カーシェア: 渋谷駅前",
		Start:      time.Date(2025, 3, 10, 14, 0, 0, 0, tokyo),
		End:        time.Date(2025, 3, 10, 16, 0, 0, 0, tokyo),
		Properties: map[string]string{"kind": "carshare"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)
}

func TestGoogleCalendar_CreateWithClientID(t *testing.T) {
	c := newTestCalendar(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev calendar.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		if ev.Id == "0123456789abcdef" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"code":409,"message":"The requested identifier already exists."}}`))
			return
		}
		writeJSON(t, w, map[string]string{"id": ev.Id})
	}))

	fields := entity.EventFields{
		ID:      "fedcba9876543210",
		Summary: "✈️ HND → ITM (ANA NH006)",
		Start:   time.Date(2025, 3, 10, 8, 0, 0, 0, tokyo),
		End:     time.Date(2025, 3, 10, 9, 5, 0, 0, tokyo),
	}
	id, err := c.Create(context.Background(), fields)
	require.NoError(t, err)
	assert.Equal(t, "fedcba9876543210", id)

	fields.ID = "0123456789abcdef"
	_, err = c.Create(context.Background(), fields)
	assert.True(t, entity.IsConflictCalendarError(err))
	assert.False(t, entity.IsRetryableCalendarError(err))
}
