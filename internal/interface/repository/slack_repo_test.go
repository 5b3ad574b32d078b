package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *entity.RunSummary {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return &entity.RunSummary{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Emails:     3,
		Processed:  2,
		Failed:     1,
		Created:    2,
		Skipped:    1,
		Failures:   []entity.EmailFailure{{EmailID: "m3", Subject: "予約確認", Error: "calendar create failed"}},
	}
}

func TestSlackRepository_NotifyRunSummary(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := NewSlackRepository(srv.URL, logger.NewNop())
	require.NoError(t, repo.NotifyRunSummary(context.Background(), sampleSummary()))

	assert.Contains(t, got.Text, "⚠️")
	assert.Contains(t, got.Text, "run `run-1`")
	assert.Contains(t, got.Text, "created 2")
	assert.Contains(t, got.Text, "`m3` 予約確認: calendar create failed")
}

func TestSlackRepository_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	repo := NewSlackRepository(srv.URL, logger.NewNop())
	err := repo.NotifyRunSummary(context.Background(), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid_payload")
}

func TestFormatRunSummary_CapsFailures(t *testing.T) {
	s := sampleSummary()
	s.Processed = 0
	s.Failures = nil
	for i := 0; i < 13; i++ {
		s.Failures = append(s.Failures, entity.EmailFailure{EmailID: fmt.Sprintf("m%d", i), Error: "boom"})
	}
	s.Failed = len(s.Failures)

	text := FormatRunSummary(s)
	assert.True(t, strings.HasPrefix(text, "🚨"))
	assert.Contains(t, text, "`m9`")
	assert.NotContains(t, text, "`m10`")
	assert.Contains(t, text, "and 3 more")
}
