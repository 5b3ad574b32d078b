package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
)

// maxListedFailures caps how many failed emails one summary lists
const maxListedFailures = 10

// SlackRepository posts run summaries to a Slack incoming webhook
type SlackRepository struct {
	logger     logger.Logger
	webhookURL string
	client     *http.Client
}

// NewSlackRepository creates a new Slack repository
func NewSlackRepository(webhookURL string, logger logger.Logger) repository.NotificationRepository {
	return &SlackRepository{
		logger:     logger,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type slackMessage struct {
	Text string `json:"text"`
}

// NotifyRunSummary sends the summary of one sync run
func (r *SlackRepository) NotifyRunSummary(ctx context.Context, summary *entity.RunSummary) error {
	jsonData, err := json.Marshal(slackMessage{Text: FormatRunSummary(summary)})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	r.logger.Debug("Run summary sent to Slack", "run_id", summary.RunID)
	return nil
}

// FormatRunSummary renders the summary as Slack mrkdwn
func FormatRunSummary(s *entity.RunSummary) string {
	var b strings.Builder

	icon := "✅"
	switch {
	case s.FullyFailed():
		icon = "🚨"
	case s.Failed > 0:
		icon = "⚠️"
	}
	title := "Booking calendar sync"
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&b, "%s *%s* run `%s` finished in %s\n", icon, title, s.RunID, s.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "Emails: %d | processed %d | promotional %d | no booking info %d | unsupported %d | failed %d\n",
		s.Emails, s.Processed, s.Promotional, s.NoFlightInfo+s.NoCarShareInfo, s.Unsupported, s.Failed)
	fmt.Fprintf(&b, "Calendar: created %d | updated %d | replaced %d | deleted %d | skipped %d",
		s.Created, s.Updated, s.Replaced, s.Deleted, s.Skipped)
	if s.IllegalTransitions > 0 {
		fmt.Fprintf(&b, "\nIllegal status transitions: %d", s.IllegalTransitions)
	}

	if len(s.Failures) > 0 {
		b.WriteString("\n*Failures:*")
		for i, f := range s.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(&b, "\n…and %d more", len(s.Failures)-maxListedFailures)
				break
			}
			fmt.Fprintf(&b, "\n• `%s` %s: %s", f.EmailID, f.Subject, f.Error)
		}
	}
	return b.String()
}
