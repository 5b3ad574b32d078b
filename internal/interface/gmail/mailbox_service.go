package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/utils"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// MailboxService reads booking mail from Gmail and tracks processed
// messages with a user label
type MailboxService struct {
	gmailService *gmail.Service
	label        string
	logger       logger.Logger

	mu      sync.Mutex
	labelID string
}

// NewGmailClient creates a Gmail API client from an OAuth token source
func NewGmailClient(ctx context.Context, tokenSource oauth2.TokenSource) (*gmail.Service, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	return service, nil
}

// NewMailboxService creates a new Gmail mailbox
func NewMailboxService(service *gmail.Service, processedLabel string, logger logger.Logger) repository.MailboxRepository {
	return &MailboxService{
		gmailService: service,
		label:        processedLabel,
		logger:       logger,
	}
}

// ListUnprocessed lists and fetches every matching message
func (s *MailboxService) ListUnprocessed(ctx context.Context, senderDomains []string, window entity.FetchWindow) ([]*entity.Email, error) {
	query := BuildQuery(senderDomains, s.label, window)
	s.logger.Info("Querying Gmail", "query", query)

	var ids []string
	err := s.gmailService.Users.Messages.List(user).Q(query).Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if len(ids) == 0 {
		s.logger.Debug("No new messages found")
		return nil, nil
	}

	emails := make([]*entity.Email, 0, len(ids))
	var fetchErr entity.FetchError
	for _, id := range ids {
		fullMsg, err := s.gmailService.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("failed to get message %s: %w", id, err)
			}
			s.logger.Error("Failed to get message, skipping it", "message_id", id, "error", err)
			fetchErr.Failures = append(fetchErr.Failures, entity.MessageFetchFailure{ID: id, Err: err})
			continue
		}
		emails = append(emails, convertToEmail(fullMsg))
	}

	s.logger.Info("Gmail fetch completed", "messages", len(emails), "failed", len(fetchErr.Failures))
	if len(fetchErr.Failures) > 0 {
		return emails, &fetchErr
	}
	return emails, nil
}

// MarkProcessed adds the processed label to the message
func (s *MailboxService) MarkProcessed(ctx context.Context, emailID string) error {
	labelID, err := s.processedLabelID(ctx)
	if err != nil {
		return err
	}

	req := &gmail.ModifyMessageRequest{AddLabelIds: []string{labelID}}
	if _, err := s.gmailService.Users.Messages.Modify(user, emailID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to label message %s: %w", emailID, err)
	}
	return nil
}

// processedLabelID resolves the label, creating it on first use
func (s *MailboxService) processedLabelID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labelID != "" {
		return s.labelID, nil
	}

	labels, err := s.gmailService.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list labels: %w", err)
	}
	for _, l := range labels.Labels {
		if l.Name == s.label {
			s.labelID = l.Id
			return s.labelID, nil
		}
	}

	created, err := s.gmailService.Users.Labels.Create(user, &gmail.Label{
		Name:                  s.label,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create label %s: %w", s.label, err)
	}
	s.logger.Info("Created processed label", "label", s.label, "label_id", created.Id)
	s.labelID = created.Id
	return s.labelID, nil
}

// BuildQuery renders the Gmail search for unprocessed booking mail
func BuildQuery(senderDomains []string, processedLabel string, window entity.FetchWindow) string {
	domains := append([]string(nil), senderDomains...)
	sort.Strings(domains)

	var parts []string
	if len(domains) > 0 {
		from := make([]string, len(domains))
		for i, d := range domains {
			from[i] = "from:" + d
		}
		parts = append(parts, "{"+strings.Join(from, " ")+"}")
	}
	if processedLabel != "" {
		parts = append(parts, "-label:"+processedLabel)
	}
	if !window.After.IsZero() {
		parts = append(parts, "after:"+queryTime(window.After, window.DateOnly))
	}
	if !window.Before.IsZero() {
		parts = append(parts, "before:"+queryTime(window.Before, window.DateOnly))
	}
	return strings.Join(parts, " ")
}

func queryTime(t time.Time, dateOnly bool) string {
	if dateOnly {
		return t.Format("2006/01/02")
	}
	return fmt.Sprintf("%d", t.Unix())
}

// convertToEmail converts Gmail message to domain entity
func convertToEmail(msg *gmail.Message) *entity.Email {
	email := &entity.Email{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Labels:     msg.LabelIds,
		ReceivedAt: time.UnixMilli(msg.InternalDate),
	}
	if msg.Payload == nil {
		email.Body = msg.Snippet
		return email
	}

	// Extract headers
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "from":
			email.From = header.Value
		case "to":
			email.To = header.Value
		case "subject":
			email.Subject = header.Value
		}
	}

	walkParts(msg.Payload, email)

	if email.Body == "" && email.HTMLBody != "" {
		email.Body = utils.CleanHTMLText(email.HTMLBody)
	}
	if email.Body == "" {
		email.Body = msg.Snippet
	}
	return email
}

// walkParts keeps the first text/plain and text/html bodies found
func walkParts(part *gmail.MessagePart, email *entity.Email) {
	if part == nil {
		return
	}
	if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		data := decodeBody(part.Body.Data)
		switch {
		case strings.HasPrefix(part.MimeType, "text/html"):
			if email.HTMLBody == "" {
				email.HTMLBody = data
			}
		case strings.HasPrefix(part.MimeType, "text/plain"), part.MimeType == "":
			if email.Body == "" {
				email.Body = data
			}
		}
	}
	for _, child := range part.Parts {
		walkParts(child, email)
	}
}

func decodeBody(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}
