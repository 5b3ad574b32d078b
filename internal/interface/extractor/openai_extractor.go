package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/internal/domain/repository"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/metrics"
	"booking-calendar-sync/pkg/retry"
	"booking-calendar-sync/pkg/utils"

	openai "github.com/sashabaranov/go-openai"
)

const (
	temperature = 0.1
	maxTokens   = 2000
	// emails longer than this are cut before prompting
	maxContentRunes = 12000
)

// fallbackZone localizes timestamps when no airport zone is known
var fallbackZone = mustLoadLocation("Asia/Tokyo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// OpenAIExtractor implements BookingExtractor with chat completions
type OpenAIExtractor struct {
	client   *openai.Client
	model    string
	airports repository.AirportRepository
	metrics  *metrics.Metrics
	logger   logger.Logger
	policy   retry.Policy
}

// NewOpenAIClient creates a chat client. baseURL may be empty.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAIExtractor creates a new extractor. airports and metrics may be nil.
func NewOpenAIExtractor(client *openai.Client, model string, airports repository.AirportRepository, m *metrics.Metrics, logger logger.Logger) *OpenAIExtractor {
	return &OpenAIExtractor{
		client:   client,
		model:    model,
		airports: airports,
		metrics:  m,
		logger:   logger,
		policy:   retry.DefaultPolicy,
	}
}

// ExtractFlight extracts a flight booking from the email
func (e *OpenAIExtractor) ExtractFlight(ctx context.Context, email *entity.Email) (*entity.FlightBooking, error) {
	content, err := e.complete(ctx, entity.CategoryFlight, flightSystemPrompt, userPrompt(email, ""))
	if err != nil {
		return nil, err
	}

	var dto flightDTO
	if err := decodeReply(content, &dto); err != nil {
		return nil, err
	}

	booking, err := e.toFlightBooking(ctx, dto)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracted flight booking",
		"email_id", email.ID,
		"confirmation_code", booking.ConfirmationCode,
		"booking_reference", booking.BookingReference,
		"outbound_segments", len(booking.OutboundSegments),
		"return_segments", len(booking.ReturnSegments))
	return booking, nil
}

// ExtractCarShare extracts a car-share reservation from the email
func (e *OpenAIExtractor) ExtractCarShare(ctx context.Context, email *entity.Email, provider entity.Provider) (*entity.CarShareBooking, error) {
	content, err := e.complete(ctx, entity.CategoryCarShare, carShareSystemPrompt, userPrompt(email, "Provider: "+string(provider)+"\n"))
	if err != nil {
		return nil, err
	}

	var dto carShareDTO
	if err := decodeReply(content, &dto); err != nil {
		return nil, err
	}

	booking, err := toCarShareBooking(dto, provider)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracted car-share booking",
		"email_id", email.ID,
		"booking_reference", booking.BookingReference,
		"provider", string(booking.Provider),
		"status", string(booking.Status),
		"station", booking.Station.Name)
	return booking, nil
}

func userPrompt(email *entity.Email, extra string) string {
	body := email.Body
	if body == "" && email.HTMLBody != "" {
		body = utils.CleanHTMLText(email.HTMLBody)
	}
	return fmt.Sprintf(userPromptTemplate, email.Subject, extra, utils.Truncate(body, maxContentRunes))
}

// complete sends one chat completion, retrying throttling and server errors
func (e *OpenAIExtractor) complete(ctx context.Context, cat entity.Category, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var resp openai.ChatCompletionResponse
	err := retry.Do(ctx, e.policy, func() error {
		var err error
		resp, err = e.client.CreateChatCompletion(ctx, req)
		return err
	}, isRetryableAPIError, func(err error, wait time.Duration) {
		e.logger.Warn("Retrying chat completion", "error", err, "wait", wait.String())
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if e.metrics != nil {
		e.metrics.ExtractionTokens.WithLabelValues(cat.String(), "prompt").Add(float64(resp.Usage.PromptTokens))
		e.metrics.ExtractionTokens.WithLabelValues(cat.String(), "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	if len(resp.Choices) == 0 {
		return "", &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo, Detail: "empty completion"}
	}
	e.logger.Debug("Chat completion reply", "content", utils.Truncate(resp.Choices[0].Message.Content, 500))
	return resp.Choices[0].Message.Content, nil
}

func isRetryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return false
}

// decodeReply strips code fences and decodes the JSON reply. A null or
// empty reply means the email had no booking.
func decodeReply(content string, v any) error {
	content = stripFences(content)
	if content == "" || strings.EqualFold(content, "null") {
		return &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo}
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return &entity.ExtractionFailure{Reason: entity.ReasonNoBookingInfo, Detail: "unparseable reply: " + err.Error()}
	}
	return nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
