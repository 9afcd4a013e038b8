package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/observability/logging"
	"foodsecurity-charts/internal/resilience/retry"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier posts run reports to a Slack Incoming Webhook.
type SlackNotifier struct {
	config     SlackConfig
	httpClient *http.Client
	retry      retry.Config
}

// NewSlackNotifier creates a notifier that makes at most two attempts per report.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retry: retry.Config{
			MaxAttempts:  2,
			InitialDelay: 5 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}
}

// SlackWebhookPayload is the Block Kit body sent to the webhook.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block ("section" or "context").
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	// Slack Block Kit limits
	maxSectionTextLength = 3000
	maxContextTextLength = 2000
	maxFallbackLength    = 150

	slackTruncationSuffix = "..."
)

// buildBlockKitPayload renders a report as a section listing every chart (or the
// failure) and a context line with the run id, start time and duration.
func (s *SlackNotifier) buildBlockKitPayload(report *entity.RunReport) SlackWebhookPayload {
	var fallback string
	var section strings.Builder
	if report.Succeeded() {
		fallback = fmt.Sprintf("Chart update succeeded: %d charts, %d rows", len(report.Charts), report.Rows())
		section.WriteString("*Chart update succeeded* :white_check_mark:\n")
	} else {
		fallback = fmt.Sprintf("Chart update failed at %s", report.FailedChart)
		section.WriteString(fmt.Sprintf("*Chart update failed at `%s`* :x:\n%s\n",
			report.FailedChart, logging.SanitizeError(report.Err)))
	}
	for _, c := range report.Charts {
		section.WriteString(fmt.Sprintf("\n• `%s` %d rows in %s", c.Name, c.Rows, c.Duration.Round(time.Millisecond)))
	}

	contextText := fmt.Sprintf("run %s • %s • %s",
		report.RunID, report.StartedAt.UTC().Format(time.RFC3339), report.Duration.Round(time.Second))

	return SlackWebhookPayload{
		Text: truncate(fallback, maxFallbackLength, slackTruncationSuffix),
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: truncate(section.String(), maxSectionTextLength, slackTruncationSuffix)},
			},
			{
				Type:     "context",
				Elements: []SlackTextObject{{Type: "mrkdwn", Text: truncate(contextText, maxContextTextLength, slackTruncationSuffix)}},
			},
		},
	}
}

// sendWebhookRequest posts one payload. Non-2xx responses become *retry.HTTPError,
// with the Retry-After hint of a 429.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, report *entity.RunReport) error {
	jsonData, err := json.Marshal(s.buildBlockKitPayload(report))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &retry.HTTPError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Slack webhook: %s", truncate(string(body), 200, slackTruncationSuffix)),
		RetryAfter: extractRetryAfter(resp, body),
	}
}

// NotifyRun posts the run report. Server errors, rate limits and network failures are
// retried once; each notification gets its own request_id.
func (s *SlackNotifier) NotifyRun(ctx context.Context, report *entity.RunReport) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	logger := logging.FromContext(ctx).With(slog.String("request_id", requestID))

	logger.Info("Starting Slack notification",
		slog.String("run_id", report.RunID),
		slog.Bool("succeeded", report.Succeeded()))

	err := retry.WithBackoff(ctx, s.retry, func() error {
		return s.sendWebhookRequest(ctx, report)
	})
	if err != nil {
		logger.Error("Slack notification failed", slog.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("slack notification: %w", err)
	}
	logger.Info("Slack notification successful")
	return nil
}
