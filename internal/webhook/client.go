package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zinc-sig/sntest/internal/output"
)

// EventRunFinished is sent with every run report.
const EventRunFinished = "run.finished"

// Client represents a webhook HTTP client
type Client struct {
	httpClient  *http.Client
	config      *Config
	retryConfig *RetryConfig
	logger      *slog.Logger
}

// NewClient creates a new webhook client. config is not modified.
func NewClient(config *Config, retryConfig *RetryConfig, logger *slog.Logger) *Client {
	cfg := *config
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second, // per request
		},
		config:      &cfg,
		retryConfig: retryConfig,
		logger:      logger.With(slog.String("component", "webhook")),
	}
}

// SendReport delivers a run report. Local webhook status fields are cleared
// from the payload.
func (c *Client) SendReport(ctx context.Context, report *output.Report) error {
	payload := *report
	payload.WebhookSent = false
	payload.WebhookError = ""
	return c.Send(ctx, &payload)
}

// Send sends the payload to the webhook with retry logic
func (c *Client) Send(ctx context.Context, payload any) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	// overall deadline across all attempts
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var (
		lastErr error
		wait    time.Duration
	)

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt, c.retryConfig)
			if wait > delay {
				delay = wait
			}
			c.logger.Debug("retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_retries", c.retryConfig.MaxRetries),
				slog.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("webhook timeout after %d attempts: %w", attempt, ctx.Err())
			}
		}

		statusCode, header, err := c.sendRequest(ctx, jsonPayload)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			c.logger.Debug("sent", slog.String("url", c.config.URL), slog.Int("status", statusCode))
			return nil
		}

		if err != nil {
			lastErr = fmt.Errorf("attempt %d failed: %w", attempt+1, err)
		} else {
			lastErr = fmt.Errorf("attempt %d failed with status %d", attempt+1, statusCode)
		}

		if statusCode > 0 && !isRetryableStatus(statusCode) {
			c.logger.Debug("non-retryable status, giving up", slog.Int("status", statusCode))
			return lastErr
		}
		wait = retryAfter(header, c.retryConfig.MaxDelay)
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", c.retryConfig.MaxRetries+1, lastErr)
}

func (c *Client) sendRequest(ctx context.Context, payload []byte) (int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, c.config.Method, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, EventRunFinished)
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	switch c.config.AuthType {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case AuthAPIKey:
		req.Header.Set("X-API-Key", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, resp.Header, nil
}
