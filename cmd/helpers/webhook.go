package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/output"
	"github.com/zinc-sig/sntest/internal/settings"
	"github.com/zinc-sig/sntest/internal/webhook"
)

// WebhookEnvPrefix names the environment source of webhook configuration.
const WebhookEnvPrefix = "SNTEST_WEBHOOK"

// BuildWebhookConfig builds webhook configuration from all sources.
// Precedence: env < file < json < kv < direct flags
func BuildWebhookConfig(cfg *config.WebhookConfig, environ []string) (map[string]any, error) {
	webhookConf, err := settings.BuildMap(settings.Sources{
		EnvPrefix: WebhookEnvPrefix,
		File:      cfg.ConfigFile,
		JSON:      cfg.Config,
		KV:        cfg.ConfigKV,
	}, environ)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}

	// explicit flags win when they differ from their defaults
	if cfg.URL != "" {
		webhookConf["url"] = cfg.URL
	}
	if cfg.Method != "" && cfg.Method != "POST" {
		webhookConf["method"] = cfg.Method
	}
	if cfg.AuthType != "" && cfg.AuthType != webhook.AuthNone {
		webhookConf["auth_type"] = cfg.AuthType
	}
	if cfg.AuthToken != "" {
		webhookConf["auth_token"] = cfg.AuthToken
	}
	if cfg.Timeout != "" && cfg.Timeout != "30s" {
		webhookConf["timeout"] = cfg.Timeout
	}
	if cfg.Retries != 3 {
		webhookConf["retries"] = cfg.Retries
	}
	if cfg.RetryDelay != "" && cfg.RetryDelay != "1s" {
		webhookConf["retry_delay"] = cfg.RetryDelay
	}

	return webhookConf, nil
}

// ParseWebhookConfig converts the built configuration to webhook
// structures. Both results are nil when no URL is configured.
func ParseWebhookConfig(cfg *config.WebhookConfig, environ []string) (*webhook.Config, *webhook.RetryConfig, error) {
	configMap, err := BuildWebhookConfig(cfg, environ)
	if err != nil {
		return nil, nil, err
	}

	url, _ := configMap["url"].(string)
	if url == "" {
		return nil, nil, nil
	}

	timeout, err := durationValue(configMap, "timeout", 30*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook timeout duration: %w", err)
	}
	retryDelay, err := durationValue(configMap, "retry_delay", time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook retry delay: %w", err)
	}

	method, _ := configMap["method"].(string)
	if method == "" {
		method = "POST"
	}
	method = strings.ToUpper(method)
	switch method {
	case "POST", "PUT", "PATCH":
	default:
		return nil, nil, fmt.Errorf("invalid webhook method: %s (must be POST, PUT, or PATCH)", method)
	}

	authType, _ := configMap["auth_type"].(string)
	if authType == "" {
		authType = webhook.AuthNone
	}
	authToken, _ := configMap["auth_token"].(string)

	// JSON numbers decode as float64, key=value pairs as int
	maxRetries := 3
	switch r := configMap["retries"].(type) {
	case int:
		maxRetries = r
	case float64:
		maxRetries = int(r)
	}
	if maxRetries < 0 {
		return nil, nil, fmt.Errorf("webhook retries must not be negative, got %d", maxRetries)
	}

	webhookConfig := &webhook.Config{
		URL:       url,
		Method:    method,
		Timeout:   timeout,
		AuthType:  authType,
		AuthToken: authToken,
	}
	if err := webhookConfig.Validate(); err != nil {
		return nil, nil, err
	}

	retryConfig := &webhook.RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: retryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	return webhookConfig, retryConfig, nil
}

// durationValue reads a duration that may be a string ("5s") or a number
// of seconds.
func durationValue(m map[string]any, key string, def time.Duration) (time.Duration, error) {
	switch v := m[key].(type) {
	case nil:
		return def, nil
	case string:
		if v == "" {
			return def, nil
		}
		return settings.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

// SendWebhook delivers the report and records the delivery status in it.
// A failed delivery is logged and never fails the run.
func SendWebhook(ctx context.Context, cfg *webhook.Config, retry *webhook.RetryConfig, rep *output.Report, logger *slog.Logger) {
	if cfg == nil {
		return
	}

	client := webhook.NewClient(cfg, retry, logger)
	logger.Debug("sending webhook", slog.String("url", cfg.URL))

	if err := client.SendReport(ctx, rep); err != nil {
		logger.Warn("webhook delivery failed", slog.Any("error", err))
		rep.WebhookSent = false
		rep.WebhookError = err.Error()
		return
	}
	rep.WebhookSent = true
}
