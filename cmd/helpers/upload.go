package helpers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/output"
	"github.com/zinc-sig/sntest/internal/settings"
	"github.com/zinc-sig/sntest/internal/upload"
)

// UploadEnvPrefix names the environment source of upload configuration.
const UploadEnvPrefix = "SNTEST_UPLOAD_CONFIG"

// BuildUploadConfig builds upload configuration from all sources
func BuildUploadConfig(cfg *config.UploadConfig, environ []string) (map[string]any, error) {
	result, err := settings.BuildMap(settings.Sources{
		EnvPrefix: UploadEnvPrefix,
		File:      cfg.ConfigFile,
		JSON:      cfg.Config,
		KV:        cfg.ConfigKV,
	}, environ)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload config: %w", err)
	}
	return result, nil
}

// SetupUploadProvider creates and configures an upload provider. It returns
// nil when no provider was requested.
func SetupUploadProvider(cfg *config.UploadConfig, environ []string) (upload.Provider, map[string]any, error) {
	if cfg.Provider == "" {
		return nil, nil, nil
	}

	uploadConf, err := BuildUploadConfig(cfg, environ)
	if err != nil {
		return nil, nil, err
	}

	provider, err := upload.Setup(cfg.Provider, uploadConf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up upload provider: %w", err)
	}
	return provider, uploadConf, nil
}

// UploadReport uploads the run's artifacts under <run id>/. Failures are
// logged; they never change the run outcome.
func UploadReport(ctx context.Context, provider upload.Provider, rep *output.Report, logger *slog.Logger) {
	if provider == nil {
		return
	}

	artifacts, err := Artifacts(rep)
	if err != nil {
		logger.Warn("failed to render artifacts", slog.Any("error", err))
		return
	}

	if err := upload.UploadRun(ctx, provider, rep.RunID, artifacts); err != nil {
		logger.Warn("upload failed", slog.String("provider", provider.Name()), slog.Any("error", err))
		return
	}

	for _, a := range artifacts {
		logger.Debug("uploaded", slog.String("provider", provider.Name()), slog.String("path", upload.RunPath(rep.RunID, a.Name)))
	}
}
