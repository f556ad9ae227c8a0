package helpers

import (
	"context"
	"log/slog"

	"github.com/zinc-sig/sntest/internal/history"
	"github.com/zinc-sig/sntest/internal/output"
)

// RecordHistory compares the report with the previous recorded run, stores
// the regressions in the report and then records it. Errors are logged.
func RecordHistory(ctx context.Context, path string, rep *output.Report, logger *slog.Logger) {
	if path == "" {
		return
	}

	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history unavailable", slog.String("path", path), slog.Any("error", err))
		return
	}
	defer func() { _ = store.Close() }()

	prev, err := store.Previous(ctx)
	if err != nil {
		logger.Warn("failed to read previous run", slog.Any("error", err))
	} else {
		rep.Regressions = history.Regressions(prev, rep)
	}

	if err := store.Record(ctx, rep); err != nil {
		logger.Warn("failed to record run", slog.Any("error", err))
	}
}
