package helpers

import (
	"io"
	"log/slog"
)

// NewLogger returns the diagnostic logger. Debug records are shown with
// --trace only.
func NewLogger(w io.Writer, trace bool) *slog.Logger {
	level := slog.LevelInfo
	if trace {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
