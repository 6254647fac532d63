package internal

import (
	"io"
	"log/slog"
)

// NewLogger builds the application logger. Development gets
// human-readable text; every other environment emits JSON for the log
// collector. Unknown level strings fall back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", "jejak"))
}
