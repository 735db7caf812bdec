// Package util provides shared utilities for logging, retries, rate
// limiting, and trading-session time arithmetic.
package util

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a structured logger using log/slog. Supported levels:
// "debug", "info", "warn", "error" (default "info"). Format is "json" or
// "text" (default "text").
func NewLogger(level, format string) *slog.Logger {
	return NewLoggerWriter(os.Stdout, level, format)
}

// NewLoggerWriter is NewLogger writing to w instead of stdout. The backtest
// daemon uses it to tee logs to a file.
func NewLoggerWriter(w io.Writer, level, format string) *slog.Logger {
	var slevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slevel = slog.LevelDebug
	case "info":
		slevel = slog.LevelInfo
	case "warn":
		slevel = slog.LevelWarn
	case "error":
		slevel = slog.LevelError
	default:
		slevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: slevel}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// SetDefault configures the provided logger as the default slog logger.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
