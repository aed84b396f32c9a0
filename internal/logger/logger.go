// Package logger configures structured logging for the board services.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger from LOG_LEVEL and LOG_FORMAT.
//
// LOG_LEVEL: debug, info, warn, error (default: info)
// LOG_FORMAT: json, text (default: json)
func New() *slog.Logger {
	opts := &slog.HandlerOptions{Level: level()}

	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// SetDefault installs logger as the process-wide default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

func level() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
