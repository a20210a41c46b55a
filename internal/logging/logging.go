// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog level. Unknown names fall back to def.
func ParseLevel(name string, def slog.Level) slog.Level {
	switch strings.ToLower(name) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	default:
		return def
	}
}

// New builds a logger writing to w in the given format ("json" or "text").
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init installs the server's default logger and returns it.
func Init(level, format string) *slog.Logger {
	logger := New(os.Stderr, ParseLevel(level, slog.LevelInfo), format)
	slog.SetDefault(logger)
	return logger
}

// InitCLI installs the terminal client's logger. It reads LOG_LEVEL and stays quiet
// below error by default so log lines never interleave with the UI.
func InitCLI() {
	level := slog.LevelError
	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = ParseLevel(l, slog.LevelError)
	}
	slog.SetDefault(New(os.Stderr, level, "text"))
}
