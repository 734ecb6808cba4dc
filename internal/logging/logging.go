// Package logging installs the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// ParseLevel maps a config level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds a handler for format: text, json, or pretty (colored
// console output)
func NewHandler(w io.Writer, level, format string) slog.Handler {
	lvl := ParseLevel(level)

	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case "pretty":
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(lvl),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
}

// Init installs the default logger writing to stdout
func Init(level, format string) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, level, format)))
}
