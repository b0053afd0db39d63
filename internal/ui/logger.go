// Package ui provides terminal output and logging for the vectable CLI.
package ui

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/hupe1980/vectable"
)

// InitLogger initializes the charm logger with default settings.
func InitLogger() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	log.SetReportCaller(false)
	log.SetReportTimestamp(false)
}

// SetDebug enables debug logging.
func SetDebug(enabled bool) {
	if enabled {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// LibraryLogger returns the logger handed to the vectable library. Text
// output goes through a charm logger, which is also a slog.Handler; json
// output uses slog's JSON handler.
func LibraryLogger(level slog.Level, format string) *vectable.Logger {
	if format == "json" {
		return vectable.NewJSONLogger(level)
	}
	h := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.Level(level),
		ReportTimestamp: true,
		Prefix:          "vectable",
	})
	return vectable.NewLogger(h)
}
