// Package logging builds the structured slog logger used by the daemon and CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joshp123/findmy/internal/config"
)

// New creates a logger from the logging config section. Output is JSON
// unless format is "text"; every record carries service and version attrs.
func New(cfg config.LoggingConfig, version string) *slog.Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "findmy"),
		slog.String("version", version),
	})
	return slog.New(handler)
}

// Default is used before config is loaded.
func Default() *slog.Logger {
	return New(config.LoggingConfig{
		Level:  config.DefaultLogLevel,
		Format: config.DefaultLogFormat,
		Output: "stderr",
	}, "dev")
}

// parseLevel defaults to info when the level is unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
