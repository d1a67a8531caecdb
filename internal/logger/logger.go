// Package logger configures the process-wide slog logger. Records go to
// stderr and, when a log file is configured, to that file as well.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cognicore/lexfreq/pkg/lexfreq/config"
)

// Setup installs the default logger and returns a closer for the log file.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f
	}
	slog.SetDefault(slog.New(NewHandler(out, cfg.Level, cfg.Format)))
	return closer, nil
}

// NewHandler builds a text or JSON handler at the given level.
func NewHandler(w io.Writer, level string, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
