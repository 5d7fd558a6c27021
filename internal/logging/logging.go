// Package logging sets up the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
)

// New returns a text logger writing to stderr. Verbose enables debug level.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// WithComponent tags a logger with the component emitting the records.
func WithComponent(log *slog.Logger, name string) *slog.Logger {
	return log.With("component", name)
}
