// Package logging builds the slog loggers used across the interpreter.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger writing text records at level or above to w.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Default is the logger used when a component is given none. It reports
// errors only, as JSON on stderr.
func Default() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
