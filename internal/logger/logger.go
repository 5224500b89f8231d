// Package logger provides the structured logging this library uses for
// its own diagnostics: reader restarts and reader decode/IO failures.
// Everything else is the caller's concern.
package logger

import (
	"log/slog"
	"os"
)

// Field keys used consistently across every log line this library emits.
const (
	KeySessionID = "session_id"
	KeyInvokeID  = "invoke_id"
	KeyComponent = "component"
	KeyAddr      = "addr"
	KeyHandle    = "handle"
)

// New returns a slog.Logger writing text to stderr at the given level,
// scoped to component (e.g. "reader", "client").
func New(component string, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(KeyComponent, component)
}

// Discard returns a logger that drops every record, the default when a
// caller does not supply one via WithLogger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
