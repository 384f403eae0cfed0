// Package logger provides structured logging for the ward server.
// Every state transition the core makes should be traceable through this.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger provides structured logging with a fixed component attribute.
type Logger struct {
	base *slog.Logger
}

// NewLogger creates a text logger writing to stdout at info level.
func NewLogger() *Logger {
	return NewWithWriter(os.Stdout, slog.LevelInfo)
}

// NewWithWriter creates a logger writing to w at the given level.
func NewWithWriter(w io.Writer, level slog.Level) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{base: slog.New(h)}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return NewWithWriter(io.Discard, slog.LevelError+1)
}

// With returns a child logger tagged with the given component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{base: l.base.With("component", component)}
}

// Info logs informational messages.
func (l *Logger) Info(msg string, args ...any) {
	l.base.Info(msg, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, args ...any) {
	l.base.Warn(msg, args...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, args ...any) {
	l.base.Error(msg, args...)
}

// Debug logs high-frequency diagnostics (tick-level detail).
func (l *Logger) Debug(msg string, args ...any) {
	l.base.Debug(msg, args...)
}

// Event logs a specific game event for the session audit trail.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.base.Info("event", "type", eventType, "actor", actorID, "details", details)
}

// Slog exposes the underlying slog logger for libraries that accept one.
func (l *Logger) Slog() *slog.Logger {
	return l.base
}
