// Package logging provides implementations of the ports.Logger interface:
// a ConsoleLogger for text or JSON streams, a TeeLogger that fans entries
// out to several loggers, and a NopLogger.
package logging

import (
	"context"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// NopLogger is a no-op logger that discards all messages.
type NopLogger struct {
	level ports.Level
}

// NewNopLogger creates a new no-op logger.
func NewNopLogger() *NopLogger {
	return &NopLogger{level: ports.LevelInfo}
}

// Debug does nothing.
func (l *NopLogger) Debug(_ context.Context, _ string, _ ...ports.Field) {}

// Info does nothing.
func (l *NopLogger) Info(_ context.Context, _ string, _ ...ports.Field) {}

// Warn does nothing.
func (l *NopLogger) Warn(_ context.Context, _ string, _ ...ports.Field) {}

// Error does nothing.
func (l *NopLogger) Error(_ context.Context, _ string, _ ...ports.Field) {}

// With returns itself.
func (l *NopLogger) With(_ ...ports.Field) ports.Logger {
	return l
}

// Level returns the log level.
func (l *NopLogger) Level() ports.Level {
	return l.level
}

// SetLevel sets the log level.
func (l *NopLogger) SetLevel(level ports.Level) {
	l.level = level
}

// FromContext returns the context's logger, or a NopLogger when none is set.
func FromContext(ctx context.Context) ports.Logger {
	if logger := ports.LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return NewNopLogger()
}

// Ensure NopLogger implements Logger.
var _ ports.Logger = (*NopLogger)(nil)
