package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// TeeLogger forwards every entry to each of its sinks. Each sink keeps its
// own level, so a debug-level run log and an info-level console can share
// one logger.
type TeeLogger struct {
	sinks []ports.Logger
}

// NewTeeLogger creates a TeeLogger over sinks.
func NewTeeLogger(sinks ...ports.Logger) *TeeLogger {
	return &TeeLogger{sinks: sinks}
}

// Debug logs a debug message to every sink.
func (t *TeeLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Debug(ctx, msg, fields...)
	}
}

// Info logs an informational message to every sink.
func (t *TeeLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Info(ctx, msg, fields...)
	}
}

// Warn logs a warning to every sink.
func (t *TeeLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Warn(ctx, msg, fields...)
	}
}

// Error logs an error to every sink.
func (t *TeeLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Error(ctx, msg, fields...)
	}
}

// With returns a TeeLogger whose sinks all carry fields.
func (t *TeeLogger) With(fields ...ports.Field) ports.Logger {
	sinks := make([]ports.Logger, len(t.sinks))
	for i, s := range t.sinks {
		sinks[i] = s.With(fields...)
	}
	return &TeeLogger{sinks: sinks}
}

// Level returns the most verbose level among the sinks.
func (t *TeeLogger) Level() ports.Level {
	level := ports.LevelError
	for _, s := range t.sinks {
		if s.Level() < level {
			level = s.Level()
		}
	}
	return level
}

// SetLevel sets the level of every sink.
func (t *TeeLogger) SetLevel(level ports.Level) {
	for _, s := range t.sinks {
		s.SetLevel(level)
	}
}

// OpenRunLog creates (truncating) the run log at path and returns a
// debug-level text logger writing to it, plus the file to close.
func OpenRunLog(path string) (*ConsoleLogger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run log: %w", err)
	}
	logger := NewConsoleLogger(
		WithOutput(f),
		WithLevel(ports.LevelDebug),
		WithTimestamp(true),
		WithLevelLabel(true),
	)
	return logger, f, nil
}

// Ensure TeeLogger implements Logger.
var _ ports.Logger = (*TeeLogger)(nil)
