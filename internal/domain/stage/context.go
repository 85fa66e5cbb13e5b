package stage

import (
	"context"

	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// RunContext provides context for step execution (Check, Apply).
type RunContext struct {
	ctx    context.Context
	logger ports.Logger
}

// NewRunContext creates a new RunContext with the given context. The
// logger is taken from ctx, falling back to a no-op logger.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{
		ctx:    ctx,
		logger: logging.FromContext(ctx),
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// Logger returns the logger for this run.
func (r RunContext) Logger() ports.Logger {
	return r.logger
}

// WithLogger returns a new RunContext logging to logger.
func (r RunContext) WithLogger(logger ports.Logger) RunContext {
	return RunContext{
		ctx:    ports.ContextWithLogger(r.ctx, logger),
		logger: logger,
	}
}
