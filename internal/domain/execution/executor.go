package execution

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Executor runs steps strictly in order and stops at the first failure.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute checks each step and applies those that need it. It returns the
// results of every step that ran, ending with the failed one if any, and
// that step's error.
func (e *Executor) Execute(ctx context.Context, steps ...stage.Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	runCtx := stage.NewRunContext(ctx)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := e.executeStep(runCtx, step)
		results = append(results, result)
		if result.Status() == stage.StatusFailed {
			return results, result.Error()
		}
	}

	return results, nil
}

// executeStep runs Check then, when needed, Apply for one step.
func (e *Executor) executeStep(ctx stage.RunContext, step stage.Step) StepResult {
	stepID := step.ID()
	logger := ctx.Logger().With(ports.F("step", stepID.String()))

	status, err := step.Check(ctx)
	if err != nil {
		logger.Error(ctx.Context(), "step check failed", ports.Err(err))
		return NewStepResult(stepID, stage.StatusFailed, attribute(stepID, err))
	}

	if status == stage.StatusSatisfied {
		logger.Debug(ctx.Context(), "step already satisfied")
		return NewStepResult(stepID, stage.StatusSatisfied, nil)
	}

	logger.Info(ctx.Context(), step.Describe())
	start := time.Now()
	err = step.Apply(ctx.WithLogger(logger))
	duration := time.Since(start)

	if err != nil {
		logger.Error(ctx.Context(), "step failed", ports.Err(err), ports.F("duration", duration))
		return NewStepResult(stepID, stage.StatusFailed, attribute(stepID, err)).WithDuration(duration)
	}

	logger.Debug(ctx.Context(), "step applied", ports.F("duration", duration))
	return NewStepResult(stepID, stage.StatusApplied, nil).WithDuration(duration)
}

// attribute names the failing stage on errors that do not already carry one.
func attribute(stepID stage.StepID, err error) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		if fe == err && fe.Op == "" {
			return fe.WithOp(stepID.Stage())
		}
		return err
	}
	return &failure.Error{
		Kind:       failure.KindInternal,
		Op:         stepID.Stage(),
		Message:    "step " + stepID.String() + " failed",
		Underlying: err,
	}
}
