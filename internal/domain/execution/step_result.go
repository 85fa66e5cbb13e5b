// Package execution runs preparation steps in order and records what each did.
package execution

import (
	"time"

	"github.com/felixgeelhaar/astforge/internal/domain/stage"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   stage.StepID
	status   stage.StepStatus
	err      error
	duration time.Duration
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID stage.StepID, status stage.StepStatus, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() stage.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() stage.StepStatus {
	return r.status
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long Apply took; zero for satisfied steps.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Success returns true if the step's artifact exists after the run.
func (r StepResult) Success() bool {
	return r.status.Succeeded()
}

// Applied returns true if the step did work in this run.
func (r StepResult) Applied() bool {
	return r.status == stage.StatusApplied
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}
