// Package stage defines the contract shared by every toolchain preparation
// stage: a cheap presence check followed by an idempotent apply.
package stage

// Step represents an idempotent unit of toolchain preparation.
// Each step can check whether its artifact already exists and produce it.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Check determines the current status of this step.
	// Returns StatusSatisfied if no action needed, StatusNeedsApply if changes required.
	Check(ctx RunContext) (StepStatus, error)

	// Apply produces the step's artifact. It must leave nothing at the
	// artifact's final path unless it completed.
	Apply(ctx RunContext) error

	// Describe returns a short human-readable summary of what Apply does.
	Describe() string
}

// AlwaysApply is embedded by steps that have no presence marker and run
// on every invocation.
type AlwaysApply struct{}

// Check always reports StatusNeedsApply.
func (AlwaysApply) Check(RunContext) (StepStatus, error) {
	return StatusNeedsApply, nil
}
