package stage

// StepStatus represents the current state of a step.
type StepStatus string

const (
	// StatusSatisfied indicates the step's artifact is already present.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step needs to be applied.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusApplied indicates the step ran and completed.
	StatusApplied StepStatus = "applied"
	// StatusFailed indicates the step failed during check or apply.
	StatusFailed StepStatus = "failed"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction returns true if this status requires execution.
func (s StepStatus) NeedsAction() bool {
	return s == StatusNeedsApply
}

// IsTerminal returns true if this status represents a final state.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusSatisfied, StatusApplied, StatusFailed:
		return true
	case StatusNeedsApply:
		return false
	}
	return false
}

// Succeeded returns true if the step's artifact exists after the run.
func (s StepStatus) Succeeded() bool {
	return s == StatusSatisfied || s == StatusApplied
}
