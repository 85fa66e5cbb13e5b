package toolchain

import (
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// CleanStep removes every cached source, build tree and dependency so the
// next steps start from scratch.
type CleanStep struct {
	stage.AlwaysApply
	paths []string
	tools Tools
}

// NewCleanStep creates a CleanStep removing paths.
func NewCleanStep(tools Tools, paths ...string) *CleanStep {
	return &CleanStep{paths: paths, tools: tools}
}

// ID returns the step identifier.
func (s *CleanStep) ID() stage.StepID {
	return stage.MustNewStepID("clean:all")
}

// Describe summarises the step.
func (s *CleanStep) Describe() string {
	return "cleaning all dependencies and previous built files"
}

// Apply removes the paths; missing ones are ignored.
func (s *CleanStep) Apply(ctx stage.RunContext) error {
	for _, path := range s.paths {
		ctx.Logger().Debug(ctx.Context(), "removing", ports.F("path", path))
		if err := s.tools.FS.RemoveAll(path); err != nil {
			return failure.Internal("cannot remove %s", path).WithUnderlying(err)
		}
	}
	return nil
}
