package toolchain

import (
	"path/filepath"

	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// UnpackStep extracts an archive and moves its root directory to the
// canonical target. Extraction happens in a staging directory next to the
// target, so the target appears only once it is complete.
type UnpackStep struct {
	spec  config.ArchiveSpec
	tools Tools
}

// NewUnpackStep creates an UnpackStep.
func NewUnpackStep(spec config.ArchiveSpec, tools Tools) *UnpackStep {
	return &UnpackStep{spec: spec, tools: tools}
}

// ID returns the step identifier.
func (s *UnpackStep) ID() stage.StepID {
	return stage.MustNewStepID("unpack:archive:" + s.spec.Name)
}

// Describe summarises the step.
func (s *UnpackStep) Describe() string {
	return "extracting " + s.spec.FileName()
}

// Check trusts an existing target as complete.
func (s *UnpackStep) Check(_ stage.RunContext) (stage.StepStatus, error) {
	if s.tools.FS.IsDir(s.spec.Target) {
		return stage.StatusSatisfied, nil
	}
	return stage.StatusNeedsApply, nil
}

// Apply extracts into staging and renames the archive root into place.
func (s *UnpackStep) Apply(ctx stage.RunContext) error {
	fsys := s.tools.FS
	if !fsys.IsFile(s.spec.Archive) {
		return failure.NotFound("archive", s.spec.Archive)
	}

	parent := filepath.Dir(s.spec.Target)
	if err := fsys.MkdirAll(parent, 0o755); err != nil {
		return failure.Internal("cannot create %s", parent).WithUnderlying(err)
	}
	staging, err := fsys.MkdirTemp(parent, ".unpack-"+s.spec.Name+"-*")
	if err != nil {
		return failure.Internal("cannot create staging directory").WithUnderlying(err)
	}
	defer func() {
		if err := fsys.RemoveAll(staging); err != nil {
			ctx.Logger().Warn(ctx.Context(), "cannot remove staging directory", ports.F("dir", staging), ports.Err(err))
		}
	}()

	if err := s.tools.Unarchiver.Unpack(ctx.Context(), s.spec.Archive, staging); err != nil {
		return failure.Malformed("cannot extract %s", s.spec.FileName()).WithUnderlying(err)
	}

	root, err := s.archiveRoot(staging)
	if err != nil {
		return err
	}
	if err := fsys.Rename(root, s.spec.Target); err != nil {
		return failure.Internal("cannot move %s into place", filepath.Base(root)).
			WithContext(s.spec.Target).WithUnderlying(err)
	}
	return nil
}

// archiveRoot finds the extracted root: the expected directory name, or
// the only top-level directory when the archive uses another name.
func (s *UnpackStep) archiveRoot(staging string) (string, error) {
	fsys := s.tools.FS
	if s.spec.UnpackDir != "" {
		if expected := filepath.Join(staging, s.spec.UnpackDir); fsys.IsDir(expected) {
			return expected, nil
		}
	}

	names, err := fsys.ReadDirNames(staging)
	if err != nil {
		return "", failure.Internal("cannot list staging directory").WithUnderlying(err)
	}
	if len(names) == 1 && fsys.IsDir(filepath.Join(staging, names[0])) {
		return filepath.Join(staging, names[0]), nil
	}
	return "", failure.Malformed("%s has no root directory %q", s.spec.FileName(), s.spec.UnpackDir)
}
