package toolchain

import (
	"path/filepath"

	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// partSuffix marks a download in progress.
const partSuffix = ".part"

// SignatureChecker authenticates a downloaded archive.
type SignatureChecker interface {
	Verify(ctx stage.RunContext, archive, signature string) error
}

// FetchStep downloads one archive into the cache. A signed archive is
// verified before it is moved to its cache path, so the presence of that
// file means it was both fully transferred and trusted.
type FetchStep struct {
	spec     config.ArchiveSpec
	tools    Tools
	verifier SignatureChecker
}

// NewFetchStep creates a FetchStep. verifier may be nil for unsigned archives.
func NewFetchStep(spec config.ArchiveSpec, tools Tools, verifier SignatureChecker) *FetchStep {
	return &FetchStep{spec: spec, tools: tools, verifier: verifier}
}

// ID returns the step identifier.
func (s *FetchStep) ID() stage.StepID {
	return stage.MustNewStepID("fetch:archive:" + s.spec.Name)
}

// Describe summarises the step.
func (s *FetchStep) Describe() string {
	return "downloading " + s.spec.FileName()
}

// Check reports whether the archive is already cached.
func (s *FetchStep) Check(_ stage.RunContext) (stage.StepStatus, error) {
	if s.tools.FS.IsFile(s.spec.Archive) {
		return stage.StatusSatisfied, nil
	}
	return stage.StatusNeedsApply, nil
}

// Apply downloads, verifies and publishes the archive.
func (s *FetchStep) Apply(ctx stage.RunContext) error {
	if s.spec.Signed() && s.verifier == nil {
		return failure.Internal("archive %s is signed but no verifier is configured", s.spec.Name)
	}
	if err := s.tools.FS.MkdirAll(filepath.Dir(s.spec.Archive), 0o755); err != nil {
		return failure.Internal("cannot create cache directory").WithUnderlying(err)
	}

	part := s.spec.Archive + partSuffix
	if err := s.download(ctx, s.spec.URL, part); err != nil {
		return err
	}

	if s.spec.Signed() {
		sig := s.spec.SignaturePath()
		if !s.tools.FS.IsFile(sig) {
			ctx.Logger().Debug(ctx.Context(), "downloading signature", ports.F("file", filepath.Base(sig)))
			if err := s.download(ctx, s.spec.SignatureURL, sig+partSuffix); err != nil {
				s.discard(part)
				return err
			}
			if err := s.tools.FS.Rename(sig+partSuffix, sig); err != nil {
				s.discard(part)
				return failure.Internal("cannot publish signature").WithUnderlying(err)
			}
		}
		if err := s.verifier.Verify(ctx, part, sig); err != nil {
			s.discard(part)
			return err
		}
	}

	if err := s.tools.FS.Rename(part, s.spec.Archive); err != nil {
		return failure.Internal("cannot publish archive").WithContext(s.spec.Archive).WithUnderlying(err)
	}
	return nil
}

// download transfers url to dest, removing dest again on failure.
func (s *FetchStep) download(ctx stage.RunContext, url, dest string) error {
	s.discard(dest)
	cmd := ports.NewCommand("curl", "-sSfL", "-o", dest, url)
	if _, err := s.tools.run(ctx, cmd); err != nil {
		s.discard(dest)
		return err
	}
	if !s.tools.FS.IsFile(dest) {
		return failure.NotFound("downloaded file", dest)
	}
	return nil
}

// discard removes a partial download; a missing file is not an error.
func (s *FetchStep) discard(path string) {
	_ = s.tools.FS.Remove(path)
}
