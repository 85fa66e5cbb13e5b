package toolchain

import (
	"path/filepath"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// InstallStep builds a dependency and installs it into its prefix. The
// install runs with DESTDIR pointing at a staging directory and the staged
// prefix is renamed into place, so an existing prefix is always complete.
type InstallStep struct {
	name     string
	prefix   string
	workDir  string
	build    []ports.Command
	install  ports.Command
	produces string
	tools    Tools
}

// InstallOption configures an InstallStep.
type InstallOption func(*InstallStep)

// WithBuildCommands runs cmds in the work directory before installing.
func WithBuildCommands(cmds ...ports.Command) InstallOption {
	return func(s *InstallStep) {
		s.build = append(s.build, cmds...)
	}
}

// WithInstallCommand replaces the default "make install".
func WithInstallCommand(cmd ports.Command) InstallOption {
	return func(s *InstallStep) {
		s.install = cmd
	}
}

// WithProduct requires path to exist once the prefix is in place.
func WithProduct(path string) InstallOption {
	return func(s *InstallStep) {
		s.produces = path
	}
}

// NewInstallStep creates an InstallStep that builds in workDir and
// installs into prefix.
func NewInstallStep(name, prefix, workDir string, tools Tools, opts ...InstallOption) *InstallStep {
	s := &InstallStep{
		name:    name,
		prefix:  prefix,
		workDir: workDir,
		install: ports.NewCommand("make", "install"),
		tools:   tools,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the step identifier.
func (s *InstallStep) ID() stage.StepID {
	return stage.MustNewStepID("install:prefix:" + s.name)
}

// Describe summarises the step.
func (s *InstallStep) Describe() string {
	return "building and installing " + s.name
}

// Check skips installation when the prefix exists.
func (s *InstallStep) Check(ctx stage.RunContext) (stage.StepStatus, error) {
	if !s.tools.FS.IsDir(s.prefix) {
		return stage.StatusNeedsApply, nil
	}
	ctx.Logger().Debug(ctx.Context(), "skipping installation", ports.F("name", s.name))
	return stage.StatusSatisfied, s.checkProduct()
}

// Apply builds, installs into staging and publishes the prefix.
func (s *InstallStep) Apply(ctx stage.RunContext) error {
	fsys := s.tools.FS
	if err := fsys.MkdirAll(s.workDir, 0o755); err != nil {
		return failure.Internal("cannot create %s", s.workDir).WithUnderlying(err)
	}
	for _, cmd := range s.build {
		if _, err := s.tools.run(ctx, s.tools.tee(cmd.InDir(s.workDir))); err != nil {
			return err
		}
	}

	parent := filepath.Dir(s.prefix)
	staging, err := fsys.MkdirTemp(parent, ".install-"+s.name+"-*")
	if err != nil {
		return failure.Internal("cannot create staging directory").WithUnderlying(err)
	}
	defer func() {
		if err := fsys.RemoveAll(staging); err != nil {
			ctx.Logger().Warn(ctx.Context(), "cannot remove staging directory", ports.F("dir", staging), ports.Err(err))
		}
	}()

	install := s.install
	install.Args = append(append([]string(nil), install.Args...), "DESTDIR="+staging)
	if _, err := s.tools.run(ctx, s.tools.tee(install.InDir(s.workDir))); err != nil {
		return err
	}

	staged := filepath.Join(staging, s.prefix)
	if !fsys.IsDir(staged) {
		return failure.NotFound("installed tree", staged)
	}
	if err := fsys.Rename(staged, s.prefix); err != nil {
		return failure.Internal("cannot move %s into place", s.name).WithContext(s.prefix).WithUnderlying(err)
	}
	return s.checkProduct()
}

func (s *InstallStep) checkProduct() error {
	if s.produces != "" && !s.tools.FS.IsFile(s.produces) {
		return failure.NotFound(filepath.Base(s.produces), s.produces)
	}
	return nil
}

// installedGate reports a step satisfied while the dependency's prefix
// exists, so its sources are neither fetched nor unpacked again.
type installedGate struct {
	stage.Step
	prefix string
	tools  Tools
}

// UnlessInstalled wraps step so it is skipped while prefix exists.
func UnlessInstalled(prefix string, tools Tools, step stage.Step) stage.Step {
	return &installedGate{Step: step, prefix: prefix, tools: tools}
}

// Check defers to the wrapped step only when the prefix is missing.
func (g *installedGate) Check(ctx stage.RunContext) (stage.StepStatus, error) {
	if g.tools.FS.IsDir(g.prefix) {
		ctx.Logger().Debug(ctx.Context(), "dependency installed", ports.F("step", g.ID().String()), ports.F("prefix", g.prefix))
		return stage.StatusSatisfied, nil
	}
	return g.Step.Check(ctx)
}
