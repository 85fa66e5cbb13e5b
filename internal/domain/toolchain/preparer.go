package toolchain

import (
	"context"
	"path/filepath"

	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/execution"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/platform"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Options selects optional preparation behaviour.
type Options struct {
	// CleanAll removes sources, build tree and dependencies first.
	CleanAll bool
}

// Result describes a prepared toolchain.
type Result struct {
	// Extractor is the built extraction tool.
	Extractor string
	// CompileDB is tinycbor's recorded compilation database; empty when
	// bear is not used on this host.
	CompileDB string
	// Steps holds the outcome of every step that ran, in order.
	Steps []execution.StepResult
}

// Applied counts the steps that did work.
func (r *Result) Applied() int {
	n := 0
	for _, s := range r.Steps {
		if s.Applied() {
			n++
		}
	}
	return n
}

// Preparer drives the preparation phases in order.
type Preparer struct {
	cfg      *config.Config
	tools    Tools
	platform *platform.Platform
	executor *execution.Executor
}

// NewPreparer creates a Preparer.
func NewPreparer(cfg *config.Config, tools Tools, p *platform.Platform) *Preparer {
	return &Preparer{
		cfg:      cfg,
		tools:    tools,
		platform: p,
		executor: execution.NewExecutor(),
	}
}

// Prepare brings the toolchain up to date. Each phase runs only after the
// previous one completed; the first failure ends the run.
func (p *Preparer) Prepare(ctx context.Context, opts Options) (*Result, error) {
	lifecycle, err := NewLifecycle()
	if err != nil {
		return nil, err
	}
	defer lifecycle.Stop()

	result := &Result{Extractor: p.cfg.ExtractorPath()}
	phases := []struct {
		phase Phase
		steps []stage.Step
	}{
		{PhaseAcquiring, p.acquireSteps(opts)},
		{PhaseIntegrating, p.integrateSteps()},
		{PhaseConfiguring, []stage.Step{NewConfigureStep(p.cfg.LLVM, p.cfg.Flavor, p.tools)}},
		{PhaseBuilding, []stage.Step{NewBuildStep(p.cfg.LLVM, p.cfg.PluginName, p.tools)}},
	}

	logger := stage.NewRunContext(ctx).Logger()
	for _, ph := range phases {
		if err := lifecycle.Enter(ph.phase); err != nil {
			return result, err
		}
		logger.Debug(ctx, "entering phase", ports.F("phase", string(ph.phase)))

		steps, err := p.executor.Execute(ctx, ph.steps...)
		result.Steps = append(result.Steps, steps...)
		if err != nil {
			lifecycle.Fail(err)
			return result, err
		}
	}

	if p.usesBear() {
		result.CompileDB = p.cfg.TinyCBORCompileDB()
		if !p.tools.FS.IsFile(result.CompileDB) {
			err := failure.NotFound("compilation database", result.CompileDB)
			lifecycle.Fail(err)
			return result, err
		}
	}

	if err := lifecycle.Enter(PhaseReady); err != nil {
		return result, err
	}
	logger.Info(ctx, "toolchain ready", ports.F("extractor", result.Extractor), ports.F("applied", result.Applied()))
	return result, nil
}

// acquireSteps cleans, probes the host, builds bear where supported and
// fetches and unpacks the LLVM sources.
func (p *Preparer) acquireSteps(opts Options) []stage.Step {
	var steps []stage.Step
	if opts.CleanAll {
		steps = append(steps, NewCleanStep(p.tools, p.cfg.LLVM.SrcDir, p.cfg.LLVM.BuildDir, p.cfg.DepsDir))
	}
	steps = append(steps, NewProbeStep(RequiredTools, p.tools))

	if p.usesBear() {
		bear := p.cfg.Bear
		steps = append(steps,
			UnlessInstalled(bear.Prefix, p.tools, NewFetchStep(bear.Archive, p.tools, nil)),
			UnlessInstalled(bear.Prefix, p.tools, NewUnpackStep(bear.Archive, p.tools)),
			NewInstallStep("Bear", bear.Prefix, filepath.Join(bear.SourceDir(), "build"), p.tools,
				WithBuildCommands(ports.NewCommand("cmake", "..", "-DCMAKE_INSTALL_PREFIX="+bear.Prefix)),
				WithProduct(p.cfg.BearBinary()),
			),
		)
	}

	verifier := NewVerifier(p.cfg.LLVM, p.tools)
	for _, spec := range p.cfg.LLVM.Archives {
		steps = append(steps, NewFetchStep(spec, p.tools, verifier))
	}
	for _, spec := range p.cfg.LLVM.Archives {
		steps = append(steps, NewUnpackStep(spec, p.tools))
	}
	return steps
}

// integrateSteps links and registers the plugin and installs tinycbor,
// recording its compilation database under bear where available.
func (p *Preparer) integrateSteps() []stage.Step {
	cbor := p.cfg.TinyCBOR
	extra := p.cfg.LLVM.ExtraToolsDir()

	build := ports.NewCommand("make")
	if p.usesBear() {
		build = ports.NewCommand(p.cfg.BearBinary(), "make")
	}

	return []stage.Step{
		NewLinkStep(p.cfg.PluginSource, p.cfg.PluginLink(), p.tools),
		NewPatchStep(filepath.Join(extra, "CMakeLists.txt"), cbor.Prefix, p.tools),
		UnlessInstalled(cbor.Prefix, p.tools, NewFetchStep(cbor.Archive, p.tools, nil)),
		UnlessInstalled(cbor.Prefix, p.tools, NewUnpackStep(cbor.Archive, p.tools)),
		UnlessInstalled(cbor.Prefix, p.tools, NewPrefixStep(filepath.Join(cbor.SourceDir(), "Makefile"), cbor.Prefix, p.tools)),
		NewInstallStep("tinycbor", cbor.Prefix, cbor.SourceDir(), p.tools, WithBuildCommands(build)),
	}
}

func (p *Preparer) usesBear() bool {
	return p.platform != nil && p.platform.SupportsBear()
}
