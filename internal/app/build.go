package app

import (
	"context"

	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/toolchain"
	"github.com/felixgeelhaar/astforge/internal/domain/transpile"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// BuildOptions selects how the toolchain is prepared.
type BuildOptions struct {
	// CleanAll removes sources, build tree and dependencies first.
	CleanAll bool
	// Debug builds LLVM in the Debug flavor instead of Release.
	Debug bool
	// Test runs the extractor over tinycbor afterwards.
	Test bool
}

// BuildToolchain prepares the extraction toolchain.
func (a *Astforge) BuildToolchain(ctx context.Context, opts BuildOptions) (*toolchain.Result, error) {
	ctx = a.withLogger(ctx)
	cfg := a.cfg
	if opts.Debug {
		cfg = cfg.WithFlavor(config.FlavorDebug)
	}

	tools := toolchain.Tools{
		Runner:     a.runner,
		FS:         a.fs,
		Unarchiver: a.unarchiver,
		Console:    a.console,
	}
	result, err := toolchain.NewPreparer(cfg, tools, a.platform).Prepare(ctx, toolchain.Options{CleanAll: opts.CleanAll})
	if err != nil {
		return result, err
	}

	if opts.Test {
		if err := a.sanityTest(ctx, result); err != nil {
			return result, err
		}
	}
	a.logger.Info(ctx, "success")
	return result, nil
}

// sanityTest extracts every entry of tinycbor's compilation database.
func (a *Astforge) sanityTest(ctx context.Context, result *toolchain.Result) error {
	if !a.platform.IsLinux() || result.CompileDB == "" {
		return failure.Internal("sanity testing requires a Linux host with bear support (running on %s)", a.platform)
	}

	entries, err := compdb.Read(a.fs, result.CompileDB)
	if err != nil {
		return err
	}
	includes, err := transpile.SystemIncludeDirs(ctx, a.runner, "clang")
	if err != nil {
		return err
	}

	extractor := transpile.NewExtractor(result.Extractor, result.CompileDB, a.runner, a.fs,
		transpile.WithIncludeDirs(includes), transpile.WithConsole(a.console))
	for _, e := range entries {
		if _, err := extractor.Extract(ctx, e.Directory, e.File); err != nil {
			return err
		}
	}
	a.logger.Info(ctx, "sanity test passed", ports.F("files", len(entries)))
	return nil
}
