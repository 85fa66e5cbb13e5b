package app

import (
	"context"
	"runtime"

	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/provenance"
	"github.com/felixgeelhaar/astforge/internal/domain/transpile"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// TranspileOptions selects what the pipeline processes and how.
type TranspileOptions struct {
	// CompileDB is the path of compile_commands.json.
	CompileDB string
	// ImportOnly reuses existing artifacts instead of extracting.
	ImportOnly bool
	// Filter keeps entries whose file contains it.
	Filter string
	// Jobs is the number of concurrent jobs; zero uses every CPU.
	Jobs int
	// LenientImport logs failed conversions instead of failing.
	LenientImport bool
}

// Transpile extracts and imports every entry of a compilation database,
// after checking the objects were built by clang.
func (a *Astforge) Transpile(ctx context.Context, opts TranspileOptions) (transpile.Summary, error) {
	ctx = a.withLogger(ctx)
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	extractorPath := a.cfg.ExtractorPath()
	if !opts.ImportOnly && !a.fs.IsFile(extractorPath) {
		return transpile.Summary{}, failure.NotFound("ast-extractor", extractorPath)
	}
	if !a.fs.IsFile(a.cfg.Importer) {
		return transpile.Summary{}, failure.NotFound("ast-importer", a.cfg.Importer)
	}

	entries, err := compdb.Read(a.fs, opts.CompileDB)
	if err != nil {
		return transpile.Summary{}, err
	}
	entries = compdb.Filter(entries, opts.Filter)

	checker, err := provenance.NewChecker(a.runner, a.fs)
	if err != nil {
		return transpile.Summary{}, err
	}
	report, err := checker.Check(ctx, entries)
	if err != nil {
		return transpile.Summary{}, err
	}
	a.logger.Debug(ctx, "provenance checked", ports.F("objects", len(report.Checked)), ports.F("missing", report.Missing))

	var includes []string
	if !opts.ImportOnly {
		if includes, err = transpile.SystemIncludeDirs(ctx, a.runner, "clang"); err != nil {
			return transpile.Summary{}, err
		}
	}

	scheduler := transpile.NewScheduler(
		transpile.NewExtractor(extractorPath, opts.CompileDB, a.runner, a.fs,
			transpile.WithIncludeDirs(includes), transpile.WithConsole(a.console)),
		transpile.NewImporter(a.cfg.Importer, a.runner).Lenient(opts.LenientImport),
		a.fs,
		transpile.WithJobs(jobs),
		transpile.WithImportOnly(opts.ImportOnly),
	)
	summary, err := scheduler.Run(ctx, entries)
	a.logger.Debug(ctx, "pipeline finished", ports.F("dispatched", summary.Dispatched), ports.F("succeeded", summary.Succeeded))
	if err != nil {
		return summary, err
	}
	a.logger.Info(ctx, "success")
	return summary, nil
}
