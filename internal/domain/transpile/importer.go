package transpile

import (
	"context"
	"path/filepath"

	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// BacktraceEnv makes the conversion tool print a backtrace when it panics.
const BacktraceEnv = "RUST_BACKTRACE=1"

// Importer runs the conversion tool on extraction artifacts.
//
// In strict mode a failing conversion fails the job. In lenient mode it
// is logged as a warning and the pipeline moves on.
type Importer struct {
	binary  string
	runner  ports.CommandRunner
	lenient bool
}

// NewImporter creates a strict Importer.
func NewImporter(binary string, runner ports.CommandRunner) *Importer {
	return &Importer{binary: binary, runner: runner}
}

// Lenient returns a copy of the importer that tolerates failed conversions.
func (i *Importer) Lenient(lenient bool) *Importer {
	c := *i
	c.lenient = lenient
	return &c
}

// Import converts one artifact.
func (i *Importer) Import(ctx context.Context, artifact string) error {
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "importing ast from "+filepath.Base(artifact))

	cmd := ports.NewCommand(i.binary, artifact).WithEnv(BacktraceEnv)
	result, err := i.runner.Run(ctx, cmd)
	if result.Stdout != "" {
		logger.Debug(ctx, "importer output", ports.F("stdout", result.Stdout))
	}
	ferr := failure.FromCommand(cmd, result, err)
	if ferr == nil {
		return nil
	}
	if err == nil && i.lenient {
		logger.Warn(ctx, "import failed", ports.F("artifact", artifact),
			ports.F("exit_code", result.ExitCode), ports.F("stderr", result.Stderr))
		return nil
	}
	logger.Error(ctx, "import failed", ports.F("artifact", artifact), ports.F("stderr", result.Stderr))
	return ferr
}
