// Package app wires configuration, adapters and domain services into the
// use cases the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/astforge/internal/adapters/archive"
	"github.com/felixgeelhaar/astforge/internal/adapters/command"
	"github.com/felixgeelhaar/astforge/internal/adapters/filesystem"
	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/platform"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Options configures New.
type Options struct {
	Load config.LoadOptions
	// Verbose lowers the console level to debug.
	Verbose bool
	// Stderr receives console log entries; Stdout mirrors tool output.
	Stderr io.Writer
	Stdout io.Writer
	// Args is recorded in the run log.
	Args []string
}

// Astforge is the application: one configuration, one logger and the
// adapters every use case shares.
type Astforge struct {
	cfg        *config.Config
	logger     ports.Logger
	runner     ports.CommandRunner
	fs         ports.FileSystem
	unarchiver ports.Unarchiver
	platform   *platform.Platform
	console    io.Writer
	runID      string
	closers    []io.Closer
}

// New loads the configuration, opens the run log and creates the real
// adapters.
func New(opts Options) (*Astforge, error) {
	cfg, err := config.Load(opts.Load)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	level := ports.LevelInfo
	if cfg.LogLevel != "" {
		if level, err = ports.ParseLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		level = ports.LevelDebug
	}
	console := logging.NewConsoleLogger(logging.WithOutput(stderr), logging.WithLevel(level))

	runLog, file, err := logging.OpenRunLog(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	logger := logging.NewTeeLogger(console, runLog)

	a := newAstforge(cfg, logger,
		command.NewRealRunner(logger),
		filesystem.NewRealFileSystem(),
		archive.NewTarUnarchiver(),
		platform.Detect(),
	)
	a.console = opts.Stdout
	a.closers = append(a.closers, file)

	logger.Debug(context.Background(), "run started",
		ports.F("run_id", a.runID), ports.F("args", opts.Args), ports.F("platform", a.platform.String()))
	return a, nil
}

func newAstforge(cfg *config.Config, logger ports.Logger, runner ports.CommandRunner, fs ports.FileSystem,
	unarchiver ports.Unarchiver, p *platform.Platform) *Astforge {
	return &Astforge{
		cfg:        cfg,
		logger:     logger,
		runner:     runner,
		fs:         fs,
		unarchiver: unarchiver,
		platform:   p,
		runID:      uuid.NewString(),
	}
}

// Config returns the loaded configuration.
func (a *Astforge) Config() *config.Config {
	return a.cfg
}

// RunID identifies this run in the log.
func (a *Astforge) RunID() string {
	return a.runID
}

// Close flushes and closes the run log.
func (a *Astforge) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// withLogger attaches the application logger to ctx.
func (a *Astforge) withLogger(ctx context.Context) context.Context {
	return ports.ContextWithLogger(ctx, a.logger)
}
