// Package transpile drives the per-file pipeline: the extraction tool
// turns each translation unit into a CBOR artifact next to its source and
// the conversion tool imports it.
package transpile

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Extractor runs the extraction tool for single files of a compilation
// database.
type Extractor struct {
	binary      string
	compileDB   string
	includeDirs []string
	runner      ports.CommandRunner
	fs          ports.FileSystem
	console     io.Writer
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithIncludeDirs passes system include directories to the tool.
func WithIncludeDirs(dirs []string) ExtractorOption {
	return func(x *Extractor) {
		x.includeDirs = append([]string(nil), dirs...)
	}
}

// WithConsole mirrors the tool's output to w.
func WithConsole(w io.Writer) ExtractorOption {
	return func(x *Extractor) {
		x.console = w
	}
}

// NewExtractor creates an Extractor for the database at compileDB.
func NewExtractor(binary, compileDB string, runner ports.CommandRunner, fs ports.FileSystem, opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		binary:    binary,
		compileDB: compileDB,
		runner:    runner,
		fs:        fs,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract runs the tool for file and asserts its artifact was written.
func (x *Extractor) Extract(ctx context.Context, directory, file string) (string, error) {
	if directory == "" || file == "" {
		return "", failure.Malformed("couldn't parse %s: entry needs directory and file", x.compileDB)
	}
	entry := compdb.Entry{Directory: directory, File: file}
	source := entry.SourcePath()
	if !x.fs.IsFile(source) {
		return "", failure.NotFound("source file", source)
	}

	args := []string{"-p", filepath.Dir(x.compileDB), source}
	for _, dir := range x.includeDirs {
		args = append(args, "-extra-arg=-I"+dir)
	}
	cmd := ports.NewCommand(x.binary, args...)
	if x.console != nil {
		cmd = cmd.WithEcho(x.console)
	}

	logger := logging.FromContext(ctx)
	logger.Info(ctx, "extracting ast from "+filepath.Base(file))
	result, err := x.runner.Run(ctx, cmd)
	if err != nil {
		return "", failure.FromCommand(cmd, result, err)
	}
	if !result.Success() {
		logger.Error(ctx, "command failed", ports.F("cmd", cmd.String()), ports.F("stderr", result.Stderr))
		fe := failure.Process(cmd.String(), result.ExitCode, result.Signal)
		fe.Message = "extraction failed: " + exitReason(result)
		return "", fe
	}

	artifact := entry.ArtifactPath()
	if !x.fs.IsFile(artifact) {
		return "", failure.NotFound("extraction artifact", artifact)
	}
	return artifact, nil
}

// exitReason describes a failed process the way the C library would.
func exitReason(result ports.CommandResult) string {
	if result.Signaled() {
		return "received signal: " + result.Signal
	}
	return unix.Errno(result.ExitCode).Error()
}

// SystemIncludeDirs asks clang for its system header search path.
func SystemIncludeDirs(ctx context.Context, runner ports.CommandRunner, clang string) ([]string, error) {
	cmd := ports.NewCommand(clang, "-E", "-Wp,-v", "-")
	cmd.Stdin = strings.NewReader("")
	result, err := runner.Run(ctx, cmd)
	if err := failure.FromCommand(cmd, result, err); err != nil {
		return nil, err
	}
	return parseIncludeDirs(result.Stderr), nil
}

// parseIncludeDirs keeps the indented lines of clang's verbose search list.
func parseIncludeDirs(stderr string) []string {
	var dirs []string
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(line, " ") {
			if dir := strings.TrimSpace(line); dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}
