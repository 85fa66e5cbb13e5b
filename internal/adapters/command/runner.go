// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// RealRunner executes actual external commands.
type RealRunner struct {
	logger ports.Logger
}

// NewRealRunner creates a new RealRunner. A nil logger disables output logging.
func NewRealRunner(logger ports.Logger) *RealRunner {
	return &RealRunner{logger: logger}
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, c ports.Command) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Echo != nil {
		echo := &lockedWriter{w: c.Echo}
		cmd.Stdout = io.MultiWriter(&stdout, echo)
		cmd.Stderr = io.MultiWriter(&stderr, echo)
	}

	r.debug(ctx, "running command", ports.F("cmd", c.String()), ports.F("dir", c.Dir))
	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	r.logOutput(ctx, c, result)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				result.Signal = unix.SignalName(ws.Signal())
				if result.Signal == "" {
					result.Signal = ws.Signal().String()
				}
			}
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// LookPath resolves name against PATH. Names containing a separator are
// checked directly.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r *RealRunner) logOutput(ctx context.Context, c ports.Command, result ports.CommandResult) {
	if result.Stdout != "" {
		r.debug(ctx, "stdout from "+c.Name, ports.F("output", result.Stdout))
	}
	if result.Stderr != "" {
		r.debug(ctx, "stderr from "+c.Name, ports.F("output", result.Stderr))
	}
}

func (r *RealRunner) debug(ctx context.Context, msg string, fields ...ports.Field) {
	if r.logger != nil {
		r.logger.Debug(ctx, msg, fields...)
	}
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)

// lockedWriter serialises the stdout and stderr copies that os/exec runs
// on separate goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
