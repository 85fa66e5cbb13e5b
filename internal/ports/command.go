// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"io"
	"strings"
)

// Command describes a single external process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Stdin is fed to the process; nil means no input.
	Stdin io.Reader
	// Echo receives a copy of stdout and stderr while the process runs.
	Echo io.Writer
}

// NewCommand creates a Command for name with args.
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// InDir returns a copy of the command that runs in dir.
func (c Command) InDir(dir string) Command {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of the command with extra environment entries.
func (c Command) WithEnv(env ...string) Command {
	merged := make([]string, 0, len(c.Env)+len(env))
	merged = append(merged, c.Env...)
	c.Env = append(merged, env...)
	return c
}

// WithEcho returns a copy of the command that mirrors its output to w.
func (c Command) WithEcho(w io.Writer) Command {
	c.Echo = w
	return c
}

// String renders the command line for diagnostics.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandResult represents the result of executing a command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Signal names the signal that terminated the process, e.g. "SIGSEGV".
	Signal string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0 && r.Signal == ""
}

// Signaled reports whether the process died from a signal.
func (r CommandResult) Signaled() bool {
	return r.Signal != ""
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// CommandRunner executes external commands.
//
// Run returns an error only when the process could not be started; a
// process that ran and failed is reported through CommandResult.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
	LookPath(name string) (string, error)
}
