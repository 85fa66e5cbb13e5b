// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// CommandHandler computes the result of a command at call time, letting a
// test simulate side effects such as a tool writing its output file.
type CommandHandler func(cmd ports.Command) (ports.CommandResult, error)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
//
// Lookups try an exact name+args match first (AddResult, AddError), then a
// handler registered for the command name (AddHandler).
type CommandRunner struct {
	mu       sync.RWMutex
	results  map[string]ports.CommandResult
	errors   map[string]error
	handlers map[string]CommandHandler
	paths    map[string]string
	calls    []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:  make(map[string]ports.CommandResult),
		errors:   make(map[string]error),
		handlers: make(map[string]CommandHandler),
		paths:    make(map[string]string),
		calls:    make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should fail to start.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// AddHandler registers a handler for every invocation of command that has
// no exact match.
func (m *CommandRunner) AddHandler(command string, handler CommandHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[command] = handler
}

// AddPath makes LookPath resolve name to path.
func (m *CommandRunner) AddPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[name] = path
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, cmd ports.Command) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: cmd.Name,
		Args:    append([]string(nil), cmd.Args...),
		Dir:     cmd.Dir,
		Env:     append([]string(nil), cmd.Env...),
	})
	key := buildKey(cmd.Name, cmd.Args)
	err, hasErr := m.errors[key]
	result, hasResult := m.results[key]
	handler, hasHandler := m.handlers[cmd.Name]
	m.mu.Unlock()

	switch {
	case hasErr:
		return ports.CommandResult{}, err
	case hasResult:
		echo(cmd, result)
		return result, nil
	case hasHandler:
		result, err := handler(cmd)
		if err == nil {
			echo(cmd, result)
		}
		return result, err
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", cmd.Name, cmd.Args)
}

// LookPath resolves names registered with AddPath.
func (m *CommandRunner) LookPath(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path, ok := m.paths[name]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallsTo returns the recorded invocations of command.
func (m *CommandRunner) CallsTo(command string) []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var calls []ports.CommandCall
	for _, c := range m.calls {
		if c.Command == command {
			calls = append(calls, c)
		}
	}
	return calls
}

// ResetCalls clears the recorded calls and keeps every registration.
func (m *CommandRunner) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make([]ports.CommandCall, 0)
}

// Reset clears all registered results, errors, handlers, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.handlers = make(map[string]CommandHandler)
	m.paths = make(map[string]string)
	m.calls = make([]ports.CommandCall, 0)
}

func echo(cmd ports.Command, result ports.CommandResult) {
	if cmd.Echo == nil {
		return
	}
	_, _ = cmd.Echo.Write([]byte(result.Stdout))
	_, _ = cmd.Echo.Write([]byte(result.Stderr))
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
