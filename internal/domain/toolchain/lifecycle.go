package toolchain

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
)

// Phase is a state of toolchain preparation.
type Phase string

const (
	// PhaseIdle is before preparation starts.
	PhaseIdle Phase = "idle"
	// PhaseAcquiring downloads, verifies and unpacks sources.
	PhaseAcquiring Phase = "acquiring"
	// PhaseIntegrating splices the plugin in and installs helper libraries.
	PhaseIntegrating Phase = "integrating"
	// PhaseConfiguring runs CMake when needed.
	PhaseConfiguring Phase = "configuring"
	// PhaseBuilding builds the plugin.
	PhaseBuilding Phase = "building"
	// PhaseReady means the extraction tool is available.
	PhaseReady Phase = "ready"
	// PhaseFailed is entered from any phase on a fatal error.
	PhaseFailed Phase = "failed"
)

// Event types for the lifecycle machine.
const (
	EventAcquire   = "ACQUIRE"
	EventIntegrate = "INTEGRATE"
	EventConfigure = "CONFIGURE"
	EventBuild     = "BUILD"
	EventComplete  = "COMPLETE"
	EventFail      = "FAIL"
)

// LifecycleContext is the statekit context of the lifecycle machine.
type LifecycleContext struct {
	Failure error
}

// Lifecycle tracks which preparation phase is running. Phases only move
// forward; any phase may fail.
type Lifecycle struct {
	mu      sync.Mutex
	interp  *statekit.Interpreter[LifecycleContext]
	failure error
}

// NewLifecycle builds and starts the lifecycle machine in PhaseIdle.
func NewLifecycle() (*Lifecycle, error) {
	l := &Lifecycle{}

	machine, err := statekit.NewMachine[LifecycleContext]("toolchain-preparation").
		WithInitial("idle").
		WithContext(LifecycleContext{}).
		WithAction("recordFailure", func(_ *LifecycleContext, event statekit.Event) {
			if err, ok := event.Payload.(error); ok {
				l.failure = err
			}
		}).
		State("idle").
		On(EventAcquire).Target("acquiring").Done().
		State("acquiring").
		On(EventIntegrate).Target("integrating").
		On(EventFail).Target("failed").Done().
		State("integrating").
		On(EventConfigure).Target("configuring").
		On(EventFail).Target("failed").Done().
		State("configuring").
		On(EventBuild).Target("building").
		On(EventFail).Target("failed").Done().
		State("building").
		On(EventComplete).Target("ready").
		On(EventFail).Target("failed").Done().
		State("ready").Done().
		State("failed").
		OnEntry("recordFailure").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lifecycle machine: %w", err)
	}

	l.interp = statekit.NewInterpreter(machine)
	l.interp.Start()
	return l, nil
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Phase(l.interp.State().Value)
}

// Enter moves to phase and asserts the machine accepted the transition.
func (l *Lifecycle) Enter(phase Phase) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := Phase(l.interp.State().Value)
	if !l.send(phase) {
		return failure.Internal("phase %s cannot be entered directly", phase)
	}
	if got := Phase(l.interp.State().Value); got != phase {
		return failure.Internal("cannot enter phase %s from %s", phase, from)
	}
	return nil
}

// send delivers the event that enters phase.
func (l *Lifecycle) send(phase Phase) bool {
	switch phase {
	case PhaseAcquiring:
		l.interp.Send(statekit.Event{Type: EventAcquire})
	case PhaseIntegrating:
		l.interp.Send(statekit.Event{Type: EventIntegrate})
	case PhaseConfiguring:
		l.interp.Send(statekit.Event{Type: EventConfigure})
	case PhaseBuilding:
		l.interp.Send(statekit.Event{Type: EventBuild})
	case PhaseReady:
		l.interp.Send(statekit.Event{Type: EventComplete})
	default:
		return false
	}
	return true
}

// Fail moves to PhaseFailed recording err.
func (l *Lifecycle) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interp.Send(statekit.Event{Type: EventFail, Payload: err})
}

// Failure returns the error recorded on entering PhaseFailed.
func (l *Lifecycle) Failure() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failure
}

// Stop releases the interpreter.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interp.Stop()
}
