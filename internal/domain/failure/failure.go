// Package failure defines the error kinds a run can end with and how each
// maps to a process exit code.
package failure

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Kind categorises a fatal condition.
type Kind string

const (
	// KindNotFound is an expected file, directory or tool that is missing.
	KindNotFound Kind = "NOT_FOUND"
	// KindMalformedInput is a compilation database entry or generated build
	// file that lacks required content.
	KindMalformedInput Kind = "MALFORMED_INPUT"
	// KindProcessFailed is an external tool that exited non-zero or died
	// from a signal.
	KindProcessFailed Kind = "PROCESS_FAILED"
	// KindTrustFailed is a signature that did not verify or came from an
	// unexpected signer.
	KindTrustFailed Kind = "TRUST_FAILED"
	// KindProvenanceMismatch is a compiled object built by an unexpected compiler.
	KindProvenanceMismatch Kind = "PROVENANCE_MISMATCH"
	// KindInternal is a broken invariant of the tool itself.
	KindInternal Kind = "INTERNAL"
)

// Error is a categorised fatal condition.
type Error struct {
	Kind       Kind
	Op         string // stage or component that failed, e.g. "configure"
	Message    string
	Context    string // path or command the failure concerns
	ExitCode   int    // child exit status for KindProcessFailed
	Signal     string // terminating signal for KindProcessFailed
	Underlying error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (%s)", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error of the same Kind, so errors.Is(err,
// failure.New(failure.KindNotFound, "")) tests the category.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an Error of kind with message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithOp returns a copy of the error attributed to op.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// WithContext returns a copy of the error with context set.
func (e *Error) WithContext(ctx string) *Error {
	c := *e
	c.Context = ctx
	return &c
}

// WithUnderlying returns a copy of the error wrapping err.
func (e *Error) WithUnderlying(err error) *Error {
	c := *e
	c.Underlying = err
	return &c
}

// NotFound reports a missing file, directory or tool.
func NotFound(what, path string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found", Context: path}
}

// Malformed reports input lacking required content.
func Malformed(format string, args ...interface{}) *Error {
	return Newf(KindMalformedInput, format, args...)
}

// Process reports an external tool that failed. A signal name takes
// precedence over the exit code in the message.
func Process(command string, exitCode int, signal string) *Error {
	msg := fmt.Sprintf("command exited with code %d", exitCode)
	if signal != "" {
		msg = "command received signal " + signal
	}
	return &Error{
		Kind:     KindProcessFailed,
		Message:  msg,
		Context:  command,
		ExitCode: exitCode,
		Signal:   signal,
	}
}

// Trust reports a failed signature verification.
func Trust(format string, args ...interface{}) *Error {
	return Newf(KindTrustFailed, format, args...)
}

// Provenance reports compiled objects built by the wrong compiler.
func Provenance(format string, args ...interface{}) *Error {
	return Newf(KindProvenanceMismatch, format, args...)
}

// Internal reports a broken invariant.
func Internal(format string, args ...interface{}) *Error {
	return Newf(KindInternal, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Exit codes for non-process failures.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitNotFound = int(syscall.ENOENT)
)

// ExitCode maps err to the process exit status: process failures mirror
// the child (128+signal when signalled), missing resources use ENOENT and
// everything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var e *Error
	if !errors.As(err, &e) {
		return ExitFailure
	}
	switch e.Kind {
	case KindProcessFailed:
		if e.Signal != "" {
			if sig := signalNumber(e.Signal); sig > 0 {
				return 128 + sig
			}
			return ExitFailure
		}
		if e.ExitCode > 0 && e.ExitCode < 256 {
			return e.ExitCode
		}
		return ExitFailure
	case KindNotFound:
		return ExitNotFound
	default:
		return ExitFailure
	}
}
