package failure

import (
	"errors"
	"io/fs"
	"os/exec"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// FromCommand converts the outcome of running cmd into an error: nil when
// the process exited 0, NotFound when it could not be found, Process when
// it ran and failed.
func FromCommand(cmd ports.Command, result ports.CommandResult, err error) error {
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return NotFound("command", cmd.Name).WithUnderlying(err)
		}
		return &Error{
			Kind:       KindInternal,
			Message:    "cannot start command",
			Context:    cmd.String(),
			Underlying: err,
		}
	}
	if result.Success() {
		return nil
	}
	return Process(cmd.String(), result.ExitCode, result.Signal)
}
