// Package toolchain prepares the native extraction toolchain: it fetches
// and verifies source archives, unpacks them, splices the extractor plugin
// into the clang tree, builds the helper libraries and finally configures
// and builds the plugin. Every stage is a stage.Step whose Check looks only
// at artifacts on disk, so repeated runs redo nothing that is complete.
package toolchain

import (
	"io"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Tools bundles the adapters the preparation steps use.
type Tools struct {
	Runner     ports.CommandRunner
	FS         ports.FileSystem
	Unarchiver ports.Unarchiver
	// Console receives the live output of long-running commands; nil
	// keeps it in the log only.
	Console io.Writer
}

// run executes cmd and converts a failed outcome into a failure.Error. The
// stderr of a failed command is logged at error level.
func (t Tools) run(ctx stage.RunContext, cmd ports.Command) (ports.CommandResult, error) {
	result, err := t.Runner.Run(ctx.Context(), cmd)
	if ferr := failure.FromCommand(cmd, result, err); ferr != nil {
		if result.Stderr != "" {
			ctx.Logger().Error(ctx.Context(), "command failed", ports.F("cmd", cmd.String()), ports.F("stderr", result.Stderr))
		}
		return result, ferr
	}
	return result, nil
}

// tee returns cmd mirroring its output to the console when one is set.
func (t Tools) tee(cmd ports.Command) ports.Command {
	if t.Console == nil {
		return cmd
	}
	return cmd.WithEcho(t.Console)
}
