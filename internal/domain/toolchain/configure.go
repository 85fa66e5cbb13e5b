package toolchain

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// GeneratedSignature is the first line CMake writes into build.ninja.
const GeneratedSignature = "# CMAKE generated file: DO NOT EDIT!"

var configurationMarker = regexp.MustCompile(`^#\s*Configuration:\s*(\w+)`)

// ParseBuildState recovers the flavor a build tree was configured with
// from a generated build.ninja. The file must start with the generator
// signature and contain a configuration marker.
func ParseBuildState(r io.Reader) (config.Flavor, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			if line != GeneratedSignature {
				return "", failure.Malformed("unexpected content in build.ninja: first line is %q", line)
			}
			first = false
			continue
		}
		if m := configurationMarker.FindStringSubmatch(line); m != nil {
			return config.Flavor(m[1]), nil
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, bufio.ErrTooLong) {
		return "", failure.Internal("cannot read build.ninja").WithUnderlying(err)
	}
	if first {
		return "", failure.Malformed("unexpected content in build.ninja: file is empty")
	}
	return "", failure.Malformed("missing content in build.ninja: no configuration marker")
}

// ConfigureStep runs CMake when the build tree is unconfigured or was
// configured with a different flavor.
type ConfigureStep struct {
	llvm   config.LLVMConfig
	flavor config.Flavor
	tools  Tools
}

// NewConfigureStep creates a ConfigureStep requesting flavor.
func NewConfigureStep(llvm config.LLVMConfig, flavor config.Flavor, tools Tools) *ConfigureStep {
	return &ConfigureStep{llvm: llvm, flavor: flavor, tools: tools}
}

// ID returns the step identifier.
func (s *ConfigureStep) ID() stage.StepID {
	return stage.MustNewStepID("configure:cmake:llvm")
}

// Describe summarises the step.
func (s *ConfigureStep) Describe() string {
	return "configuring LLVM (" + s.flavor.String() + ")"
}

// Check compares the recorded flavor with the requested one.
func (s *ConfigureStep) Check(ctx stage.RunContext) (stage.StepStatus, error) {
	buildFile := s.llvm.BuildFile()
	if !s.tools.FS.IsFile(buildFile) {
		return stage.StatusNeedsApply, nil
	}

	data, err := s.tools.FS.ReadFile(buildFile)
	if err != nil {
		return stage.StatusFailed, failure.Internal("cannot read %s", buildFile).WithUnderlying(err)
	}
	recorded, err := ParseBuildState(bytes.NewReader(data))
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			return stage.StatusFailed, fe.WithContext(buildFile)
		}
		return stage.StatusFailed, err
	}

	if recorded != s.flavor {
		ctx.Logger().Info(ctx.Context(), "build flavor changed",
			ports.F("recorded", recorded.String()), ports.F("requested", s.flavor.String()))
		return stage.StatusNeedsApply, nil
	}
	ctx.Logger().Debug(ctx.Context(), "found existing build.ninja, not running cmake")
	return stage.StatusSatisfied, nil
}

// Apply runs CMake in the build directory.
func (s *ConfigureStep) Apply(ctx stage.RunContext) error {
	if err := s.tools.FS.MkdirAll(s.llvm.BuildDir, 0o755); err != nil {
		return failure.Internal("cannot create %s", s.llvm.BuildDir).WithUnderlying(err)
	}
	_, err := s.tools.run(ctx, s.tools.tee(CMakeCommand(s.llvm, s.flavor)))
	return err
}

// CMakeCommand is the configuration command for the LLVM build tree.
func CMakeCommand(llvm config.LLVMConfig, flavor config.Flavor) ports.Command {
	return ports.NewCommand("cmake",
		"-G", llvm.Generator, llvm.SrcDir,
		"-Wno-dev",
		"-DCMAKE_C_COMPILER=clang",
		"-DCMAKE_CXX_COMPILER=clang++",
		"-DLLVM_BUILD_TESTS=ON",
		"-DCMAKE_BUILD_TYPE="+flavor.String(),
		"-DLLVM_ENABLE_ASSERTIONS=1",
		"-DLLVM_TARGETS_TO_BUILD=X86",
	).InDir(llvm.BuildDir)
}

// BuildStep runs the build driver for the plugin target on every run;
// ninja itself decides what is out of date.
type BuildStep struct {
	stage.AlwaysApply
	llvm   config.LLVMConfig
	target string
	tools  Tools
}

// NewBuildStep creates a BuildStep for target.
func NewBuildStep(llvm config.LLVMConfig, target string, tools Tools) *BuildStep {
	return &BuildStep{llvm: llvm, target: target, tools: tools}
}

// ID returns the step identifier.
func (s *BuildStep) ID() stage.StepID {
	return stage.MustNewStepID("build:ninja:" + s.target)
}

// Describe summarises the step.
func (s *BuildStep) Describe() string {
	return "building " + s.target
}

// Apply runs ninja and checks the binary was produced.
func (s *BuildStep) Apply(ctx stage.RunContext) error {
	cmd := ports.NewCommand("ninja", s.target).InDir(s.llvm.BuildDir)
	if _, err := s.tools.run(ctx, s.tools.tee(cmd)); err != nil {
		return err
	}
	binary := filepath.Join(s.llvm.BinDir(), s.target)
	if !s.tools.FS.IsFile(binary) {
		return failure.NotFound(s.target, binary)
	}
	return nil
}
