package toolchain

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// RequiredTools are the host programs preparation runs.
var RequiredTools = []string{"cmake", "ninja", "curl", "gpg", "make", "clang", "clang++"}

// MinCMakeVersion is the oldest CMake the LLVM 4 build accepts.
const MinCMakeVersion = "3.4.3"

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ProbeStep checks that required programs are installed.
type ProbeStep struct {
	stage.AlwaysApply
	names []string
	tools Tools
}

// NewProbeStep creates a ProbeStep for names.
func NewProbeStep(names []string, tools Tools) *ProbeStep {
	return &ProbeStep{names: names, tools: tools}
}

// ID returns the step identifier.
func (s *ProbeStep) ID() stage.StepID {
	return stage.MustNewStepID("probe:tools")
}

// Describe summarises the step.
func (s *ProbeStep) Describe() string {
	return "checking for " + strings.Join(s.names, ", ")
}

// Apply resolves every tool on PATH and checks the CMake version.
func (s *ProbeStep) Apply(ctx stage.RunContext) error {
	for _, name := range s.names {
		path, err := s.tools.Runner.LookPath(name)
		if err != nil {
			return failure.NotFound("command", name).WithUnderlying(err)
		}
		ctx.Logger().Debug(ctx.Context(), "found tool", ports.F("name", name), ports.F("path", path))

		if name == "cmake" {
			if err := s.checkCMake(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ProbeStep) checkCMake(ctx stage.RunContext) error {
	result, err := s.tools.run(ctx, ports.NewCommand("cmake", "--version"))
	if err != nil {
		return err
	}
	found, ok := ParseVersion(result.Stdout)
	if !ok {
		return failure.Malformed("cannot parse cmake version from %q", firstLine(result.Stdout))
	}
	if semver.Compare("v"+found, "v"+MinCMakeVersion) < 0 {
		return failure.Newf(failure.KindNotFound, "cmake %s or newer required, found %s", MinCMakeVersion, found)
	}
	return nil
}

// ParseVersion extracts the first "major.minor[.patch]" from s, normalised
// to three components.
func ParseVersion(s string) (string, bool) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := m[1] + "." + m[2] + "." + patch
	return v, semver.IsValid("v" + v)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
