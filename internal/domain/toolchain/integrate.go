package toolchain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
)

// LinkStep splices the plugin source tree into clang-tools-extra with a
// symbolic link.
type LinkStep struct {
	source string
	link   string
	tools  Tools
}

// NewLinkStep creates a LinkStep making link point at source.
func NewLinkStep(source, link string, tools Tools) *LinkStep {
	return &LinkStep{source: source, link: link, tools: tools}
}

// ID returns the step identifier.
func (s *LinkStep) ID() stage.StepID {
	return stage.MustNewStepID("integrate:link:" + filepath.Base(s.link))
}

// Describe summarises the step.
func (s *LinkStep) Describe() string {
	return fmt.Sprintf("linking %s into %s", filepath.Base(s.source), filepath.Dir(s.link))
}

// Check skips link creation when the link path exists; whatever is there
// must be a symbolic link.
func (s *LinkStep) Check(_ stage.RunContext) (stage.StepStatus, error) {
	if !s.tools.FS.Exists(s.link) {
		return stage.StatusNeedsApply, nil
	}
	if err := s.assertLink(); err != nil {
		return stage.StatusFailed, err
	}
	return stage.StatusSatisfied, nil
}

// Apply creates the link and asserts the result.
func (s *LinkStep) Apply(_ stage.RunContext) error {
	if !s.tools.FS.IsDir(s.source) {
		return failure.NotFound("plugin source", s.source)
	}
	if err := s.tools.FS.CreateSymlink(s.source, s.link); err != nil {
		return failure.Internal("cannot link plugin source").WithContext(s.link).WithUnderlying(err)
	}
	return s.assertLink()
}

func (s *LinkStep) assertLink() error {
	if ok, _ := s.tools.FS.IsSymlink(s.link); !ok {
		return failure.Internal("missing link: %s->%s", s.source, s.link)
	}
	return nil
}

// PatchIndicator marks a build description that already references the plugin.
const PatchIndicator = "add_subdirectory(ast-extractor)"

// PatchStep appends the plugin's build directives to a CMakeLists.txt,
// at most once.
type PatchStep struct {
	file      string
	directive string
	tools     Tools
}

// NewPatchStep creates a PatchStep for file. The appended block adds the
// tinycbor include and library dirs under cborPrefix and the plugin
// subdirectory.
func NewPatchStep(file, cborPrefix string, tools Tools) *PatchStep {
	directive := fmt.Sprintf("\ninclude_directories(%[1]s/include)\nlink_directories(%[1]s/lib)\n%[2]s\n",
		cborPrefix, PatchIndicator)
	return &PatchStep{file: file, directive: directive, tools: tools}
}

// ID returns the step identifier.
func (s *PatchStep) ID() stage.StepID {
	return stage.MustNewStepID("integrate:patch:" + filepath.Base(filepath.Dir(s.file)))
}

// Describe summarises the step.
func (s *PatchStep) Describe() string {
	return "adding plugin to " + s.file
}

// Check looks for the indicator line.
func (s *PatchStep) Check(_ stage.RunContext) (stage.StepStatus, error) {
	if !s.tools.FS.IsFile(s.file) {
		return stage.StatusFailed, failure.NotFound("build description", s.file)
	}
	data, err := s.tools.FS.ReadFile(s.file)
	if err != nil {
		return stage.StatusFailed, failure.Internal("cannot read %s", s.file).WithUnderlying(err)
	}
	if strings.Contains(string(data), PatchIndicator) {
		return stage.StatusSatisfied, nil
	}
	return stage.StatusNeedsApply, nil
}

// Apply appends the directive block.
func (s *PatchStep) Apply(_ stage.RunContext) error {
	if err := s.tools.FS.AppendFile(s.file, []byte(s.directive)); err != nil {
		return failure.Internal("cannot patch %s", s.file).WithUnderlying(err)
	}
	return nil
}
