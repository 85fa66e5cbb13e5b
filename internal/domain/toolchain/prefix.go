package toolchain

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

var prefixLine = regexp.MustCompile(`^\s*prefix\s*=\s*(\S+)`)

// PrefixStep points a Makefile's install prefix at the configured directory.
type PrefixStep struct {
	makefile string
	prefix   string
	tools    Tools
}

// NewPrefixStep creates a PrefixStep.
func NewPrefixStep(makefile, prefix string, tools Tools) *PrefixStep {
	return &PrefixStep{makefile: makefile, prefix: prefix, tools: tools}
}

// ID returns the step identifier.
func (s *PrefixStep) ID() stage.StepID {
	return stage.MustNewStepID("integrate:prefix:" + filepath.Base(filepath.Dir(s.makefile)))
}

// Describe summarises the step.
func (s *PrefixStep) Describe() string {
	return "setting install prefix in " + s.makefile
}

// Check reports whether any prefix assignment differs from the wanted one.
func (s *PrefixStep) Check(_ stage.RunContext) (stage.StepStatus, error) {
	_, changed, err := s.rewrite()
	if err != nil {
		return stage.StatusFailed, err
	}
	if changed {
		return stage.StatusNeedsApply, nil
	}
	return stage.StatusSatisfied, nil
}

// Apply rewrites the Makefile.
func (s *PrefixStep) Apply(ctx stage.RunContext) error {
	content, changed, err := s.rewrite()
	if err != nil || !changed {
		return err
	}
	ctx.Logger().Debug(ctx.Context(), "updating Makefile prefix", ports.F("prefix", s.prefix))
	if err := s.tools.FS.WriteFile(s.makefile, []byte(content), 0o644); err != nil {
		return failure.Internal("cannot write %s", s.makefile).WithUnderlying(err)
	}
	return nil
}

// rewrite returns the Makefile with every prefix assignment replaced and
// whether any of them changed.
func (s *PrefixStep) rewrite() (string, bool, error) {
	if !s.tools.FS.IsFile(s.makefile) {
		return "", false, failure.NotFound("Makefile", s.makefile)
	}
	data, err := s.tools.FS.ReadFile(s.makefile)
	if err != nil {
		return "", false, failure.Internal("cannot read %s", s.makefile).WithUnderlying(err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	changed := false
	for i, line := range lines {
		m := prefixLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] != s.prefix {
			changed = true
		}
		lines[i] = "prefix = " + s.prefix + "\n"
	}
	return strings.Join(lines, ""), changed, nil
}
