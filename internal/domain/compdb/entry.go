// Package compdb reads clang compilation databases
// (compile_commands.json) and derives the paths the pipeline needs from
// each entry.
package compdb

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
)

// SourceSuffix is the suffix of translation units the pipeline handles.
const SourceSuffix = ".c"

// ArtifactSuffix is appended to a source path to name its extraction output.
const ArtifactSuffix = ".cbor"

// Entry is one compilation database record.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`

	raw json.RawMessage
}

// SourcePath is the source file resolved against the working directory.
func (e Entry) SourcePath() string {
	if filepath.IsAbs(e.File) {
		return filepath.Clean(e.File)
	}
	return filepath.Join(e.Directory, e.File)
}

// ArtifactPath is where the extraction tool writes its output for this entry.
func (e Entry) ArtifactPath() string {
	return e.SourcePath() + ArtifactSuffix
}

// CommandLine is the compiler invocation as one string.
func (e Entry) CommandLine() string {
	if len(e.Arguments) > 0 {
		return strings.Join(e.Arguments, " ")
	}
	return e.Command
}

// IsSource reports whether the entry compiles a C source file.
func (e Entry) IsSource() bool {
	return strings.HasSuffix(e.File, SourceSuffix)
}

// Validate checks the fields every consumer relies on.
func (e Entry) Validate() error {
	switch {
	case e.Directory == "" || e.File == "":
		return e.malformed()
	case len(e.Arguments) == 0 && e.Command == "":
		return e.malformed()
	}
	return nil
}

// String renders the entry as it appeared in the database, pretty printed
// with sorted keys.
func (e Entry) String() string {
	return prettyPrint(e.raw, e)
}

func (e Entry) malformed() *failure.Error {
	return failure.Malformed("malformed entry in compile_commands.json:\n%s", e.String())
}

// prettyPrint formats raw JSON with sorted keys and two-space indents,
// falling back to fallback when raw is unusable.
func prettyPrint(raw json.RawMessage, fallback any) string {
	var v any = fallback
	if len(raw) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			v = decoded
		}
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		var buf bytes.Buffer
		if json.Indent(&buf, raw, "", "  ") == nil {
			return buf.String()
		}
		return string(raw)
	}
	return string(out)
}
