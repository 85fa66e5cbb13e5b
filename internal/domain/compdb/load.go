package compdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Load decodes a compilation database. Every element must be an object
// with directory, file and either arguments or command; the first one
// that is not aborts the load with the element in the message.
func Load(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, failure.Internal("cannot read compilation database").WithUnderlying(err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, failure.Malformed("cannot parse compilation database").WithUnderlying(err)
	}

	entries := make([]Entry, 0, len(elements))
	for _, raw := range elements {
		entry := Entry{raw: raw}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, entry.malformed().WithUnderlying(err)
		}
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Read loads the compilation database at path.
func Read(fsys ports.FileSystem, path string) ([]Entry, error) {
	if !fsys.IsFile(path) {
		return nil, failure.NotFound("compilation database", path)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, failure.Internal("cannot read %s", path).WithUnderlying(err)
	}
	entries, err := Load(bytes.NewReader(data))
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) && fe.Context == "" {
			return nil, fe.WithContext(path)
		}
		return nil, err
	}
	return entries, nil
}

// Filter keeps the entries whose file contains substr. An empty substr
// keeps everything.
func Filter(entries []Entry, substr string) []Entry {
	if substr == "" {
		return entries
	}
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e.File, substr) {
			kept = append(kept, e)
		}
	}
	return kept
}

// SourceEntries keeps the entries that compile C source files and fails
// when there are none.
func SourceEntries(entries []Entry) ([]Entry, error) {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsSource() {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil, failure.Malformed("didn't find any commands compiling C files")
	}
	return kept, nil
}
