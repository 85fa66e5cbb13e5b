package mocks

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Extractor is a thread-safe test double for ports.Extractor. By default
// it writes "<directory>/<file>.cbor" through the filesystem it was given.
type Extractor struct {
	mu     sync.Mutex
	fs     ports.FileSystem
	errors map[string]error
	hook   func(file string)
	calls  []string
}

// NewExtractor creates an Extractor writing artifacts to fs.
func NewExtractor(fs ports.FileSystem) *Extractor {
	return &Extractor{fs: fs, errors: make(map[string]error)}
}

// FailOn makes extraction of file return err without writing an artifact.
func (m *Extractor) FailOn(file string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[file] = err
}

// OnExtract registers a hook run at the start of every call.
func (m *Extractor) OnExtract(hook func(file string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// Extract records the call and produces the artifact.
func (m *Extractor) Extract(_ context.Context, directory, file string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, file)
	err, fail := m.errors[file]
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(file)
	}
	if fail {
		return "", err
	}
	artifact := filepath.Join(directory, file) + ".cbor"
	if err := m.fs.WriteFile(artifact, []byte("cbor"), 0o644); err != nil {
		return "", err
	}
	return artifact, nil
}

// Calls returns the extracted files in call order.
func (m *Extractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Importer is a thread-safe test double for ports.Importer.
type Importer struct {
	mu     sync.Mutex
	errors map[string]error
	calls  []string
}

// NewImporter creates an Importer.
func NewImporter() *Importer {
	return &Importer{errors: make(map[string]error)}
}

// FailOn makes importing artifact return err.
func (m *Importer) FailOn(artifact string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[artifact] = err
}

// Import records the call.
func (m *Importer) Import(_ context.Context, artifact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, artifact)
	return m.errors[artifact]
}

// Calls returns the imported artifacts in call order.
func (m *Importer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// SortedCalls returns the imported artifacts sorted.
func (m *Importer) SortedCalls() []string {
	calls := m.Calls()
	sort.Strings(calls)
	return calls
}

// Ensure the doubles implement their ports.
var (
	_ ports.Extractor = (*Extractor)(nil)
	_ ports.Importer  = (*Importer)(nil)
)
