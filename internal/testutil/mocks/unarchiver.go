package mocks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// UnpackCall records an Unpack invocation.
type UnpackCall struct {
	Archive string
	Dest    string
}

// Unarchiver is a thread-safe test double for ports.Unarchiver. Registered
// archives are materialised through a ports.FileSystem, so it works with
// both the in-memory mock and a real temp directory.
type Unarchiver struct {
	mu       sync.Mutex
	fs       ports.FileSystem
	archives map[string]map[string]string
	errors   map[string]error
	calls    []UnpackCall
}

// NewUnarchiver creates an Unarchiver writing through fs.
func NewUnarchiver(fs ports.FileSystem) *Unarchiver {
	return &Unarchiver{
		fs:       fs,
		archives: make(map[string]map[string]string),
		errors:   make(map[string]error),
	}
}

// AddArchive registers the files (relative path → content) archivePath expands to.
func (u *Unarchiver) AddArchive(archivePath string, files map[string]string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.archives[filepath.Clean(archivePath)] = files
}

// AddError makes unpacking archivePath fail with err.
func (u *Unarchiver) AddError(archivePath string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errors[filepath.Clean(archivePath)] = err
}

// Unpack writes the registered files under destDir.
func (u *Unarchiver) Unpack(_ context.Context, archivePath, destDir string) error {
	u.mu.Lock()
	u.calls = append(u.calls, UnpackCall{Archive: archivePath, Dest: destDir})
	key := filepath.Clean(archivePath)
	err, hasErr := u.errors[key]
	files, ok := u.archives[key]
	u.mu.Unlock()

	if hasErr {
		return err
	}
	if !ok {
		return fmt.Errorf("no mock archive: %s", archivePath)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(destDir, name)
		if err := u.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := u.fs.WriteFile(path, []byte(files[name]), os.FileMode(0o644)); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns all recorded Unpack invocations.
func (u *Unarchiver) Calls() []UnpackCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]UnpackCall(nil), u.calls...)
}

// Ensure Unarchiver implements ports.Unarchiver.
var _ ports.Unarchiver = (*Unarchiver)(nil)
