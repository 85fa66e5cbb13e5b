package mocks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/astforge/internal/ports"
)

// FileSystem is a thread-safe in-memory test double for ports.FileSystem.
// Paths are cleaned but never resolved through symlinks.
type FileSystem struct {
	mu       sync.RWMutex
	files    map[string][]byte
	symlinks map[string]string
	dirs     map[string]bool
	tempSeq  int
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:    make(map[string][]byte),
		symlinks: make(map[string]string),
		dirs:     make(map[string]bool),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *FileSystem) AddFile(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = []byte(content)
}

// AddSymlink adds a symlink to the mock filesystem.
func (m *FileSystem) AddSymlink(link, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symlinks[filepath.Clean(link)] = target
}

// AddDir adds a directory to the mock filesystem.
func (m *FileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
}

// ReadFile reads a file from the mock filesystem.
func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if content, ok := m.files[filepath.Clean(path)]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, notExist("open", path)
}

// WriteFile writes a file to the mock filesystem.
func (m *FileSystem) WriteFile(path string, data []byte, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	return nil
}

// AppendFile appends data to an existing file.
func (m *FileSystem) AppendFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	content, ok := m.files[path]
	if !ok {
		return notExist("open", path)
	}
	m.files[path] = append(content, data...)
	return nil
}

// Exists checks if a file, symlink or directory exists.
func (m *FileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	_, fileExists := m.files[path]
	_, linkExists := m.symlinks[path]
	return fileExists || linkExists || m.dirs[path]
}

// IsFile checks if path is a regular file.
func (m *FileSystem) IsFile(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// IsDir checks if a path is a directory.
func (m *FileSystem) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[filepath.Clean(path)]
}

// IsSymlink checks if a path is a symlink.
func (m *FileSystem) IsSymlink(path string) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if target, ok := m.symlinks[filepath.Clean(path)]; ok {
		return true, target
	}
	return false, ""
}

// CreateSymlink creates a symlink, failing if link already exists.
func (m *FileSystem) CreateSymlink(target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link = filepath.Clean(link)
	if m.existsLocked(link) {
		return &os.LinkError{Op: "symlink", Old: target, New: link, Err: fs.ErrExist}
	}
	m.symlinks[link] = target
	return nil
}

// MkdirAll creates a directory and its parents.
func (m *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		m.dirs[p] = true
		if p == filepath.Dir(p) {
			return nil
		}
	}
}

// MkdirTemp creates a uniquely named directory in dir.
func (m *FileSystem) MkdirTemp(dir, pattern string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tempSeq++
	name := strings.Replace(pattern, "*", fmt.Sprintf("%d", m.tempSeq), 1)
	if !strings.Contains(pattern, "*") {
		name = pattern + fmt.Sprintf("%d", m.tempSeq)
	}
	path := filepath.Join(dir, name)
	m.dirs[path] = true
	return path, nil
}

// Rename moves a file, symlink or directory tree.
func (m *FileSystem) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldPath, newPath = filepath.Clean(oldPath), filepath.Clean(newPath)
	if !m.existsLocked(oldPath) {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.ErrNotExist}
	}

	move := func(p string) (string, bool) {
		if p == oldPath {
			return newPath, true
		}
		if strings.HasPrefix(p, oldPath+string(filepath.Separator)) {
			return newPath + strings.TrimPrefix(p, oldPath), true
		}
		return "", false
	}
	for p, content := range m.files {
		if np, ok := move(p); ok {
			delete(m.files, p)
			m.files[np] = content
		}
	}
	for p, target := range m.symlinks {
		if np, ok := move(p); ok {
			delete(m.symlinks, p)
			m.symlinks[np] = target
		}
	}
	for p := range m.dirs {
		if np, ok := move(p); ok {
			delete(m.dirs, p)
			m.dirs[np] = true
		}
	}
	return nil
}

// Remove removes a single entry.
func (m *FileSystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if !m.existsLocked(path) {
		return notExist("remove", path)
	}
	delete(m.files, path)
	delete(m.symlinks, path)
	delete(m.dirs, path)
	return nil
}

// RemoveAll removes path and everything below it.
func (m *FileSystem) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)
	under := func(p string) bool { return p == path || strings.HasPrefix(p, prefix) }
	for p := range m.files {
		if under(p) {
			delete(m.files, p)
		}
	}
	for p := range m.symlinks {
		if under(p) {
			delete(m.symlinks, p)
		}
	}
	for p := range m.dirs {
		if under(p) {
			delete(m.dirs, p)
		}
	}
	return nil
}

// ReadDirNames lists the direct children of a directory, sorted.
func (m *FileSystem) ReadDirNames(path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if !m.dirs[path] {
		return nil, notExist("open", path)
	}

	seen := make(map[string]bool)
	collect := func(p string) {
		if filepath.Dir(p) == path && p != path {
			seen[filepath.Base(p)] = true
		}
	}
	for p := range m.files {
		collect(p)
	}
	for p := range m.symlinks {
		collect(p)
	}
	for p := range m.dirs {
		collect(p)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Files returns the paths of all regular files, sorted.
func (m *FileSystem) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *FileSystem) existsLocked(path string) bool {
	_, fileExists := m.files[path]
	_, linkExists := m.symlinks[path]
	return fileExists || linkExists || m.dirs[path]
}

func notExist(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
