package mocks

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystem_ReadWrite(t *testing.T) {
	m := NewFileSystem()

	require.NoError(t, m.WriteFile("/src/CMakeLists.txt", []byte("project(x)\n"), 0o644))
	require.NoError(t, m.AppendFile("/src/CMakeLists.txt", []byte("add_subdirectory(y)\n")))

	content, err := m.ReadFile("/src/CMakeLists.txt")
	require.NoError(t, err)
	assert.Equal(t, "project(x)\nadd_subdirectory(y)\n", string(content))
	assert.True(t, m.IsFile("/src/CMakeLists.txt"))
}

func TestFileSystem_NotFound(t *testing.T) {
	m := NewFileSystem()

	_, err := m.ReadFile("/nonexistent")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, errors.Is(m.AppendFile("/nonexistent", nil), fs.ErrNotExist))
	assert.True(t, errors.Is(m.Remove("/nonexistent"), fs.ErrNotExist))
}

func TestFileSystem_Symlink(t *testing.T) {
	m := NewFileSystem()

	require.NoError(t, m.CreateSymlink("/project/ast-extractor", "/llvm/extra/ast-extractor"))
	isLink, target := m.IsSymlink("/llvm/extra/ast-extractor")
	assert.True(t, isLink)
	assert.Equal(t, "/project/ast-extractor", target)

	err := m.CreateSymlink("/elsewhere", "/llvm/extra/ast-extractor")
	assert.True(t, errors.Is(err, fs.ErrExist))
}

func TestFileSystem_MkdirAllAndReadDir(t *testing.T) {
	m := NewFileSystem()
	require.NoError(t, m.MkdirAll("/deps/stage/llvm-4.0.1.src/tools", 0o755))
	m.AddFile("/deps/stage/llvm-4.0.1.src/CMakeLists.txt", "")

	assert.True(t, m.IsDir("/deps"))
	names, err := m.ReadDirNames("/deps/stage/llvm-4.0.1.src")
	require.NoError(t, err)
	assert.Equal(t, []string{"CMakeLists.txt", "tools"}, names)
}

func TestFileSystem_RenameTree(t *testing.T) {
	m := NewFileSystem()
	m.AddDir("/deps/stage/cfe")
	m.AddFile("/deps/stage/cfe/CMakeLists.txt", "clang")
	m.AddDir("/deps/stage/cfe/lib")

	require.NoError(t, m.Rename("/deps/stage/cfe", "/llvm.src/tools/clang"))

	assert.False(t, m.Exists("/deps/stage/cfe"))
	assert.True(t, m.IsDir("/llvm.src/tools/clang/lib"))
	content, err := m.ReadFile("/llvm.src/tools/clang/CMakeLists.txt")
	require.NoError(t, err)
	assert.Equal(t, "clang", string(content))
}

func TestFileSystem_RemoveAll(t *testing.T) {
	m := NewFileSystem()
	m.AddFile("/llvm.build/build.ninja", "")
	m.AddFile("/llvm.buildx/keep", "")

	require.NoError(t, m.RemoveAll("/llvm.build"))

	assert.False(t, m.Exists("/llvm.build/build.ninja"))
	assert.True(t, m.Exists("/llvm.buildx/keep"))
}

func TestFileSystem_MkdirTemp(t *testing.T) {
	m := NewFileSystem()

	a, err := m.MkdirTemp("/deps", ".unpack-llvm-*")
	require.NoError(t, err)
	b, err := m.MkdirTemp("/deps", ".unpack-llvm-*")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, m.IsDir(a))
}

func TestUnarchiver_Unpack(t *testing.T) {
	m := NewFileSystem()
	u := NewUnarchiver(m)
	u.AddArchive("/deps/cfe.tar.xz", map[string]string{
		"cfe-4.0.1.src/CMakeLists.txt": "clang",
	})

	require.NoError(t, u.Unpack(context.Background(), "/deps/cfe.tar.xz", "/deps/stage"))

	assert.True(t, m.IsDir("/deps/stage/cfe-4.0.1.src"))
	assert.True(t, m.IsFile("/deps/stage/cfe-4.0.1.src/CMakeLists.txt"))
	assert.Len(t, u.Calls(), 1)

	require.Error(t, u.Unpack(context.Background(), "/deps/unknown.tar.xz", "/deps/stage"))
}
