package provenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
	"github.com/felixgeelhaar/astforge/internal/testutil/mocks"
)

const (
	clangComment = "\nString dump of section '.comment':\n  [     1]  clang version 4.0.1 (tags/RELEASE_401/final)\n\n"
	gccComment   = "\nString dump of section '.comment':\n  [     0]  GCC: (Ubuntu 5.4.0-6ubuntu1~16.04.4) 5.4.0 20160609\n\n"
)

func entry(file string) compdb.Entry {
	return compdb.Entry{Directory: "/src", File: file, Command: "cc -c " + file}
}

func newTestChecker(t *testing.T) (*Checker, *mocks.FileSystem, *mocks.CommandRunner) {
	t.Helper()
	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	c, err := NewChecker(runner, fs)
	require.NoError(t, err)
	return c, fs, runner
}

func addObject(fs *mocks.FileSystem, runner *mocks.CommandRunner, path, comment string) {
	fs.AddFile(path, "ELF")
	runner.AddResult("readelf", []string{"-p", ".comment", path}, ports.CommandResult{Stdout: comment})
}

func TestChecker_AllClang(t *testing.T) {
	c, fs, runner := newTestChecker(t)
	addObject(fs, runner, "/src/a.o", clangComment)
	addObject(fs, runner, "/src/b.o", clangComment)

	report, err := c.Check(context.Background(), []compdb.Entry{entry("a.c"), entry("b.c"), entry("c.c")})

	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a.o", "/src/b.o"}, report.Checked)
	assert.Equal(t, 1, report.Missing)
}

func TestChecker_ListsEveryOffender(t *testing.T) {
	c, fs, runner := newTestChecker(t)
	addObject(fs, runner, "/src/a.o", gccComment)
	addObject(fs, runner, "/src/b.o", clangComment)
	addObject(fs, runner, "/src/c.o", gccComment)

	_, err := c.Check(context.Background(), []compdb.Entry{entry("a.c"), entry("b.c"), entry("c.c")})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindProvenanceMismatch))
	assert.Contains(t, err.Error(), "/src/a.o\n/src/c.o")
	assert.NotContains(t, err.Error(), "/src/b.o")
	assert.Len(t, runner.CallsTo("readelf"), 3)
}

func TestChecker_IgnoresNonSourceEntries(t *testing.T) {
	c, fs, runner := newTestChecker(t)
	addObject(fs, runner, "/src/a.o", clangComment)
	addObject(fs, runner, "/src/util.o", gccComment)

	_, err := c.Check(context.Background(), []compdb.Entry{entry("a.c"), entry("util.cpp")})

	require.NoError(t, err)
	assert.Len(t, runner.CallsTo("readelf"), 1)
}

func TestChecker_NoSourceEntries(t *testing.T) {
	c, _, runner := newTestChecker(t)

	_, err := c.Check(context.Background(), []compdb.Entry{entry("util.cpp")})

	assert.True(t, failure.IsKind(err, failure.KindMalformedInput))
	assert.Empty(t, runner.Calls())
}

func TestChecker_MemoisesVerdicts(t *testing.T) {
	c, fs, runner := newTestChecker(t)
	addObject(fs, runner, "/src/a.o", clangComment)
	shared := compdb.Entry{Directory: "/src", File: "a.c", Command: "cc -c a.c -o a.o"}

	_, err := c.Check(context.Background(), []compdb.Entry{entry("a.c"), shared})
	require.NoError(t, err)
	_, err = c.Check(context.Background(), []compdb.Entry{entry("a.c")})
	require.NoError(t, err)

	assert.Len(t, runner.CallsTo("readelf"), 1)
}

func TestChecker_ReadelfFails(t *testing.T) {
	c, fs, runner := newTestChecker(t)
	fs.AddFile("/src/a.o", "not elf")
	runner.AddResult("readelf", []string{"-p", ".comment", "/src/a.o"},
		ports.CommandResult{ExitCode: 1, Stderr: "readelf: Error: Not an ELF file"})

	_, err := c.Check(context.Background(), []compdb.Entry{entry("a.c")})

	assert.True(t, failure.IsKind(err, failure.KindProcessFailed))
}

func TestChecker_Options(t *testing.T) {
	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	c, err := NewChecker(runner, fs, WithReadelf("llvm-readelf"), WithMarker("Apple LLVM"))
	require.NoError(t, err)
	fs.AddFile("/src/a.o", "ELF")
	runner.AddResult("llvm-readelf", []string{"-p", ".comment", "/src/a.o"}, ports.CommandResult{Stdout: clangComment})

	_, err = c.Check(context.Background(), []compdb.Entry{entry("a.c")})

	assert.True(t, failure.IsKind(err, failure.KindProvenanceMismatch))
}
