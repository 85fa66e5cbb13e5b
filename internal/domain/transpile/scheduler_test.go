package transpile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
	"github.com/felixgeelhaar/astforge/internal/testutil/mocks"
)

func entries(n int) []compdb.Entry {
	out := make([]compdb.Entry, n)
	for i := range out {
		file := fmt.Sprintf("f%d.c", i)
		out[i] = compdb.Entry{Directory: "/work", File: file, Command: "cc -c " + file}
	}
	return out
}

func TestScheduler_EndToEndConcurrent(t *testing.T) {
	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	db := entries(3)
	for _, e := range db {
		fs.AddFile(e.SourcePath(), "int x;")
	}
	runner.AddHandler(extractorBin, extractorWrites(fs))
	runner.AddHandler(importerBin, func(ports.Command) (ports.CommandResult, error) {
		return ports.CommandResult{}, nil
	})

	s := NewScheduler(
		NewExtractor(extractorBin, "/work/compile_commands.json", runner, fs),
		NewImporter(importerBin, runner),
		fs,
		WithJobs(3),
	)
	summary, err := s.Run(context.Background(), db)

	require.NoError(t, err)
	assert.Equal(t, Summary{Dispatched: 3, Succeeded: 3}, summary)
	for _, e := range db {
		assert.True(t, fs.IsFile(e.SourcePath()+".cbor"), e.File)
	}
	assert.Len(t, runner.CallsTo(extractorBin), 3)

	var imported []string
	for _, call := range runner.CallsTo(importerBin) {
		imported = append(imported, call.Args[0])
	}
	assert.ElementsMatch(t, []string{"/work/f0.c.cbor", "/work/f1.c.cbor", "/work/f2.c.cbor"}, imported)
}

func TestScheduler_SequentialOrderAndFailFast(t *testing.T) {
	fs := mocks.NewFileSystem()
	extractor := mocks.NewExtractor(fs)
	importer := mocks.NewImporter()
	boom := failure.Process("ast-extractor", 1, "")
	extractor.FailOn("f2.c", boom)

	summary, err := NewScheduler(extractor, importer, fs).Run(context.Background(), entries(5))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"f0.c", "f1.c", "f2.c"}, extractor.Calls())
	assert.Equal(t, []string{"/work/f0.c.cbor", "/work/f1.c.cbor"}, importer.Calls())
	assert.Equal(t, Summary{Dispatched: 3, Succeeded: 2}, summary)
}

func TestScheduler_LowestIndexFailureWins(t *testing.T) {
	fs := mocks.NewFileSystem()
	extractor := mocks.NewExtractor(fs)
	importer := mocks.NewImporter()

	// Hold every job until all four are running so both failures are seen.
	var started sync.WaitGroup
	started.Add(4)
	extractor.OnExtract(func(string) {
		started.Done()
		started.Wait()
	})
	errLate := errors.New("f3 failed")
	errEarly := errors.New("f1 failed")
	extractor.FailOn("f3.c", errLate)
	extractor.FailOn("f1.c", errEarly)

	summary, err := NewScheduler(extractor, importer, fs, WithJobs(4)).Run(context.Background(), entries(4))

	assert.Equal(t, errEarly, err)
	assert.Equal(t, Summary{Dispatched: 4, Succeeded: 2}, summary)
	assert.ElementsMatch(t, []string{"/work/f0.c.cbor", "/work/f2.c.cbor"}, importer.Calls())
}

func TestScheduler_FailureStopsDispatch(t *testing.T) {
	fs := mocks.NewFileSystem()
	extractor := mocks.NewExtractor(fs)
	importer := mocks.NewImporter()
	extractor.FailOn("f0.c", errors.New("first job fails"))
	extractor.OnExtract(func(file string) {
		if file != "f0.c" {
			time.Sleep(50 * time.Millisecond)
		}
	})

	summary, err := NewScheduler(extractor, importer, fs, WithJobs(2)).Run(context.Background(), entries(20))

	require.Error(t, err)
	assert.Less(t, summary.Dispatched, 20)
	assert.Less(t, len(extractor.Calls()), 20)
	assert.Equal(t, summary.Dispatched, len(extractor.Calls()), "every dispatched job reports back")
}

func TestScheduler_ImportOnly(t *testing.T) {
	fs := mocks.NewFileSystem()
	extractor := mocks.NewExtractor(fs)
	importer := mocks.NewImporter()
	fs.AddFile("/work/f0.c.cbor", "cbor")
	fs.AddFile("/work/f1.c.cbor", "cbor")

	summary, err := NewScheduler(extractor, importer, fs, WithImportOnly(true), WithJobs(2)).Run(context.Background(), entries(2))

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Empty(t, extractor.Calls())
	assert.Equal(t, []string{"/work/f0.c.cbor", "/work/f1.c.cbor"}, importer.SortedCalls())
}

func TestScheduler_ImportOnlyMissingArtifact(t *testing.T) {
	fs := mocks.NewFileSystem()
	importer := mocks.NewImporter()

	_, err := NewScheduler(mocks.NewExtractor(fs), importer, fs, WithImportOnly(true)).Run(context.Background(), entries(1))

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindNotFound))
	assert.Contains(t, err.Error(), "/work/f0.c.cbor")
	assert.Empty(t, importer.Calls())
}

func TestScheduler_ImportFailureFailsJob(t *testing.T) {
	fs := mocks.NewFileSystem()
	importer := mocks.NewImporter()
	importer.FailOn("/work/f1.c.cbor", failure.Process("ast-importer", 101, ""))
	extractor := mocks.NewExtractor(fs)
	var started sync.WaitGroup
	started.Add(3)
	extractor.OnExtract(func(string) {
		started.Done()
		started.Wait()
	})

	summary, err := NewScheduler(extractor, importer, fs, WithJobs(3)).Run(context.Background(), entries(3))

	assert.Equal(t, 101, failure.ExitCode(err))
	assert.Equal(t, 2, summary.Succeeded)
}

func TestScheduler_Cancelled(t *testing.T) {
	fs := mocks.NewFileSystem()
	extractor := mocks.NewExtractor(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, jobs := range []int{1, 4} {
		_, err := NewScheduler(extractor, mocks.NewImporter(), fs, WithJobs(jobs)).Run(ctx, entries(8))
		assert.ErrorIs(t, err, context.Canceled, "jobs=%d", jobs)
	}
}

func TestScheduler_Empty(t *testing.T) {
	fs := mocks.NewFileSystem()

	summary, err := NewScheduler(mocks.NewExtractor(fs), mocks.NewImporter(), fs, WithJobs(4)).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}
