package transpile

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/domain/compdb"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Outcome is the result of one job.
type Outcome struct {
	// Index is the entry's position in the database.
	Index    int
	File     string
	Artifact string
	Err      error
}

// Summary counts what a run did. It is informational only.
type Summary struct {
	// Dispatched counts jobs handed to a worker.
	Dispatched int
	Succeeded  int
}

// Scheduler runs extraction then import for every entry.
//
// With one job, entries run in database order and the first failure ends
// the run. With more, a fixed pool of workers takes entries from a queue;
// the first failure stops dispatch, jobs already running finish, and the
// failure of the lowest entry index among the observed ones is returned.
type Scheduler struct {
	extractor  ports.Extractor
	importer   ports.Importer
	fs         ports.FileSystem
	jobs       int
	importOnly bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithJobs sets the number of concurrent jobs.
func WithJobs(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.jobs = n
	}
}

// WithImportOnly skips extraction and imports existing artifacts.
func WithImportOnly(importOnly bool) SchedulerOption {
	return func(s *Scheduler) {
		s.importOnly = importOnly
	}
}

// NewScheduler creates a sequential Scheduler unless WithJobs says otherwise.
func NewScheduler(extractor ports.Extractor, importer ports.Importer, fs ports.FileSystem, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		extractor: extractor,
		importer:  importer,
		fs:        fs,
		jobs:      1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes entries and returns the deciding failure, if any.
func (s *Scheduler) Run(ctx context.Context, entries []compdb.Entry) (Summary, error) {
	logger := logging.FromContext(ctx)
	logger.Debug(ctx, "scheduling jobs", ports.F("entries", len(entries)), ports.F("jobs", s.jobs),
		ports.F("import_only", s.importOnly))

	if s.jobs <= 1 || len(entries) <= 1 {
		return s.runSequential(ctx, entries)
	}
	return s.runPool(ctx, entries)
}

func (s *Scheduler) runSequential(ctx context.Context, entries []compdb.Entry) (Summary, error) {
	var summary Summary
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Dispatched++
		outcome := s.process(ctx, i, entry)
		if outcome.Err != nil {
			s.logFailure(ctx, outcome)
			return summary, outcome.Err
		}
		summary.Succeeded++
	}
	return summary, nil
}

type job struct {
	index int
	entry compdb.Entry
}

func (s *Scheduler) runPool(ctx context.Context, entries []compdb.Entry) (Summary, error) {
	workers := s.jobs
	if workers > len(entries) {
		workers = len(entries)
	}

	tasks := make(chan job)
	outcomes := make(chan Outcome, workers)
	var dispatched int

	// A failed job cancels gctx, which stops dispatch only; jobs already
	// taken run to completion under ctx.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(tasks)
		for i, entry := range entries {
			if gctx.Err() != nil {
				return nil
			}
			select {
			case tasks <- job{index: i, entry: entry}:
				dispatched++
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for j := range tasks {
				outcome := s.process(ctx, j.index, j.entry)
				outcomes <- outcome
				if outcome.Err != nil {
					return outcome.Err
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	var summary Summary
	var completed int
	var first *Outcome
	for outcome := range outcomes {
		completed++
		if outcome.Err == nil {
			summary.Succeeded++
			continue
		}
		s.logFailure(ctx, outcome)
		if first == nil || outcome.Index < first.Index {
			o := outcome
			first = &o
		}
	}
	summary.Dispatched = dispatched

	if first != nil {
		return summary, first.Err
	}
	if completed < len(entries) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		return summary, failure.Internal("only %d of %d jobs ran", completed, len(entries))
	}
	return summary, nil
}

// process runs one job to completion.
func (s *Scheduler) process(ctx context.Context, index int, entry compdb.Entry) Outcome {
	outcome := Outcome{Index: index, File: entry.File}

	if s.importOnly {
		outcome.Artifact = entry.ArtifactPath()
		if !s.fs.IsFile(outcome.Artifact) {
			outcome.Err = failure.NotFound("extraction artifact", outcome.Artifact)
			return outcome
		}
	} else {
		artifact, err := s.extractor.Extract(ctx, entry.Directory, entry.File)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Artifact = artifact
	}

	outcome.Err = s.importer.Import(ctx, outcome.Artifact)
	return outcome
}

func (s *Scheduler) logFailure(ctx context.Context, o Outcome) {
	logging.FromContext(ctx).Error(ctx, "job failed",
		ports.F("index", o.Index), ports.F("file", o.File), ports.Err(o.Err))
}
