// Package runner fans a batch of files out over a bounded worker pool and
// collects a per-file result for each.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sail-placements/sail/internal/service"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 4

// ProcessFunc ingests one file and returns its summary.
type ProcessFunc func(ctx context.Context, path string) (*service.ImportSummary, error)

// FileResult is the outcome of processing a single file. Err is set for
// failures that prevented a summary (unreadable file, missing columns); the
// summary, when present, still carries the row-level errors.
type FileResult struct {
	JobID   uuid.UUID
	Path    string
	Summary *service.ImportSummary
	Err     error
}

// Batch is the collected outcome of one runner invocation. Results are in
// input order regardless of completion order.
type Batch struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []FileResult
}

// TotalImported sums the success counts across all files.
func (b *Batch) TotalImported() int {
	var total int
	for _, r := range b.Results {
		if r.Summary != nil {
			total += r.Summary.SuccessCount
		}
	}
	return total
}

// TotalErrors counts file-level failures plus recorded row errors.
func (b *Batch) TotalErrors() int {
	var total int
	for _, r := range b.Results {
		if r.Summary != nil {
			total += len(r.Summary.Errors)
		} else if r.Err != nil {
			total++
		}
	}
	return total
}

// Runner processes file batches with a fixed number of workers.
type Runner struct {
	process     ProcessFunc
	concurrency int
}

// New creates a runner. Non-positive concurrency selects the default.
func New(process ProcessFunc, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{process: process, concurrency: concurrency}
}

type job struct {
	id    uuid.UUID
	index int
	path  string
}

// Run processes every path and returns when all are done. onDone, when
// non-nil, is called once per finished file from worker goroutines, in
// completion order.
func (r *Runner) Run(ctx context.Context, paths []string, onDone func(FileResult)) *Batch {
	batch := &Batch{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Results:   make([]FileResult, len(paths)),
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex

	workers := r.concurrency
	if workers > len(paths) {
		workers = len(paths)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result := FileResult{JobID: j.id, Path: j.path}
				result.Summary, result.Err = r.process(ctx, j.path)

				if result.Err != nil {
					slog.Warn("file processing failed",
						"batch", batch.ID, "job", j.id, "file", j.path, "error", result.Err)
				} else {
					slog.Debug("file processed",
						"batch", batch.ID, "job", j.id, "file", j.path)
				}

				mu.Lock()
				batch.Results[j.index] = result
				mu.Unlock()

				if onDone != nil {
					onDone(result)
				}
			}
		}()
	}

	slog.Info("batch started", "batch", batch.ID, "files", len(paths), "workers", workers)

	for i, path := range paths {
		select {
		case jobs <- job{id: uuid.New(), index: i, path: path}:
		case <-ctx.Done():
			// Mark everything not yet dispatched as canceled.
			mu.Lock()
			for k := i; k < len(paths); k++ {
				if batch.Results[k].Path == "" {
					batch.Results[k] = FileResult{Path: paths[k], Err: ctx.Err()}
				}
			}
			mu.Unlock()
			close(jobs)
			wg.Wait()
			batch.FinishedAt = time.Now().UTC()
			return batch
		}
	}
	close(jobs)
	wg.Wait()

	batch.FinishedAt = time.Now().UTC()
	slog.Info("batch finished",
		"batch", batch.ID,
		"imported", batch.TotalImported(),
		"errors", batch.TotalErrors())
	return batch
}
