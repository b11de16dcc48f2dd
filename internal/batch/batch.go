package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/subsync/internal/logging"
	"github.com/mgpai22/subsync/internal/resync"
)

// Result is the outcome of one job. Exactly one of File and Err is set.
type Result struct {
	Job  Job
	File *resync.FileResult
	Err  error
}

type Runner struct {
	Concurrency int
	Force       bool
	DryRun      bool
	Logger      *logging.Logger
}

// Run processes every job of m. Jobs are independent: a failing job does not
// stop the others. Results keep manifest order; the returned error joins all
// job failures.
func (r *Runner) Run(ctx context.Context, m *Manifest) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]Result, len(m.Jobs))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, job := range m.Jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = r.runJob(ctx, job, m.OutputPrefix, logger)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Job.Input, res.Err))
		}
	}
	if len(errs) > 0 {
		return results, fmt.Errorf(
			"%d of %d jobs failed: %w",
			len(errs),
			len(results),
			errors.Join(errs...),
		)
	}
	return results, nil
}

func (r *Runner) runJob(
	ctx context.Context,
	job Job,
	prefix string,
	logger *logging.Logger,
) Result {
	if err := ctx.Err(); err != nil {
		return Result{Job: job, Err: err}
	}

	t, err := resync.ParseReference(job.From, job.To)
	if err != nil {
		return Result{Job: job, Err: err}
	}

	logger.Debugw("Resyncing",
		"input", job.Input,
		"ratio", t.Ratio(),
	)

	file, err := resync.ResyncFile(job.Input, t, resync.FileOptions{
		Output: job.Output,
		Prefix: prefix,
		Force:  r.Force,
		DryRun: r.DryRun,
	})
	if err != nil {
		logger.Warnw("Job failed", "input", job.Input, "error", err)
		return Result{Job: job, Err: err}
	}

	logger.Infow("Job finished",
		"input", job.Input,
		"output", file.Output,
		"entries", file.Entries,
		"elapsed", file.Elapsed,
	)
	return Result{Job: job, File: file}
}
