package processor

import (
	"context"
	"log/slog"
	"sync"

	"recast/internal/format"
	"recast/internal/policy"
)

// Run processes jobs on a fixed pool of workers and returns the report in
// input order. Job failures are recorded, never returned. When ctx is
// cancelled, in-flight jobs finish and the rest are recorded as skipped.
func Run(ctx context.Context, reg *format.Registry, jobs []Job, opts Options, updates chan<- ProgressUpdate) Report {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Policy == nil {
		opts.Policy = policy.NewWithMode(policy.NeverOverwrite, nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	logger := opts.Logger

	report := Report{Results: make([]Result, len(jobs))}
	filled := make([]bool, len(jobs))

	jobCh := make(chan Job)
	results := make(chan Result)
	p := &pipeline{reg: reg, opts: opts}

	workers := min(opts.Workers, max(len(jobs), 1))
	logger.Debug("batch starting", "jobs", len(jobs), "workers", workers, "overwrite", opts.Policy.Mode())

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, p, jobCh, results)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		send(ctx, updates, ProgressUpdate{TotalDelta: len(jobs)})

		for res := range results {
			report.Results[res.Index] = res
			filled[res.Index] = true
			report.add(res)
			logResult(logger, res)
			send(ctx, updates, progressFor(res))
		}

		for i, job := range jobs {
			if filled[i] {
				continue
			}
			res := interrupted(job)
			report.Results[i] = res
			report.add(res)
			send(ctx, updates, progressFor(res))
		}
	}()

	go func() {
		defer close(jobCh)
		for i := range jobs {
			job := jobs[i]
			job.Index = i
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	logger.Info("batch finished",
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"bytes_before", report.BytesBefore,
		"bytes_after", report.BytesAfter,
	)
	return report
}

func worker(ctx context.Context, p *pipeline, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		if ctx.Err() != nil {
			results <- interrupted(job)
			continue
		}
		results <- p.run(ctx, job)
	}
}

func interrupted(job Job) Result {
	return Result{
		Index:   job.Index,
		Path:    job.Path,
		Display: job.Display,
		Outcome: Skipped,
		Reason:  ReasonInterrupted,
	}
}

// send drops the update once ctx is done so a departed UI cannot stall the
// collector.
func send(ctx context.Context, updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates == nil {
		return
	}
	select {
	case updates <- u:
	case <-ctx.Done():
	}
}

func progressFor(res Result) ProgressUpdate {
	u := ProgressUpdate{DoneDelta: 1, Line: DescribeResult(res)}
	switch res.Outcome {
	case Success:
		u.CreatedDelta = 1
		u.BytesBeforeDelta = res.Status.BeforeSize
		u.BytesAfterDelta = res.Status.AfterSize
	case Skipped:
		u.SkippedDelta = 1
	default:
		u.FailedDelta = 1
	}
	return u
}

// DescribeResult is the one-line form used by progress output.
func DescribeResult(res Result) string {
	name := res.Display
	if name == "" {
		name = res.Path
	}
	switch res.Outcome {
	case Success:
		return name + " -> " + res.Status.OutputPath
	case Skipped:
		return name + ": skipped (" + res.Reason + ")"
	default:
		if res.Err != nil {
			return name + ": " + res.Err.Error()
		}
		return name + ": failed"
	}
}

func logResult(logger *slog.Logger, res Result) {
	switch res.Outcome {
	case Success:
		logger.Debug("job finished",
			"path", res.Path,
			"output", res.Status.OutputPath,
			"before", res.Status.BeforeSize,
			"after", res.Status.AfterSize,
			"elapsed", res.Elapsed,
		)
	case Skipped:
		logger.Info("job skipped", "path", res.Path, "reason", res.Reason)
	default:
		logger.Warn("job failed", "path", res.Path, "error", res.Err)
	}
}
