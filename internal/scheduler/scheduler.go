// Package scheduler runs the periodic maintenance jobs: the overdue
// bill sweep and the aggregated reminder batch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finwell/finwell/internal/metrics"
	"github.com/finwell/finwell/internal/model"
)

// DefaultInterval is the time between job runs when configuration
// does not override it.
const DefaultInterval = 24 * time.Hour

// Job is one named unit of periodic work. Jobs receive the calendar
// day the run is for so a run straddling midnight stays consistent.
type Job interface {
	Name() string
	Run(ctx context.Context, today model.Date) error
}

// Runner executes its jobs on a fixed interval.
type Runner struct {
	jobs     []Job
	interval time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
	started  bool
}

// NewRunner creates a runner. Jobs execute sequentially in the order
// given, so the overdue sweep should precede the reminder batch.
func NewRunner(interval time.Duration, logger *slog.Logger, jobs ...Job) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		jobs:     jobs,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
		metrics:  metrics.NewNoop(),
	}
}

// WithMetrics attaches a metrics recorder for job durations.
func (r *Runner) WithMetrics(m metrics.Recorder) *Runner {
	r.metrics = m
	return r
}

// Run starts the job loop. Blocks until context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.started {
		return errors.New("scheduler already started")
	}
	r.started = true

	r.logger.Info("scheduler started", "interval", r.interval, "jobs", len(r.jobs))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx, model.Today())
		}
	}
}

// RunOnce executes every job for one calendar day. A failing or
// panicking job never stops the remaining jobs; the next tick retries
// everything.
func (r *Runner) RunOnce(ctx context.Context, today model.Date) {
	for _, job := range r.jobs {
		if err := r.runJob(ctx, job, today); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Error("job failed", "job", job.Name(), "error", err)
		}
	}
}

func (r *Runner) runJob(ctx context.Context, job Job, today model.Date) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panic: %v", rec)
		}
	}()

	start := time.Now()
	if err := job.Run(ctx, today); err != nil {
		return err
	}
	duration := time.Since(start)
	r.metrics.ObserveJobDuration(job.Name(), duration)
	r.logger.Info("job completed", "job", job.Name(), "duration", duration)
	return nil
}
