// Package cardrunner executes queued card generation jobs with a pool of
// worker goroutines.
package cardrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	"github.com/agrimanage/farmreg/internal/service"
)

// RunnerOptions configures the card job runner.
type RunnerOptions struct {
	Jobs   core.JobRepository
	Cards  *service.CardService
	Logger *slog.Logger

	Lease        time.Duration // per-job lease; defaults to 60s
	Concurrency  int           // worker goroutines; defaults to 1
	PollInterval time.Duration // idle queue poll cadence; defaults to 2s
	RetryBackoff time.Duration // base backoff, doubled per attempt; defaults to 5s
}

// Runner pulls card jobs off the queue and renders them.
type Runner struct {
	jobs    core.JobRepository
	cards   *service.CardService
	logger  *slog.Logger
	lease   time.Duration
	workers int
	poll    time.Duration
	backoff time.Duration
}

func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("cardrunner: Jobs repository is required")
	}
	if opts.Cards == nil {
		return nil, errors.New("cardrunner: Cards service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lease := opts.Lease
	if lease <= 0 {
		lease = 60 * time.Second
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &Runner{
		jobs:    opts.Jobs,
		cards:   opts.Cards,
		logger:  logger.With("component", "cardrunner"),
		lease:   lease,
		workers: workers,
		poll:    poll,
		backoff: backoff,
	}, nil
}

// Run starts worker goroutines and processes jobs until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting card runner",
		"workers", r.workers, "lease", r.lease, "poll", r.poll)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx); err != nil {
				// first error wins, cancels all workers
				select {
				case errCh <- err:
					cancel()
				default:
				}
			}
		}()
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		job, err := r.jobs.ReserveNext(ctx, r.lease)
		switch {
		case err == nil:
			r.processJob(ctx, job)
		case errors.Is(err, model.ErrNoJobsAvailable):
			if !r.sleep(ctx) {
				return nil
			}
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("reserve next: %w", err)
		}
	}
	return nil
}

func (r *Runner) sleep(ctx context.Context) bool {
	t := time.NewTimer(r.poll)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.CardJob) {
	log := r.logger.With("job_id", job.ID, "farmer_id", job.FarmerID)
	start := time.Now()

	err := r.cards.Execute(ctx, job)
	if err == nil {
		done, cerr := r.jobs.Complete(ctx, job.ID)
		if cerr != nil {
			log.ErrorContext(ctx, "mark job completed", "error", cerr)
			return
		}
		if !done {
			// lease expired mid-run and another worker took over
			log.WarnContext(ctx, "job no longer running at completion")
			return
		}
		log.InfoContext(ctx, "card job completed", "duration", time.Since(start))
		return
	}

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// shutdown, leave the lease to expire and redeliver
		return
	}

	if errors.Is(err, service.ErrFarmerGone) {
		if _, ferr := r.jobs.FailTerminal(ctx, job.ID, err.Error()); ferr != nil {
			log.ErrorContext(ctx, "mark job terminally failed", "error", ferr)
			return
		}
		log.WarnContext(ctx, "card job failed permanently", "error", err)
		return
	}

	delay := r.retryDelay(job.RetryCount)
	updated, ferr := r.jobs.Fail(ctx, job.ID, err.Error(), delay)
	if ferr != nil {
		log.ErrorContext(ctx, "mark job failed", "error", ferr)
		return
	}
	if updated.Status == model.JobStatusFailed {
		log.ErrorContext(ctx, "card job exhausted retries",
			"error", err, "retries", updated.RetryCount)
		return
	}
	log.WarnContext(ctx, "card job failed, retry scheduled",
		"error", err, "retry", updated.RetryCount, "delay", delay)
}

// retryDelay doubles the base backoff per completed attempt.
func (r *Runner) retryDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 10 {
		retryCount = 10
	}
	return r.backoff << uint(retryCount)
}
