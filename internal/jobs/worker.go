package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppmimesir/wisuda/internal/events"
)

// MaxAttempts bounds how often a failing job is re-queued.
const MaxAttempts = 3

// Handler processes one job.
type Handler func(ctx context.Context, job events.Confirmation) error

type runConfig struct {
	retryDelay time.Duration
}

// Option adjusts the worker pool.
type Option func(*runConfig)

// WithRetryDelay sets the base delay before a failed job is pushed back.
// Attempt n waits n times the base.
func WithRetryDelay(d time.Duration) Option {
	return func(c *runConfig) { c.retryDelay = d }
}

// Run starts n workers that drain q until ctx ends or q is closed. A failing
// job is pushed back with Attempt+1 after a delay until MaxAttempts is
// reached. Workers never wait on the push; a job that no longer fits is left
// for the sweeper.
func Run(ctx context.Context, q Queue, n int, h Handler, log *zap.SugaredLogger, opts ...Option) error {
	if n <= 0 {
		n = 1
	}
	cfg := runConfig{retryDelay: 5 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		worker := i
		g.Go(func() error {
			for {
				job, err := q.Dequeue(ctx)
				if err != nil {
					if errors.Is(err, ErrClosed) || ctx.Err() != nil {
						return nil
					}
					log.Errorw("dequeue failed", "worker", worker, "err", err)
					select {
					case <-time.After(time.Second):
						continue
					case <-ctx.Done():
						return nil
					}
				}
				if retry, ok := process(ctx, h, job, worker, log); ok {
					go requeue(ctx, q, retry, time.Duration(retry.Attempt)*cfg.retryDelay, log)
				}
			}
		})
	}
	return g.Wait()
}

// process runs h and returns the job to push back, if any.
func process(ctx context.Context, h Handler, job events.Confirmation, worker int, log *zap.SugaredLogger) (retry events.Confirmation, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("confirmation job panicked", "worker", worker, "registrant_id", job.RegistrantID, "panic", rec)
			ok = false
		}
	}()
	err := h(ctx, job)
	if err == nil {
		return job, false
	}
	if job.Attempt+1 >= MaxAttempts || ctx.Err() != nil {
		log.Errorw("confirmation job failed, giving up",
			"worker", worker, "registrant_id", job.RegistrantID, "attempt", job.Attempt, "err", err)
		return job, false
	}
	job.Attempt++
	log.Warnw("confirmation job failed, will retry",
		"worker", worker, "registrant_id", job.RegistrantID, "attempt", job.Attempt, "err", err)
	return job, true
}

func requeue(ctx context.Context, q Queue, job events.Confirmation, delay time.Duration, log *zap.SugaredLogger) {
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}
	if err := q.Enqueue(ctx, job); err != nil && ctx.Err() == nil {
		log.Warnw("re-queue failed, left for the sweeper", "registrant_id", job.RegistrantID, "attempt", job.Attempt, "err", err)
	}
}
