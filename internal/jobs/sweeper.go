package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/events"
)

const sweepBatch = 100

// PendingFinder lists registrants whose confirmation never completed.
type PendingFinder interface {
	PendingConfirmations(ctx context.Context, cutoff time.Time, limit int) ([]uint, error)
}

// Sweep re-queues registrants created more than grace ago that still have no
// confirmation document. It returns how many jobs were queued.
func Sweep(ctx context.Context, f PendingFinder, q Queue, grace time.Duration, log *zap.SugaredLogger) (int, error) {
	ids, err := f.PendingConfirmations(ctx, time.Now().Add(-grace), sweepBatch)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		job := events.Confirmation{RegistrantID: id, Reason: events.ReasonRecovered, Notify: true, EnqueuedAt: time.Now()}
		if err := q.Enqueue(ctx, job); err != nil {
			if errors.Is(err, ErrFull) {
				log.Warnw("queue full, sweep cut short", "queued", n, "pending", len(ids))
				break
			}
			return n, err
		}
		n++
	}
	if n > 0 {
		log.Infow("pending confirmations re-queued", "count", n)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx ends, with a grace period of
// one interval. Rows attempted within the grace period are skipped by the
// finder, and the worker drops a recovered job whose document is already linked.
func RunSweeper(ctx context.Context, f PendingFinder, q Queue, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := Sweep(ctx, f, q, interval, log); err != nil && ctx.Err() == nil {
				log.Errorw("confirmation sweep failed", "err", err)
			}
		}
	}
}
