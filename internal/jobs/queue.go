// Package jobs carries confirmation jobs from the write path to a worker pool.
package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/ppmimesir/wisuda/internal/events"
)

var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)

// Queue is a FIFO of confirmation jobs. Enqueue does not wait for room; a job
// that does not fit is rejected and left for the sweeper. Dequeue blocks until
// a job arrives, ctx ends or the queue is closed.
type Queue interface {
	Enqueue(ctx context.Context, job events.Confirmation) error
	Dequeue(ctx context.Context) (events.Confirmation, error)
	Close() error
}

// Memory is a buffered channel queue. Jobs do not survive a restart.
type Memory struct {
	ch        chan events.Confirmation
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 256
	}
	return &Memory{ch: make(chan events.Confirmation, size), done: make(chan struct{})}
}

func (m *Memory) Enqueue(ctx context.Context, job events.Confirmation) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.ch <- job:
		return nil
	default:
		return ErrFull
	}
}

// Len reports how many jobs are buffered.
func (m *Memory) Len() int { return len(m.ch) }

func (m *Memory) Dequeue(ctx context.Context) (events.Confirmation, error) {
	select {
	case job := <-m.ch:
		return job, nil
	case <-m.done:
		return events.Confirmation{}, ErrClosed
	case <-ctx.Done():
		return events.Confirmation{}, ctx.Err()
	}
}

func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
