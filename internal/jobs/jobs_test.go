package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/events"
)

func TestMemory_FIFO(t *testing.T) {
	q := NewMemory(4)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 1}))
	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 2}))

	a, err := q.Dequeue(ctx)
	require.NoError(t, err)
	b, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), a.RegistrantID)
	assert.Equal(t, uint(2), b.RegistrantID)

	require.NoError(t, q.Close())
	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, q.Enqueue(ctx, events.Confirmation{}), ErrClosed)
}

func TestMemory_FullRejectsWithoutBlocking(t *testing.T) {
	q := NewMemory(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 1}))

	start := time.Now()
	err := q.Enqueue(ctx, events.Confirmation{RegistrantID: 2})
	assert.ErrorIs(t, err, ErrFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 1, q.Len())
}

func TestRedis_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisWithClient(client, "test:jobs")
	q.poll = 100 * time.Millisecond
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 9, Reason: events.ReasonCreated, Notify: true}))
	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 10, Reason: events.ReasonRegenerate}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(9), first.RegistrantID)
	assert.True(t, first.Notify)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, events.ReasonRegenerate, second.Reason)
}

func TestRun_RetriesThenGivesUp(t *testing.T) {
	q := NewMemory(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	attempts := map[uint][]int{}
	var wg sync.WaitGroup
	wg.Add(MaxAttempts + 1)

	h := func(_ context.Context, job events.Confirmation) error {
		mu.Lock()
		attempts[job.RegistrantID] = append(attempts[job.RegistrantID], job.Attempt)
		mu.Unlock()
		wg.Done()
		if job.RegistrantID == 1 {
			return errors.New("boom")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, q, 2, h, zap.NewNop().Sugar(), WithRetryDelay(time.Millisecond)) }()

	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 1}))
	require.NoError(t, q.Enqueue(ctx, events.Confirmation{RegistrantID: 2}))
	wg.Wait()

	q.Close()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{0, 1, 2}, attempts[1])
	assert.Equal(t, []int{0}, attempts[2])
}

func TestRun_FailingJobsNeverStallWorkers(t *testing.T) {
	q := NewMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan uint, 128)
	h := func(_ context.Context, job events.Confirmation) error {
		seen <- job.RegistrantID
		return errors.New("render down")
	}
	done := make(chan error, 1)
	go func() { done <- Run(ctx, q, 1, h, zap.NewNop().Sugar(), WithRetryDelay(time.Millisecond)) }()

	for id := uint(1); id <= 5; id++ {
		require.Eventually(t, func() bool {
			return q.Enqueue(ctx, events.Confirmation{RegistrantID: id}) == nil
		}, 2*time.Second, 5*time.Millisecond, "enqueue %d", id)

		deadline := time.After(2 * time.Second)
	wait:
		for {
			select {
			case got := <-seen:
				if got == id {
					break wait
				}
			case <-deadline:
				t.Fatalf("job %d never reached the handler", id)
			}
		}
	}

	cancel()
	require.NoError(t, <-done)
}
