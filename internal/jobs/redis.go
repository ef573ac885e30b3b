package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppmimesir/wisuda/internal/events"
)

const DefaultRedisKey = "wisuda:confirmations"

// Redis is a list-backed queue: LPUSH to enqueue, BRPOP to dequeue.
type Redis struct {
	client *redis.Client
	key    string
	poll   time.Duration
}

// NewRedis parses url and pings the server.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisWithClient(client, DefaultRedisKey), nil
}

func NewRedisWithClient(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key, poll: 2 * time.Second}
}

func (q *Redis) Enqueue(ctx context.Context, job events.Confirmation) error {
	b, err := job.Marshal()
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

func (q *Redis) Dequeue(ctx context.Context) (events.Confirmation, error) {
	for {
		res, err := q.client.BRPop(ctx, q.poll, q.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if ctx.Err() != nil {
				return events.Confirmation{}, ctx.Err()
			}
			continue
		case errors.Is(err, redis.ErrClosed):
			return events.Confirmation{}, ErrClosed
		case err != nil:
			if ctx.Err() != nil {
				return events.Confirmation{}, ctx.Err()
			}
			return events.Confirmation{}, err
		}
		// res is [key, value]
		return events.UnmarshalConfirmation([]byte(res[1]))
	}
}

// Len is the number of queued jobs.
func (q *Redis) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *Redis) Close() error {
	return q.client.Close()
}
