package progress

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisAggregator is an Aggregator whose state lives in Redis, so reporters
// and the drainer may run in different processes.
// It is safe for concurrent use from multiple goroutines.
type RedisAggregator struct {
	rdb  *redis.Client
	name string
}

// NewRedisAggregator connects an aggregator called name.
// Every process that uses the same name and Redis server shares one counter.
// An empty name is replaced by a random one; read it back with Name.
func NewRedisAggregator(redisOpts *redis.Options, name string) (*RedisAggregator, error) {
	if redisOpts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}
	if name == "" {
		name = uuid.NewString()
	}

	return &RedisAggregator{
		rdb:  redis.NewClient(redisOpts),
		name: name,
	}, nil
}

// Name returns the aggregator name used to namespace its keys.
func (a *RedisAggregator) Name() string { return a.name }

// Close closes the Redis connection. Implements io.Closer.
func (a *RedisAggregator) Close() error {
	return a.rdb.Close()
}

// Ping verifies Redis connectivity.
func (a *RedisAggregator) Ping(ctx context.Context) error {
	return a.rdb.Ping(ctx).Err()
}

// Report adds n completed items and publishes a wake-up for Drain.
// The counters are updated in one MULTI/EXEC so concurrent reporters never
// interleave partially.
func (a *RedisAggregator) Report(ctx context.Context, n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}

	_, err := a.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, CompletedKey(a.name), n)
		pipe.IncrBy(ctx, DeltaKey(a.name), n)
		pipe.Set(ctx, PendingKey(a.name), 1, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}

	if err := a.rdb.Publish(ctx, EventsChannel(a.name), n).Err(); err != nil {
		return fmt.Errorf("failed to publish progress event: %w", err)
	}

	return nil
}

// Drain subscribes to the events channel, then waits until a report is
// pending and takes it. Subscribing before the first check means a report
// landing in between still wakes the loop.
func (a *RedisAggregator) Drain(ctx context.Context) (Update, error) {
	pubsub := a.rdb.Subscribe(ctx, EventsChannel(a.name))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before looking at the counters
	if _, err := pubsub.Receive(ctx); err != nil {
		return Update{}, fmt.Errorf("failed to subscribe to progress events: %w", err)
	}
	ch := pubsub.Channel()

	for {
		u, ok, err := a.take(ctx)
		if err != nil {
			return Update{}, err
		}
		if ok {
			return u, nil
		}

		select {
		case <-ctx.Done():
			return Update{}, ctx.Err()
		case _, open := <-ch:
			if !open {
				return Update{}, fmt.Errorf("progress event subscription closed")
			}
		}
	}
}

// take atomically reads the pending flag, resets the delta and reads the total.
// Returns ok=false when nothing was reported since the last take.
func (a *RedisAggregator) take(ctx context.Context) (Update, bool, error) {
	var pending, delta, completed *redis.StringCmd

	_, err := a.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pending = pipe.Get(ctx, PendingKey(a.name))
		delta = pipe.GetSet(ctx, DeltaKey(a.name), 0)
		completed = pipe.Get(ctx, CompletedKey(a.name))
		pipe.Del(ctx, PendingKey(a.name))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Update{}, false, fmt.Errorf("failed to drain progress: %w", err)
	}

	if errors.Is(pending.Err(), redis.Nil) {
		return Update{}, false, nil
	}

	d, err := int64Result(delta)
	if err != nil {
		return Update{}, false, fmt.Errorf("failed to read progress delta: %w", err)
	}
	c, err := int64Result(completed)
	if err != nil {
		return Update{}, false, fmt.Errorf("failed to read progress total: %w", err)
	}
	return Update{Delta: d, Completed: c}, true, nil
}

// Completed returns the running total. An aggregator nobody reported to yet returns 0.
func (a *RedisAggregator) Completed(ctx context.Context) (int64, error) {
	c, err := int64Result(a.rdb.Get(ctx, CompletedKey(a.name)))
	if err != nil {
		return 0, fmt.Errorf("failed to read progress total: %w", err)
	}
	return c, nil
}

// Reset deletes all keys of the aggregator, returning it to zero.
func (a *RedisAggregator) Reset(ctx context.Context) error {
	err := a.rdb.Del(ctx, CompletedKey(a.name), DeltaKey(a.name), PendingKey(a.name)).Err()
	if err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}

// RedisClient returns the underlying Redis client, e.g. for inspecting keys in tests.
func (a *RedisAggregator) RedisClient() *redis.Client {
	return a.rdb
}

// int64Result parses a string reply, treating a missing key as zero.
func int64Result(cmd *redis.StringCmd) (int64, error) {
	s, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
