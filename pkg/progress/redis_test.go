package progress

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestAggregator creates an aggregator connected to a miniredis instance
func setupTestAggregator(t *testing.T, name string) (*RedisAggregator, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	agg, err := NewRedisAggregator(&redis.Options{Addr: mr.Addr()}, name)
	require.NoError(t, err)
	t.Cleanup(func() { agg.Close() })

	return agg, mr
}

func TestNewRedisAggregator(t *testing.T) {
	t.Run("keeps the given name", func(t *testing.T) {
		agg, _ := setupTestAggregator(t, "sweep")
		assert.Equal(t, "sweep", agg.Name())
		assert.NoError(t, agg.Ping(context.Background()))
	})

	t.Run("generates a name when empty", func(t *testing.T) {
		agg, _ := setupTestAggregator(t, "")
		_, err := uuid.Parse(agg.Name())
		assert.NoError(t, err)
	})

	t.Run("rejects nil options", func(t *testing.T) {
		_, err := NewRedisAggregator(nil, "sweep")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis options cannot be nil")
	})
}

func TestRedisAggregator_ReportDrain(t *testing.T) {
	ctx := context.Background()

	t.Run("writes namespaced keys", func(t *testing.T) {
		agg, mr := setupTestAggregator(t, "keys")
		require.NoError(t, agg.Report(ctx, 2))
		require.NoError(t, agg.Report(ctx, 3))

		completed, err := mr.Get("expkit:keys:progress:completed")
		require.NoError(t, err)
		assert.Equal(t, "5", completed)

		delta, err := mr.Get("expkit:keys:progress:delta")
		require.NoError(t, err)
		assert.Equal(t, "5", delta)
		assert.True(t, mr.Exists("expkit:keys:progress:pending"))
	})

	t.Run("pools reports between drains", func(t *testing.T) {
		agg, mr := setupTestAggregator(t, "pool")
		require.NoError(t, agg.Report(ctx, 1))
		require.NoError(t, agg.Report(ctx, 2))

		u, err := agg.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, Update{Delta: 3, Completed: 3}, u)
		assert.False(t, mr.Exists("expkit:pool:progress:pending"))

		require.NoError(t, agg.Report(ctx, 4))
		u, err = agg.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, Update{Delta: 4, Completed: 7}, u)

		total, err := agg.Completed(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
	})

	t.Run("report of zero wakes drain", func(t *testing.T) {
		agg, _ := setupTestAggregator(t, "zero")
		require.NoError(t, agg.Report(ctx, 0))
		u, err := agg.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, Update{}, u)
	})

	t.Run("rejects negative counts", func(t *testing.T) {
		agg, mr := setupTestAggregator(t, "negative")
		assert.ErrorIs(t, agg.Report(ctx, -2), ErrNegativeCount)
		assert.False(t, mr.Exists("expkit:negative:progress:completed"))
	})

	t.Run("completed is zero before any report", func(t *testing.T) {
		agg, _ := setupTestAggregator(t, "fresh")
		total, err := agg.Completed(ctx)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		agg, mr := setupTestAggregator(t, "reset")
		require.NoError(t, agg.Report(ctx, 9))
		require.NoError(t, agg.Reset(ctx))

		assert.False(t, mr.Exists("expkit:reset:progress:completed"))
		assert.False(t, mr.Exists("expkit:reset:progress:pending"))
		total, err := agg.Completed(ctx)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestRedisAggregator_DrainBlocks(t *testing.T) {
	t.Run("without any report", func(t *testing.T) {
		agg, _ := setupTestAggregator(t, "idle")
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := agg.Drain(ctx)
		assert.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("until a report arrives from another client", func(t *testing.T) {
		agg, mr := setupTestAggregator(t, "remote")

		worker, err := NewRedisAggregator(&redis.Options{Addr: mr.Addr()}, "remote")
		require.NoError(t, err)
		defer worker.Close()

		go func() {
			time.Sleep(50 * time.Millisecond)
			worker.Report(context.Background(), 4)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		u, err := agg.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, Update{Delta: 4, Completed: 4}, u)
	})

	t.Run("names are isolated", func(t *testing.T) {
		agg, mr := setupTestAggregator(t, "mine")

		other, err := NewRedisAggregator(&redis.Options{Addr: mr.Addr()}, "other")
		require.NoError(t, err)
		defer other.Close()
		require.NoError(t, other.Report(context.Background(), 1))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err = agg.Drain(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRedisAggregator_ConcurrentReporters(t *testing.T) {
	const reporters = 8
	const perReporter = 25

	agg, mr := setupTestAggregator(t, "fanin")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < reporters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker, err := NewRedisAggregator(&redis.Options{Addr: mr.Addr()}, "fanin")
			if !assert.NoError(t, err) {
				return
			}
			defer worker.Close()
			for j := 0; j < perReporter; j++ {
				assert.NoError(t, worker.Report(ctx, 1))
			}
		}()
	}
	wg.Wait()

	u, err := agg.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, Update{Delta: reporters * perReporter, Completed: reporters * perReporter}, u)
}

func TestRedisAggregator_SecondWatcher(t *testing.T) {
	agg, _ := setupTestAggregator(t, "rewatch")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, agg.Report(ctx, 3))
	_, err := agg.Drain(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	pb := NewProgressBar(agg, 3, "sweep", WithColor(false))
	require.NoError(t, pb.PrintTo(ctx, &buf))
	assert.Contains(t, buf.String(), "3/3")
	assert.NoError(t, ctx.Err())
}
