package progress

import (
	"context"
	"fmt"
	"sync"
)

// Counter is an in-process Aggregator. Report never blocks.
type Counter struct {
	mu        sync.Mutex
	completed int64
	delta     int64
	pending   bool

	// signal holds at most one wake-up; Drain rechecks pending after receiving
	// it, so a stale wake-up is harmless.
	signal chan struct{}
}

// NewCounter returns a Counter with nothing reported.
func NewCounter() *Counter {
	return &Counter{signal: make(chan struct{}, 1)}
}

// Report adds n completed items and wakes one waiting Drain.
func (c *Counter) Report(_ context.Context, n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}

	c.mu.Lock()
	c.completed += n
	c.delta += n
	c.pending = true
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
	return nil
}

// Drain waits for a report, then returns and resets the pooled delta.
// It returns ctx.Err() if ctx is done first.
func (c *Counter) Drain(ctx context.Context) (Update, error) {
	for {
		select {
		case <-ctx.Done():
			return Update{}, ctx.Err()
		case <-c.signal:
		}

		c.mu.Lock()
		if !c.pending {
			c.mu.Unlock()
			continue
		}
		u := Update{Delta: c.delta, Completed: c.completed}
		c.delta = 0
		c.pending = false
		c.mu.Unlock()
		return u, nil
	}
}

// Completed returns the running total.
func (c *Counter) Completed(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed, nil
}
