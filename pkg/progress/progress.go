package progress

import (
	"context"
	"errors"
)

// ErrNegativeCount is returned by Report for n < 0; the completed count never decreases.
var ErrNegativeCount = errors.New("progress count must not be negative")

// Update is the result of one Drain.
type Update struct {
	// Delta is the sum of all reports since the previous Drain.
	Delta int64
	// Completed is the running total of all reports.
	Completed int64
}

// Reporter is the producer side, safe to share between any number of workers.
type Reporter interface {
	Report(ctx context.Context, n int64) error
}

// Drainer is the consumer side.
type Drainer interface {
	// Drain blocks until at least one Report has happened since the previous
	// Drain, then resets the pooled delta and returns it. Every report is
	// observed by exactly one Drain.
	Drain(ctx context.Context) (Update, error)
}

// Aggregator is a shared progress counter.
type Aggregator interface {
	Reporter
	Drainer
	// Completed returns the running total without draining.
	Completed(ctx context.Context) (int64, error)
}
