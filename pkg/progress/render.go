package progress

import (
	"context"
	"fmt"
	"io"
)

// RenderLoop drains d and advances r until the completed count reaches total,
// then closes r. A total of zero or less closes r straight away.
//
// RenderLoop returns early with ctx.Err() when ctx is cancelled, or with the
// error of a failed Drain; r is closed in every case.
func RenderLoop(ctx context.Context, d Drainer, total int64, r Renderer) error {
	if total <= 0 {
		return r.Close()
	}

	for {
		u, err := d.Drain(ctx)
		if err != nil {
			r.Close()
			return err
		}
		if err := r.Add(u.Delta); err != nil {
			r.Close()
			return fmt.Errorf("failed to render progress: %w", err)
		}
		if u.Completed >= total {
			return r.Close()
		}
	}
}

// ProgressBar pairs an Aggregator with a Bar. Hand Reporter() to the workers
// and call PrintUntilDone on the coordinating goroutine.
type ProgressBar struct {
	agg   Aggregator
	total int64
	desc  string
	opts  []BarOption
}

// NewProgressBar returns a ProgressBar that finishes once agg reaches total.
func NewProgressBar(agg Aggregator, total int64, desc string, opts ...BarOption) *ProgressBar {
	return &ProgressBar{
		agg:   agg,
		total: total,
		desc:  desc,
		opts:  opts,
	}
}

// Reporter returns the handle workers report completions to.
func (p *ProgressBar) Reporter() Reporter { return p.agg }

// Total returns the target count.
func (p *ProgressBar) Total() int64 { return p.total }

// PrintUntilDone draws the bar and blocks until the target is reached or ctx is done.
// When the aggregator already reached the target (e.g. an earlier watcher drained
// it), the bar is drawn full and PrintUntilDone returns at once.
func (p *ProgressBar) PrintUntilDone(ctx context.Context) error {
	return p.print(ctx, p.opts)
}

// PrintTo is PrintUntilDone drawing to w.
func (p *ProgressBar) PrintTo(ctx context.Context, w io.Writer) error {
	return p.print(ctx, append(append([]BarOption{}, p.opts...), WithOutput(w)))
}

func (p *ProgressBar) print(ctx context.Context, opts []BarOption) error {
	completed, err := p.agg.Completed(ctx)
	if err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}

	bar := NewBar(p.desc, p.total, opts...)
	if p.total > 0 && completed >= p.total {
		if err := bar.Add(completed); err != nil {
			bar.Close()
			return fmt.Errorf("failed to render progress: %w", err)
		}
		return bar.Close()
	}
	return RenderLoop(ctx, p.agg, p.total, bar)
}
