package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Renderer displays progress. RenderLoop calls Add for every drained delta
// and Close once, when it returns.
type Renderer interface {
	Add(n int64) error
	Close() error
}

const defaultBarWidth = 30

type barConfig struct {
	out   io.Writer
	width int
	color bool
	now   func() time.Time
}

// BarOption configures a Bar.
type BarOption func(*barConfig)

// WithOutput sets where the bar is drawn. Defaults to os.Stderr.
func WithOutput(w io.Writer) BarOption {
	return func(c *barConfig) { c.out = w }
}

// WithWidth sets the number of cells in the bar.
func WithWidth(n int) BarOption {
	return func(c *barConfig) {
		if n > 0 {
			c.width = n
		}
	}
}

// WithColor forces colour on or off. By default colour follows color.NoColor.
func WithColor(enabled bool) BarOption {
	return func(c *barConfig) { c.color = enabled }
}

func withClock(now func() time.Time) BarOption {
	return func(c *barConfig) { c.now = now }
}

// Bar is a single-line terminal progress bar, redrawn in place:
//
//	experiments:  50%|███████████████               | 3/6 [4s, 0.75it/s]
type Bar struct {
	mu      sync.Mutex
	cfg     barConfig
	fill    *color.Color
	desc    string
	total   int64
	current int64
	start   time.Time
	closed  bool
}

// NewBar returns a Bar counting towards total and draws it at 0.
func NewBar(desc string, total int64, opts ...BarOption) *Bar {
	cfg := barConfig{
		out:   os.Stderr,
		width: defaultBarWidth,
		color: !color.NoColor,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	fill := color.New(color.FgGreen)
	if cfg.color {
		fill.EnableColor()
	} else {
		fill.DisableColor()
	}

	b := &Bar{
		cfg:   cfg,
		fill:  fill,
		desc:  desc,
		total: total,
		start: cfg.now(),
	}
	b.draw()
	return b
}

// Add advances the bar by n and redraws it.
func (b *Bar) Add(n int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("progress bar is closed")
	}
	b.current += n
	return b.draw()
}

// Current returns how far the bar has advanced.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Close draws the bar a final time and ends the line. Safe to call more than once.
func (b *Bar) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.draw(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(b.cfg.out)
	return err
}

func (b *Bar) draw() error {
	_, err := fmt.Fprint(b.cfg.out, "\r"+b.line())
	return err
}

func (b *Bar) line() string {
	frac := 0.0
	if b.total > 0 {
		frac = float64(b.current) / float64(b.total)
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(b.cfg.width))

	elapsed := b.cfg.now().Sub(b.start)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(b.current) / elapsed.Seconds()
	}

	var sb strings.Builder
	if b.desc != "" {
		sb.WriteString(b.desc)
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "%3d%%|", int(frac*100))
	sb.WriteString(b.fill.Sprint(strings.Repeat("█", filled)))
	sb.WriteString(strings.Repeat(" ", b.cfg.width-filled))
	fmt.Fprintf(&sb, "| %d/%d [%s, %.2fit/s]", b.current, b.total, elapsed.Round(time.Second), rate)
	return sb.String()
}
