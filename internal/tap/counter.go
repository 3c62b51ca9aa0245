// Package tap records lyric boundaries tapped in time with a playing track
// and turns them into a schedule.
package tap

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/lyric"
)

// ErrNotStarted is returned by Mark before Start.
var ErrNotStarted = errors.New("tap: counter not started")

// Counter measures taps against the instant playback started. Each mark
// closes the range opened by the previous one (or by the start).
type Counter struct {
	clk clock.Clock

	mu      sync.Mutex
	started bool
	origin  time.Time // clock reading at Start
	open    int64     // start of the range the next mark closes
	ranges  []lyric.Range
}

// New returns an idle counter.
func New(clk clock.Clock) *Counter {
	return &Counter{clk: clk}
}

// elapsed measures from the Start reading, so the monotonic clock is used
// when there is one. Must be called with mu held.
func (c *Counter) elapsed() int64 {
	return c.clk.Now().Sub(c.origin).Milliseconds()
}

// Start (re)starts the clock at playback position 0 and forgets all marks.
func (c *Counter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	c.origin = c.clk.Now()
	c.open = 0
	c.ranges = nil
}

// Started reports whether Start was called.
func (c *Counter) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Elapsed is the playback position in ms.
func (c *Counter) Elapsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return 0
	}
	return c.elapsed()
}

// Mark closes the open range at the current position and opens the next.
func (c *Counter) Mark() (lyric.Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return lyric.Range{}, ErrNotStarted
	}
	at := c.elapsed()
	r := lyric.Range{Start: c.open, End: at}
	c.ranges = append(c.ranges, r)
	c.open = at
	return r, nil
}

// Undo drops the last mark and reopens its range.
func (c *Counter) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.ranges)
	if n == 0 {
		return false
	}
	c.open = c.ranges[n-1].Start
	c.ranges = c.ranges[:n-1]
	return true
}

// Ranges returns the tapped ranges.
func (c *Counter) Ranges() []lyric.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]lyric.Range, len(c.ranges))
	copy(out, c.ranges)
	return out
}

// Schedule pairs the tapped ranges with texts, in order. Ranges without a
// text, or with no length, are left out.
func (c *Counter) Schedule(texts []string) lyric.Schedule {
	var s lyric.Schedule
	for i, r := range c.Ranges() {
		if i >= len(texts) || r.Start >= r.End {
			continue
		}
		r.Text = texts[i]
		s = append(s, r)
	}
	return s
}

// String lists the ranges one per line as [MM:SS:mmm-MM:SS:mmm].
func (c *Counter) String() string {
	var b strings.Builder
	for _, r := range c.Ranges() {
		b.WriteString("[" + lyric.FormatMs(r.Start) + "-" + lyric.FormatMs(r.End) + "]\n")
	}
	return b.String()
}
