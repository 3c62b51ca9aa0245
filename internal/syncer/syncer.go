// Package syncer keeps track of which lyric line is active while a track
// plays. Authoritative positions (seeks, the audio element's reported time)
// switch lines immediately; between them the syncer extrapolates the position
// on a poll tick and defers each line change to the exact boundary instant.
package syncer

import (
	"log"
	"sync"
	"time"

	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/lyric"
)

// DefaultPollInterval is the extrapolation tick, roughly one frame at 60Hz.
const DefaultPollInterval = 16 * time.Millisecond

// ChangeFunc receives the newly active range. It is called with the syncer's
// lock held and must not call back into the Syncer.
type ChangeFunc func(r *lyric.Range)

// Option configures a Syncer.
type Option func(*Syncer)

// WithPollInterval sets the extrapolation tick.
func WithPollInterval(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger used for line changes. A nil logger silences them.
func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// Syncer selects the active lyric range for a playback position.
type Syncer struct {
	clk      clock.Clock
	onChange ChangeFunc
	interval time.Duration
	logger   *log.Logger

	mu         sync.Mutex
	schedule   lyric.Schedule
	seekTime   int64         // last known position, ms
	prevTick   time.Time     // monotonic instant seekTime was last advanced from
	carry      time.Duration // sub-millisecond remainder of the extrapolation
	current    lyric.Range
	currentIdx int // -1 when no range is active
	scheduling bool
	pollTimer  clock.Timer
	syncTimer  clock.Timer // pending deferred transition, at most one
	syncGen    uint64      // bumped on every arm/cancel so stale firings are ignored
}

// New returns an idle Syncer over schedule.
func New(schedule lyric.Schedule, clk clock.Clock, onChange ChangeFunc, opts ...Option) *Syncer {
	if onChange == nil {
		onChange = func(*lyric.Range) {}
	}
	s := &Syncer{
		clk:        clk,
		onChange:   onChange,
		interval:   DefaultPollInterval,
		logger:     log.Default(),
		schedule:   schedule,
		currentIdx: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.prevTick = clk.Now()
	return s
}

// Current returns a copy of the active range, or nil.
func (s *Syncer) Current() *lyric.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentIdx < 0 {
		return nil
	}
	r := s.current
	return &r
}

// SeekTime returns the last position the syncer was given or extrapolated, in ms.
func (s *Syncer) SeekTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekTime
}

// Scheduling reports whether the poll tick is running.
func (s *Syncer) Scheduling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduling
}

// Pending reports whether a deferred transition is armed.
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncTimer != nil
}

// SetSchedule swaps in an edited schedule. Any pending transition was computed
// against the old boundaries and is cancelled; the active range is re-resolved
// on the next Sync.
func (s *Syncer) SetSchedule(schedule lyric.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPending()
	s.schedule = schedule
	if s.currentIdx >= len(schedule) {
		s.currentIdx = -1
	} else if s.currentIdx >= 0 {
		s.current = schedule[s.currentIdx]
	}
}

// Reset stops polling and forgets the active range and position without
// notifying, ready for another track.
func (s *Syncer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	s.currentIdx = -1
	s.current = lyric.Range{}
	s.seekTime = 0
	s.carry = 0
}

// Start begins polling. It is a no-op while already polling.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduling {
		return
	}
	s.scheduling = true
	s.prevTick = s.clk.Now()
	s.carry = 0
	s.pollTimer = s.clk.Every(s.interval, s.tick)
}

// Stop cancels polling and any pending transition. It is idempotent and safe
// on a Syncer that was never started. No notification fires after Stop
// returns until the syncer is driven again.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

func (s *Syncer) stop() {
	s.scheduling = false
	if s.pollTimer != nil {
		s.pollTimer.Stop()
		s.pollTimer = nil
	}
	s.cancelPending()
}

// Update advances the extrapolated position by the wall-clock time elapsed
// since the previous tick and syncs to it.
func (s *Syncer) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update()
}

func (s *Syncer) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// a tick may already be waiting on the lock when Stop runs
	if !s.scheduling {
		return
	}
	s.update()
}

func (s *Syncer) update() {
	now := s.clk.Now()
	elapsed := now.Sub(s.prevTick) + s.carry
	if elapsed < 0 {
		elapsed = 0
	}
	ms := elapsed.Milliseconds()
	s.carry = elapsed - time.Duration(ms)*time.Millisecond
	s.prevTick = now
	s.sync(s.seekTime+ms, true)
}

// Sync moves the syncer to seek (ms). fromPoll marks an extrapolated position
// from the poll tick; otherwise seek is authoritative and line changes apply
// immediately.
func (s *Syncer) Sync(seek int64, fromPoll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fromPoll {
		s.prevTick = s.clk.Now()
		s.carry = 0
	}
	s.sync(seek, fromPoll)
}

func (s *Syncer) sync(seek int64, fromPoll bool) {
	defer func() { s.seekTime = seek }()

	next, idx, ok := s.schedule.FindContaining(seek)
	if ok && s.currentIdx < 0 {
		s.cancelPending()
		s.setCurrent(idx, next)
		return
	}
	if !fromPoll {
		// an exact position: switch now, or drop whatever transition the
		// extrapolation had armed if it keeps the current line
		s.cancelPending()
		if ok && idx != s.currentIdx {
			s.setCurrent(idx, next)
		}
		return
	}
	if !ok || idx == s.currentIdx {
		// look one tick ahead so the change lands on the boundary itself
		// rather than on the first tick past it
		next, idx, ok = s.schedule.FindContaining(seek + s.interval.Milliseconds())
	}
	if ok && idx != s.currentIdx {
		s.arm(idx, next, seek)
	}
}

// arm replaces the pending transition with one to next at its start boundary.
func (s *Syncer) arm(idx int, next lyric.Range, seek int64) {
	s.cancelPending()
	delay := next.Start - seek
	if delay < 0 {
		delay = 0
	}
	gen := s.syncGen
	s.syncTimer = s.clk.AfterFunc(time.Duration(delay)*time.Millisecond, func() {
		s.fire(gen, idx, next)
	})
}

func (s *Syncer) fire(gen uint64, idx int, next lyric.Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.syncGen || s.syncTimer == nil {
		return
	}
	s.syncTimer = nil
	s.syncGen++
	s.seekTime = next.Start
	s.prevTick = s.clk.Now()
	s.carry = 0
	s.setCurrent(idx, next)
}

// cancelPending stops the deferred transition, if any. Must be called with mu held.
func (s *Syncer) cancelPending() {
	if s.syncTimer != nil {
		s.syncTimer.Stop()
		s.syncTimer = nil
	}
	s.syncGen++
}

// setCurrent makes r the active range and notifies. Must be called with mu held.
func (s *Syncer) setCurrent(idx int, r lyric.Range) {
	s.currentIdx = idx
	s.current = r
	if s.logger != nil {
		s.logger.Printf("lyric %s %s", lyric.FormatMs(r.Start), r.Text)
	}
	cp := r
	s.onChange(&cp)
}
