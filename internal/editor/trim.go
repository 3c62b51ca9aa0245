package editor

import "github.com/keroxp/sounds/internal/lyric"

// TrimKind says which boundaries a drag moves.
type TrimKind int

const (
	TrimNone TrimKind = iota
	TrimStart
	TrimEnd
	TrimShared // the end of range i together with the start of range i+1
)

func (k TrimKind) String() string {
	switch k {
	case TrimStart:
		return "start"
	case TrimEnd:
		return "end"
	case TrimShared:
		return "end-start"
	}
	return "none"
}

// Cursor is the CSS cursor shown over a hit zone.
func (k TrimKind) Cursor() string {
	switch k {
	case TrimStart:
		return "e-resize"
	case TrimEnd:
		return "w-resize"
	case TrimShared:
		return "ew-resize"
	}
	return "default"
}

// Trimmer applies drag deltas to one range (or a range and its successor)
// while keeping the schedule sorted and non-overlapping. Every range keeps at
// least one millisecond of length.
type Trimmer struct {
	kind     TrimKind
	index    int
	schedule lyric.Schedule
	trackMs  int64
	msPerPx  float64
	carry    float64 // sub-millisecond remainder of previous deltas
}

func newTrimmer(kind TrimKind, index int, schedule lyric.Schedule, trackMs int64, stageWidth float64) *Trimmer {
	return &Trimmer{
		kind:     kind,
		index:    index,
		schedule: schedule,
		trackMs:  trackMs,
		msPerPx:  float64(trackMs) / stageWidth,
	}
}

func (t *Trimmer) Kind() TrimKind { return t.kind }

func (t *Trimmer) Index() int { return t.index }

// AddDelta moves the boundaries by dx stage pixels.
func (t *Trimmer) AddDelta(dx float64) {
	t.AddTime(dx * t.msPerPx)
}

// AddTime moves the boundaries by dt milliseconds.
func (t *Trimmer) AddTime(dt float64) {
	dt += t.carry
	step := int64(dt)
	t.carry = dt - float64(step)
	if step == 0 {
		return
	}
	s := t.schedule
	r := &s[t.index]
	switch t.kind {
	case TrimStart:
		prevEnd := int64(0)
		if t.index > 0 {
			prevEnd = s[t.index-1].End
		}
		r.Start = clamp(r.Start+step, prevEnd, r.End-1)
	case TrimEnd:
		nextStart := t.trackMs
		if t.index < len(s)-1 {
			nextStart = s[t.index+1].Start
		}
		r.End = clamp(r.End+step, r.Start+1, nextStart)
	case TrimShared:
		next := &s[t.index+1]
		r.End = clamp(r.End+step, r.Start+1, next.End-1)
		next.Start = clamp(next.Start+step, r.End, next.End-1)
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
