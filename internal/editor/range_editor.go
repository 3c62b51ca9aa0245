package editor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/geom"
	"github.com/keroxp/sounds/internal/lyric"
)

const (
	// DefaultHitWidth is the grab margin around range edges, in canvas pixels.
	DefaultHitWidth = 5.0
	// SharedBoundaryGap is the largest gap (ms) between two ranges whose
	// facing edges are dragged together.
	SharedBoundaryGap = 10
)

// Colors used when drawing the range editor.
const (
	backgroundColor = "#2E2E2E"
	rangeColor      = "#1E7D2E"
	rangeBorder     = "black"
	textColor       = "#fff"
	textFont        = "22px Arial"
)

// Hit is the result of hit-testing a canvas position against the ranges.
type Hit struct {
	Kind  TrimKind
	Index int
}

// RangeEditor edits lyric range boundaries on a horizontal timeline. The
// whole track spans the canvas width at zoom 1.
type RangeEditor struct {
	mu       sync.Mutex
	schedule lyric.Schedule
	trackMs  int64
	size     geom.Size
	origin   geom.Point // canvas position on the page
	hitWidth float64
	view     *View

	handling bool // a pointer went down on the canvas and is not up yet
	trimmer  *Trimmer
	cursor   string
	dirty    bool
	onEdited func(lyric.Schedule)
}

// NewRangeEditor edits schedule in place. trackMs is the track duration; when
// it is unknown (<= 0) the end of the last range is used.
func NewRangeEditor(schedule lyric.Schedule, trackMs int64, size geom.Size) *RangeEditor {
	if trackMs < schedule.End() {
		trackMs = schedule.End()
	}
	if trackMs <= 0 {
		trackMs = 1
	}
	return &RangeEditor{
		schedule: schedule,
		trackMs:  trackMs,
		size:     positiveSize(size),
		hitWidth: DefaultHitWidth,
		view:     NewView(),
		cursor:   TrimNone.Cursor(),
		dirty:    true,
	}
}

// SetOrigin records where the canvas sits on the page so page coordinates
// can be made canvas-relative.
func (e *RangeEditor) SetOrigin(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.origin = geom.NewPoint(x, y)
}

// OnEdited registers a callback run with a snapshot of the schedule after
// every finished trim gesture.
func (e *RangeEditor) OnEdited(fn func(lyric.Schedule)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEdited = fn
}

// Schedule returns a copy of the edited ranges.
func (e *RangeEditor) Schedule() lyric.Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schedule.Clone()
}

// View returns a copy of the current view transform.
func (e *RangeEditor) View() geom.Matrix {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Matrix()
}

// Cursor is the cursor for the last hovered position.
func (e *RangeEditor) Cursor() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Trimming reports the active trim, if any.
func (e *RangeEditor) Trimming() (Hit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.trimmer == nil {
		return Hit{}, false
	}
	return Hit{Kind: e.trimmer.Kind(), Index: e.trimmer.Index()}, true
}

// NeedsRedraw reports whether state changed since the last Render.
func (e *RangeEditor) NeedsRedraw() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// PointerDown starts a trim when the pointer is on a range edge, and a pan
// otherwise.
func (e *RangeEditor) PointerDown(ev PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handling = true
	hit := e.hitTest(ev.X, ev.Y)
	e.cursor = hit.Kind.Cursor()
	if hit.Kind == TrimNone {
		e.trimmer = nil
		return
	}
	e.trimmer = newTrimmer(hit.Kind, hit.Index, e.schedule, e.trackMs, e.size.Width)
}

// PointerMove continues the current gesture, or only updates the hover
// cursor when no gesture is in progress.
func (e *RangeEditor) PointerMove(ev PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.handling {
		e.cursor = e.hitTest(ev.X, ev.Y).Kind.Cursor()
		return
	}
	if e.trimmer != nil {
		e.trimmer.AddDelta(ev.MovementX / e.view.Zoom())
	} else {
		e.view.Pan(ev.MovementX, 0)
	}
	e.dirty = true
}

// PointerUp ends the gesture.
func (e *RangeEditor) PointerUp(ev PointerEvent) {
	e.mu.Lock()
	if !e.handling {
		e.mu.Unlock()
		return
	}
	trimmed := e.trimmer != nil
	e.handling = false
	e.trimmer = nil
	e.dirty = true
	fn := e.onEdited
	snapshot := e.schedule.Clone()
	e.mu.Unlock()

	if trimmed && fn != nil {
		fn(snapshot)
	}
}

// Wheel zooms around the pointer by deltaY/1000.
func (e *RangeEditor) Wheel(ev WheelEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.ZoomAround(ev.DeltaY/1000, ev.X-e.origin.X, ev.Y-e.origin.Y)
	e.dirty = true
}

// Hover returns the cursor for a free pointer move at page position x, y.
func (e *RangeEditor) Hover(x, y float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursor = e.hitTest(x, y).Kind.Cursor()
	return e.cursor
}

// HitTest classifies a page position.
func (e *RangeEditor) HitTest(x, y float64) Hit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hitTest(x, y)
}

// hitTest checks each range in order: the zone just inside its left edge
// trims the start, the zone just inside its right edge trims the end, and the
// strip straddling its right edge moves a boundary shared with the next range.
// The first range that matches wins. Must be called with mu held.
func (e *RangeEditor) hitTest(pageX, pageY float64) Hit {
	x, _ := e.view.ScreenToStage(pageX-e.origin.X, pageY-e.origin.Y)
	hit := e.hitWidth / e.view.Zoom()
	for i, r := range e.schedule {
		left, right := e.msToStage(r.Start), e.msToStage(r.End)
		w2 := math.Min(hit*5, (right-left)/2)
		kind := TrimNone
		switch {
		case left+hit <= x && x < left+w2:
			kind = TrimStart
		case right-w2 <= x && x < right-hit:
			kind = TrimEnd
		}
		if i < len(e.schedule)-1 {
			gap := e.schedule[i+1].Start - r.End
			if gap < SharedBoundaryGap && right-hit <= x && x < right+hit {
				kind = TrimShared
			}
		}
		if kind != TrimNone {
			return Hit{Kind: kind, Index: i}
		}
	}
	return Hit{Kind: TrimNone, Index: -1}
}

// positiveSize keeps both extents at least one pixel so pixel to
// millisecond ratios stay finite.
func positiveSize(s geom.Size) geom.Size {
	if !(s.Width >= 1) || math.IsInf(s.Width, 0) {
		s.Width = 1
	}
	if !(s.Height >= 1) || math.IsInf(s.Height, 0) {
		s.Height = 1
	}
	return s
}

func (e *RangeEditor) msToStage(ms int64) float64 {
	return float64(ms) / float64(e.trackMs) * e.size.Width
}

// Render draws the editor and clears the redraw flag.
func (e *RangeEditor) Render(s Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.render(s)
}

func (e *RangeEditor) render(s Surface) {
	defer beginFrame(s)()
	e.dirty = false
	w, h := e.size.Width, e.size.Height
	m := e.view.Matrix()

	s.Clear(geom.NewRect(0, 0, w, h))
	s.Save()
	s.FillRect(geom.NewRect(0, 0, w, h), backgroundColor)
	s.Transform(geom.NewMatrix(m.A, 0, 0, m.D, m.E, 0))
	for _, r := range e.schedule {
		left, right := e.msToStage(r.Start), e.msToStage(r.End)
		box := geom.NewRect(left, 0, right-left, h)
		s.FillRect(box, rangeColor)

		s.Save()
		s.Clip(box)
		s.FillText(r.Text, left+10, h/2, textFont, textColor)
		s.Restore()

		s.StrokeRect(box, rangeBorder, 1)
	}
	s.Restore()
}

// Frame renders only when something changed. It reports whether it drew.
func (e *RangeEditor) Frame(s Surface) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return false
	}
	e.render(s)
	return true
}

// Run redraws onto s every interval while the editor is dirty, until ctx
// is cancelled.
func (e *RangeEditor) Run(ctx context.Context, clk clock.Clock, interval time.Duration, s Surface) {
	t := clk.Every(interval, func() { e.Frame(s) })
	defer t.Stop()
	<-ctx.Done()
}
