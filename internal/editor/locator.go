package editor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/geom"
)

const (
	knobRadius  = 10.0
	gridSpacing = 100.0
)

// Locator is a draggable playhead over a time grid. Wheel input zooms the
// time axis only.
type Locator struct {
	mu       sync.Mutex
	trackMs  int64
	size     geom.Size
	origin   geom.Point
	view     *View
	x        float64 // playhead position in stage pixels
	handling bool
	dragging bool
	dirty    bool
	onSeek   func(ms int64)
}

// NewLocator returns a locator at position 0 over a track of trackMs.
func NewLocator(trackMs int64, size geom.Size) *Locator {
	if trackMs <= 0 {
		trackMs = 1
	}
	return &Locator{trackMs: trackMs, size: positiveSize(size), view: NewView(), dirty: true}
}

func (l *Locator) SetOrigin(x, y float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.origin = geom.NewPoint(x, y)
}

// OnSeek registers a callback run with the playhead position when a drag ends.
func (l *Locator) OnSeek(fn func(ms int64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSeek = fn
}

// Position returns the playhead in milliseconds.
func (l *Locator) Position() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(math.Round(l.x / l.size.Width * float64(l.trackMs)))
}

// SetPosition moves the playhead, e.g. as playback advances. It is ignored
// while the user drags the knob.
func (l *Locator) SetPosition(ms int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dragging {
		return
	}
	l.x = l.clampX(float64(ms) / float64(l.trackMs) * l.size.Width)
	l.dirty = true
}

func (l *Locator) Dragging() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dragging
}

func (l *Locator) View() geom.Matrix {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view.Matrix()
}

func (l *Locator) NeedsRedraw() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// knob is the grab area around the playhead, in stage coordinates.
func (l *Locator) knob() geom.Rect {
	return geom.NewRect(l.x-knobRadius, 0, knobRadius*2, l.size.Height)
}

// PointerDown grabs the playhead when the pointer is on it; anywhere else the
// following moves pan the view.
func (l *Locator) PointerDown(ev PointerEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handling = true
	x, y := l.view.ScreenToStage(ev.X-l.origin.X, ev.Y-l.origin.Y)
	l.dragging = l.knob().ContainsPoint(geom.NewPoint(x, y))
}

func (l *Locator) PointerMove(ev PointerEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.handling {
		return
	}
	if l.dragging {
		l.x = l.clampX(l.x + ev.MovementX/l.view.Zoom())
	} else {
		l.view.Pan(ev.MovementX, 0)
	}
	l.dirty = true
}

func (l *Locator) PointerUp(ev PointerEvent) {
	l.mu.Lock()
	if !l.handling {
		l.mu.Unlock()
		return
	}
	dragged := l.dragging
	l.handling = false
	l.dragging = false
	fn := l.onSeek
	ms := int64(math.Round(l.x / l.size.Width * float64(l.trackMs)))
	l.mu.Unlock()

	if dragged && fn != nil {
		fn(ms)
	}
}

// Wheel zooms the time axis by deltaY/200 around the pointer.
func (l *Locator) Wheel(ev WheelEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view.ZoomAroundX(ev.DeltaY/200, ev.X-l.origin.X)
	l.dirty = true
}

func (l *Locator) clampX(x float64) float64 {
	return math.Min(math.Max(x, 0), l.size.Width)
}

// Render draws the grid and the playhead and clears the redraw flag.
func (l *Locator) Render(s Surface) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.render(s)
}

// Frame renders only when something changed. It reports whether it drew.
func (l *Locator) Frame(s Surface) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty {
		return false
	}
	l.render(s)
	return true
}

// Run redraws onto s every interval while the locator is dirty, until ctx
// is cancelled.
func (l *Locator) Run(ctx context.Context, clk clock.Clock, interval time.Duration, s Surface) {
	t := clk.Every(interval, func() { l.Frame(s) })
	defer t.Stop()
	<-ctx.Done()
}

func (l *Locator) render(s Surface) {
	defer beginFrame(s)()
	l.dirty = false
	w, h := l.size.Width, l.size.Height
	m := l.view.Matrix()
	axis := geom.NewMatrix(m.A, 0, 0, 1, m.E, 0)

	s.Clear(geom.NewRect(0, 0, w, h))
	s.Save()
	s.FillRect(geom.NewRect(0, knobRadius*2, w, h-knobRadius*4), "#ccc")

	s.Save()
	s.Transform(axis)
	for gx := 0.0; gx < w; gx += gridSpacing {
		s.StrokeLine(gx, knobRadius*2, gx, h-knobRadius*2, "black", 1/m.A)
	}
	s.Restore()

	s.Save()
	s.Transform(axis)
	s.FillCircle(l.x, knobRadius, knobRadius, "red")
	s.StrokeLine(l.x, knobRadius*2, l.x, h-knobRadius*2, "red", 2)
	s.FillCircle(l.x, h-knobRadius, knobRadius, "red")
	s.Restore()

	s.Restore()
}
