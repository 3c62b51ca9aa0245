// Package editor implements the timeline editors: the lyric range editor,
// where dragging a range edge trims it, and the locator, a draggable playhead.
// Both keep a pan/zoom view transform from stage coordinates to canvas pixels
// and draw through the Surface interface.
package editor

import (
	"log"
	"math"

	"github.com/keroxp/sounds/internal/geom"
)

// Zoom bounds shared by both editors.
const (
	MinZoom = 0.1
	MaxZoom = 4.0
)

// View is the stage-to-canvas transform of one editor surface. It only ever
// holds a positive scale and a translation, so it is always invertible.
type View struct {
	m geom.Matrix
}

// NewView returns an unzoomed, unpanned view.
func NewView() *View {
	return &View{m: geom.Identity()}
}

// Matrix returns a copy of the current transform.
func (v *View) Matrix() geom.Matrix { return v.m }

// Zoom is the horizontal scale.
func (v *View) Zoom() float64 { return v.m.A }

// ScreenToStage maps a canvas position back to stage coordinates.
func (v *View) ScreenToStage(x, y float64) (float64, float64) {
	inv, err := v.m.Invert()
	if err != nil {
		// zoom clamping keeps the scale away from zero
		log.Printf("editor: view not invertible (%v), resetting", err)
		v.m.Reset()
		return x, y
	}
	return inv.Cross(x, y)
}

// StageToScreen maps a stage position to the canvas.
func (v *View) StageToScreen(x, y float64) (float64, float64) {
	return v.m.Cross(x, y)
}

// Pan moves the view by a canvas-pixel delta.
func (v *View) Pan(dx, dy float64) {
	v.m.E += dx
	v.m.F += dy
}

// ZoomAround adds delta to the uniform scale, clamped to [MinZoom, MaxZoom],
// keeping the canvas point (x, y) fixed on screen.
func (v *View) ZoomAround(delta, x, y float64) {
	next := clampZoom(v.m.A + delta)
	ds := next / v.m.A
	v.m.E = (v.m.E-x)*ds + x
	v.m.F = (v.m.F-y)*ds + y
	v.m.A = next
	v.m.D = next
}

// ZoomAroundX zooms the horizontal axis only, keeping canvas x fixed.
func (v *View) ZoomAroundX(delta, x float64) {
	next := clampZoom(v.m.A + delta)
	ds := next / v.m.A
	v.m.E = (v.m.E-x)*ds + x
	v.m.A = next
}

func clampZoom(z float64) float64 {
	return math.Min(math.Max(z, MinZoom), MaxZoom)
}
