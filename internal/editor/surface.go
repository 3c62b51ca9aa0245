package editor

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sync"

	"github.com/keroxp/sounds/internal/geom"
)

// Surface is the subset of a 2D canvas context the editors draw with.
// Transform and Clip apply until the matching Restore.
type Surface interface {
	Clear(r geom.Rect)
	FillRect(r geom.Rect, color string)
	StrokeRect(r geom.Rect, color string, width float64)
	FillText(text string, x, y float64, font, color string)
	StrokeLine(x1, y1, x2, y2 float64, color string, width float64)
	FillCircle(cx, cy, r float64, color string)
	Clip(r geom.Rect)
	Save()
	Restore()
	Transform(m geom.Matrix)
}

// FrameSurface is a Surface that wants to know where each frame starts
// and ends.
type FrameSurface interface {
	Surface
	BeginFrame()
	EndFrame()
}

func beginFrame(s Surface) func() {
	f, ok := s.(FrameSurface)
	if !ok {
		return func() {}
	}
	f.BeginFrame()
	return f.EndFrame
}

// SVGSurface renders drawing calls into an SVG document. Bytes returns the
// document drawn so far; LastFrame returns the last complete frame and may be
// called while another frame is being drawn.
type SVGSurface struct {
	size  geom.Size
	body  bytes.Buffer
	open  []int // groups opened since each Save
	clips int

	mu    sync.Mutex
	frame []byte
}

// NewSVGSurface returns an empty surface of the given size.
func NewSVGSurface(size geom.Size) *SVGSurface {
	return &SVGSurface{size: size, open: []int{0}}
}

// BeginFrame starts a new document.
func (s *SVGSurface) BeginFrame() {
	s.body.Reset()
	s.open = []int{0}
	s.clips = 0
}

// EndFrame publishes the document as the last complete frame.
func (s *SVGSurface) EndFrame() {
	doc := s.Bytes()
	s.mu.Lock()
	s.frame = doc
	s.mu.Unlock()
}

// LastFrame returns the last complete frame, or nil before the first.
func (s *SVGSurface) LastFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *SVGSurface) openGroup(attrs string) {
	fmt.Fprintf(&s.body, "  <g %s>\n", attrs)
	s.open[len(s.open)-1]++
}

// Clear discards everything drawn so far. Only a clear of the full surface
// outside any Save is honored; SVG has no way to erase part of a document.
func (s *SVGSurface) Clear(r geom.Rect) {
	if len(s.open) != 1 || s.open[0] != 0 {
		return
	}
	if r.ContainsRect(geom.NewRect(0, 0, s.size.Width, s.size.Height)) {
		s.body.Reset()
		s.clips = 0
	}
}

func (s *SVGSurface) FillRect(r geom.Rect, color string) {
	fmt.Fprintf(&s.body, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
		r.X, r.Y, r.Width, r.Height, escapeAttr(color))
}

func (s *SVGSurface) StrokeRect(r geom.Rect, color string, width float64) {
	fmt.Fprintf(&s.body, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
		r.X, r.Y, r.Width, r.Height, escapeAttr(color), width)
}

func (s *SVGSurface) FillText(text string, x, y float64, font, color string) {
	fmt.Fprintf(&s.body, `  <text x="%.2f" y="%.2f" style="font: %s" fill="%s" dominant-baseline="middle">`,
		x, y, escapeAttr(font), escapeAttr(color))
	xml.EscapeText(&s.body, []byte(text))
	s.body.WriteString("</text>\n")
}

func (s *SVGSurface) StrokeLine(x1, y1, x2, y2 float64, color string, width float64) {
	fmt.Fprintf(&s.body, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"/>`+"\n",
		x1, y1, x2, y2, escapeAttr(color), width)
}

func (s *SVGSurface) FillCircle(cx, cy, r float64, color string) {
	fmt.Fprintf(&s.body, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n", cx, cy, r, escapeAttr(color))
}

func (s *SVGSurface) Clip(r geom.Rect) {
	s.clips++
	id := fmt.Sprintf("clip%d", s.clips)
	fmt.Fprintf(&s.body, `  <clipPath id="%s"><rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/></clipPath>`+"\n",
		id, r.X, r.Y, r.Width, r.Height)
	s.openGroup(fmt.Sprintf(`clip-path="url(#%s)"`, id))
}

func (s *SVGSurface) Save() {
	s.open = append(s.open, 0)
}

// Restore closes the groups opened since the matching Save. An unmatched
// Restore is ignored.
func (s *SVGSurface) Restore() {
	if len(s.open) == 1 {
		return
	}
	n := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	for range n {
		s.body.WriteString("  </g>\n")
	}
}

func (s *SVGSurface) Transform(m geom.Matrix) {
	s.openGroup(fmt.Sprintf(`transform="matrix(%g %g %g %g %g %g)"`, m.A, m.B, m.C, m.D, m.E, m.F))
}

// Bytes returns the complete document, closing any groups still open.
func (s *SVGSurface) Bytes() []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		s.size.Width, s.size.Height, s.size.Width, s.size.Height)
	out.Write(s.body.Bytes())
	for _, n := range s.open {
		for range n {
			out.WriteString("  </g>\n")
		}
	}
	out.WriteString("</svg>\n")
	return out.Bytes()
}

func escapeAttr(v string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(v))
	return b.String()
}
