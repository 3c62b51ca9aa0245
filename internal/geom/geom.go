// Package geom holds the small set of 2D value types used for hit-testing
// and layout on the timeline surfaces, plus the affine Matrix that maps
// stage coordinates to screen pixels.
package geom

import "math"

// Point is a position in either stage or screen space.
type Point struct {
	X, Y float64
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Point
	Size
}

// EdgeInsets describes padding around a rect.
type EdgeInsets struct {
	Left, Top, Right, Bottom float64
}

func NewPoint(x, y float64) Point { return Point{X: x, Y: y} }

func NewSize(width, height float64) Size { return Size{Width: width, Height: height} }

func NewRect(x, y, width, height float64) Rect {
	return Rect{Point: Point{X: x, Y: y}, Size: Size{Width: width, Height: height}}
}

func NewEdgeInsets(left, top, right, bottom float64) EdgeInsets {
	return EdgeInsets{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Area returns width * height.
func (s Size) Area() float64 { return s.Width * s.Height }

// SqrtArea returns the side of the square with the same area.
func (s Size) SqrtArea() float64 { return math.Sqrt(s.Width * s.Height) }

func (s Size) Scale(f float64) Size { return Size{Width: s.Width * f, Height: s.Height * f} }

func (s Size) Equals(o Size) bool { return s.Width == o.Width && s.Height == o.Height }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ContainsPoint reports whether p lies inside r. All four edges are inclusive.
func (r Rect) ContainsPoint(p Point) bool {
	return r.X <= p.X && p.X <= r.Right() && r.Y <= p.Y && p.Y <= r.Bottom()
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return r.X <= o.X && o.Right() <= r.Right() && r.Y <= o.Y && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and o overlap. Rects that only touch count as
// intersecting.
func (r Rect) Intersects(o Rect) bool {
	c1, c2 := r.Center(), o.Center()
	return math.Abs(c1.X-c2.X) <= r.Width/2+o.Width/2 &&
		math.Abs(c1.Y-c2.Y) <= r.Height/2+o.Height/2
}

// Extend grows r in place to the bounding box of r and o.
func (r *Rect) Extend(o Rect) {
	left, top, right, bottom := r.X, r.Y, r.Right(), r.Bottom()
	if o.X < left {
		left = o.X
	}
	if right < o.Right() {
		right = o.Right()
	}
	if o.Y < top {
		top = o.Y
	}
	if bottom < o.Bottom() {
		bottom = o.Bottom()
	}
	r.X, r.Y = left, top
	r.Width, r.Height = right-left, bottom-top
}

// Scale multiplies position and size of r by sx and sy.
func (r Rect) Scale(sx, sy float64) Rect {
	return NewRect(r.X*sx, r.Y*sy, r.Width*sx, r.Height*sy)
}

func (r Rect) Equals(o Rect) bool {
	return r.X == o.X && r.Y == o.Y && r.Width == o.Width && r.Height == o.Height
}

// Inset shrinks r by the given insets.
func (r Rect) Inset(in EdgeInsets) Rect {
	return NewRect(r.X+in.Left, r.Y+in.Top, r.Width-in.Left-in.Right, r.Height-in.Top-in.Bottom)
}

func (in EdgeInsets) Scale(s float64) EdgeInsets {
	return EdgeInsets{Left: in.Left * s, Top: in.Top * s, Right: in.Right * s, Bottom: in.Bottom * s}
}

// NormalizeRect expresses rect in units of inSize, so that a rect covering the
// whole of inSize becomes {0, 0, 1, 1}.
func NormalizeRect(rect Rect, inSize Size) Rect {
	return NewRect(
		rect.X/inSize.Width,
		rect.Y/inSize.Height,
		rect.Width/inSize.Width,
		rect.Height/inSize.Height,
	)
}

// RelativeRect places a normalized rect inside rect. It is the inverse of
// NormalizeRect when rect is anchored at the origin.
func RelativeRect(rect, normalized Rect) Rect {
	return NewRect(
		rect.X+rect.Width*normalized.X,
		rect.Y+rect.Height*normalized.Y,
		rect.Width*normalized.Width,
		rect.Height*normalized.Height,
	)
}
