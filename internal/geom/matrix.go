package geom

import (
	"errors"
	"math"
)

// ErrSingular is returned by Invert when the linear part has a zero determinant.
var ErrSingular = errors.New("geom: singular matrix")

// Matrix is a 2D affine transform laid out like the canvas API:
//
//	| A C E |     | scaleX skewY tx |
//	| B D F | <-> | skewX scaleY ty |
//	| 0 0 1 |     | 0      0     1  |
//
// The zero value is not the identity; use Identity.
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

func NewMatrix(a, b, c, d, e, f float64) Matrix {
	return Matrix{A: a, B: b, C: c, D: d, E: e, F: f}
}

// Clone returns a copy of m.
func (m *Matrix) Clone() Matrix { return *m }

// Set overwrites all six coefficients.
func (m *Matrix) Set(a, b, c, d, e, f float64) *Matrix {
	m.A, m.B, m.C, m.D, m.E, m.F = a, b, c, d, e, f
	return m
}

// Reset turns m back into the identity.
func (m *Matrix) Reset() {
	*m = Identity()
}

// Determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.D - m.B*m.C
}

// Invert returns the inverse transform, or ErrSingular when the scale has
// collapsed to zero.
func (m Matrix) Invert() (Matrix, error) {
	n := m.Determinant()
	if n == 0 || math.IsNaN(n) {
		return Matrix{}, ErrSingular
	}
	return Matrix{
		A: m.D / n,
		B: -m.B / n,
		C: -m.C / n,
		D: m.A / n,
		E: (m.C*m.F - m.D*m.E) / n,
		F: -(m.A*m.F - m.B*m.E) / n,
	}, nil
}

// Append multiplies m by o on the right (m = m * o), so o is applied to points
// before m.
//
//	| a c e |   | g i k |   | ag+ch ai+cj ak+cl+e |
//	| b d f | * | h j l | = | bg+dh bi+dj bk+dl+f |
func (m *Matrix) Append(o Matrix) *Matrix {
	a, b, c, d, e, f := m.A, m.B, m.C, m.D, m.E, m.F
	m.A = a*o.A + c*o.B
	m.C = a*o.C + c*o.D
	m.E = a*o.E + c*o.F + e
	m.B = b*o.A + d*o.B
	m.D = b*o.C + d*o.D
	m.F = b*o.E + d*o.F + f
	return m
}

// Prepend multiplies m by o on the left (m = o * m), so o is applied to points
// after m.
func (m *Matrix) Prepend(o Matrix) *Matrix {
	a, b, c, d, e, f := m.A, m.B, m.C, m.D, m.E, m.F
	m.A = o.A*a + o.C*b
	m.C = o.A*c + o.C*d
	m.E = o.A*e + o.C*f + o.E
	m.B = o.B*a + o.D*b
	m.D = o.B*c + o.D*d
	m.F = o.B*e + o.D*f + o.F
	return m
}

func (m *Matrix) Scale(sx, sy float64) *Matrix {
	return m.Prepend(Matrix{A: sx, D: sy})
}

// Rotate rotates by theta radians.
func (m *Matrix) Rotate(theta float64) *Matrix {
	cos, sin := math.Cos(theta), math.Sin(theta)
	return m.Prepend(Matrix{A: cos, B: sin, C: -sin, D: cos})
}

func (m *Matrix) Translate(tx, ty float64) *Matrix {
	return m.Prepend(Matrix{A: 1, D: 1, E: tx, F: ty})
}

func (m *Matrix) Skew(sx, sy float64) *Matrix {
	return m.Prepend(Matrix{A: 1, B: sy, C: sx, D: 1})
}

// Cross applies the full transform to the point (x, y).
func (m Matrix) Cross(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

func (m Matrix) MapPoint(p Point) Point {
	x, y := m.Cross(p.X, p.Y)
	return Point{X: x, Y: y}
}

// MapSize scales s by the diagonal of the linear part. Translation does not
// apply to sizes.
func (m Matrix) MapSize(s Size) Size {
	return Size{Width: s.Width * m.A, Height: s.Height * m.D}
}

// MapRect maps the origin of r as a point and its extent as a size.
func (m Matrix) MapRect(r Rect) Rect {
	return Rect{Point: m.MapPoint(r.Point), Size: m.MapSize(r.Size)}
}

// ApplyToPoint maps p in place using only the scale and translation parts;
// rotation and skew are ignored.
func (m Matrix) ApplyToPoint(p *Point) {
	p.X = p.X*m.A + m.E
	p.Y = p.Y*m.D + m.F
}

// ApplyToSize scales s in place, like MapSize.
func (m Matrix) ApplyToSize(s *Size) {
	s.Width *= m.A
	s.Height *= m.D
}

// ApplyTo maps r in place: its origin as a point, its extent as a size.
func (m Matrix) ApplyTo(r *Rect) {
	m.ApplyToPoint(&r.Point)
	m.ApplyToSize(&r.Size)
}

// Equals compares coefficients exactly.
func (m Matrix) Equals(o Matrix) bool {
	return m.A == o.A && m.B == o.B && m.C == o.C && m.D == o.D && m.E == o.E && m.F == o.F
}
