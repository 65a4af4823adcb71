package native

import "math"

const epsilon = 0.0001

// Offset is a point or displacement in logical pixels.
type Offset struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width and height in logical pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect is a rectangle given by its left, top, right and bottom edges.
type Rect struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// RectFromLTWH constructs a Rect from left, top, width, height values.
func RectFromLTWH(left, top, width, height float64) Rect {
	return Rect{
		Left:   left,
		Top:    top,
		Right:  left + width,
		Bottom: top + height,
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Size returns the size of the rectangle.
func (r Rect) Size() Size {
	return Size{Width: r.Width(), Height: r.Height()}
}

// IsEmpty returns true if the rectangle has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Approx reports whether r and other agree within a small tolerance.
func (r Rect) Approx(other Rect) bool {
	return floatEqual(r.Left, other.Left) && floatEqual(r.Top, other.Top) &&
		floatEqual(r.Right, other.Right) && floatEqual(r.Bottom, other.Bottom)
}

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Affine is a 2D affine transform in row-major order:
//
//	| A C TX |
//	| B D TY |
//	| 0 0 1  |
type Affine struct {
	A  float64 `json:"a" yaml:"a"`
	B  float64 `json:"b" yaml:"b"`
	C  float64 `json:"c" yaml:"c"`
	D  float64 `json:"d" yaml:"d"`
	TX float64 `json:"tx" yaml:"tx"`
	TY float64 `json:"ty" yaml:"ty"`
}

// Identity is the transform that leaves every point in place.
var Identity = Affine{A: 1, D: 1}

// Translate returns a pure translation.
func Translate(dx, dy float64) Affine {
	return Affine{A: 1, D: 1, TX: dx, TY: dy}
}

// Scale returns a pure scale about the origin.
func Scale(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Then returns the transform that applies t and then next.
func (t Affine) Then(next Affine) Affine {
	return Affine{
		A:  next.A*t.A + next.C*t.B,
		B:  next.B*t.A + next.D*t.B,
		C:  next.A*t.C + next.C*t.D,
		D:  next.B*t.C + next.D*t.D,
		TX: next.A*t.TX + next.C*t.TY + next.TX,
		TY: next.B*t.TX + next.D*t.TY + next.TY,
	}
}

// Apply maps p through t.
func (t Affine) Apply(p Offset) Offset {
	return Offset{
		X: t.A*p.X + t.C*p.Y + t.TX,
		Y: t.B*p.X + t.D*p.Y + t.TY,
	}
}

// IsZero reports whether t is the zero value, which views treat as
// "no transform" and payloads report as Identity.
func (t Affine) IsZero() bool {
	return t == Affine{}
}
