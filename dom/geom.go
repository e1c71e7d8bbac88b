// CLAUDE:SUMMARY Viewport geometry primitives (Point, Size, Rect, Edges) shared by every geometry package.
package dom

import "math"

// Point is a position in viewport coordinates (CSS pixels).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair, typically the viewport.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the size.
func (s Size) Center() Point { return Point{X: s.Width / 2, Y: s.Height / 2} }

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromEdges builds a Rect from its four edges.
func RectFromEdges(top, right, bottom, left float64) Rect {
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

func (r Rect) Top() float64    { return r.Y }
func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area is zero for degenerate or inverted rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle has no drawable surface.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive, matching how a hit-test resolves a pixel to a box.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Encloses reports whether o lies entirely within r (edges inclusive).
func (r Rect) Encloses(o Rect) bool {
	return o.Left() >= r.Left() && o.Top() >= r.Top() &&
		o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Inset shrinks the rectangle by e on each side. Negative widths grow it.
func (r Rect) Inset(e Edges) Rect {
	return Rect{
		X:      r.X + e.Left,
		Y:      r.Y + e.Top,
		Width:  r.Width - e.Left - e.Right,
		Height: r.Height - e.Top - e.Bottom,
	}
}

// Outset grows the rectangle by e on each side.
func (r Rect) Outset(e Edges) Rect {
	return r.Inset(Edges{Top: -e.Top, Right: -e.Right, Bottom: -e.Bottom, Left: -e.Left})
}

// Inflate grows the rectangle by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return r.Outset(Uniform(d))
}

// Normalize returns the rectangle spanned by two corner points in any order.
func Normalize(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// Edges holds four per-side lengths (padding, margin or border widths).
type Edges struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform returns Edges with the same length on every side.
func Uniform(d float64) Edges { return Edges{Top: d, Right: d, Bottom: d, Left: d} }

// Distance is the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
