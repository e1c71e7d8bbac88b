// CLAUDE:SUMMARY Entry-control pointer gesture: click vs drag disambiguation (5px), clamped follow, corner snap and position-dependent corner radii.
// Package dragsnap implements the pointer gesture of the draggable entry
// control: a press that never travels past DragThreshold is a click; one
// that does is a drag that follows the pointer and snaps to the nearest
// viewport corner on release.
package dragsnap

import (
	"math"
	"strconv"

	"github.com/hazyhaar/annotator/dom"
)

const (
	// DragThreshold is the Euclidean distance a press must exceed to
	// become a drag.
	DragThreshold = 5
	// ControlSize is the square edge of the entry control.
	ControlSize = 44
	// Margin is the control's inset from the viewport edges when docked.
	Margin = 24
	// MaxRadius and MinRadius bound the corner radius in px.
	MaxRadius = 22
	MinRadius = 4
)

// Corner is one of the four viewport corners.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// Valid reports whether c names a corner.
func (c Corner) Valid() bool {
	switch c {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return true
	}
	return false
}

// ExtendsLeft reports whether the action row next to a control in this
// corner opens toward the left.
func (c Corner) ExtendsLeft() bool {
	return c == TopRight || c == BottomRight
}

// Origin returns the top-left of a control docked in corner c.
func (c Corner) Origin(vp dom.Size) dom.Point {
	p := dom.Point{X: Margin, Y: Margin}
	if c == TopRight || c == BottomRight {
		p.X = vp.Width - Margin - ControlSize
	}
	if c == BottomLeft || c == BottomRight {
		p.Y = vp.Height - Margin - ControlSize
	}
	return p
}

// SnapCorner picks the corner of the quadrant containing (x, y). Points on a
// midline go to the right or bottom half.
func SnapCorner(x, y float64, vp dom.Size) Corner {
	right := x >= vp.Width/2
	bottom := y >= vp.Height/2
	switch {
	case bottom && right:
		return BottomRight
	case bottom:
		return BottomLeft
	case right:
		return TopRight
	}
	return TopLeft
}

// Radii are the four corner radii of the control in px.
type Radii struct {
	TopLeft, TopRight, BottomRight, BottomLeft float64
}

// CSS renders the radii in border-radius order, rounded to 0.01px.
func (r Radii) CSS() string {
	return px(r.TopLeft) + " " + px(r.TopRight) + " " + px(r.BottomRight) + " " + px(r.BottomLeft)
}

func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}

// RadiiAt computes the control's corner radii for a control centred at
// (cx, cy). With nx, ny the centre normalised to [0,1], each corner takes a
// bilinear weight w (top-left nx(1-ny), top-right (1-nx)(1-ny), bottom-right
// (1-nx)ny, bottom-left nx·ny) and a radius of MaxRadius-(MaxRadius-MinRadius)w².
func RadiiAt(cx, cy float64, vp dom.Size) Radii {
	nx := clamp01(cx / vp.Width)
	ny := clamp01(cy / vp.Height)
	r := func(w float64) float64 {
		return MaxRadius - (MaxRadius-MinRadius)*w*w
	}
	return Radii{
		TopLeft:     r(nx * (1 - ny)),
		TopRight:    r((1 - nx) * (1 - ny)),
		BottomRight: r((1 - nx) * ny),
		BottomLeft:  r(nx * ny),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}

// Kind classifies a finished gesture.
type Kind int

const (
	// None is returned for a release without a matching press.
	None Kind = iota
	Click
	Drag
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case Drag:
		return "drag"
	}
	return "none"
}

// Move is the control's position while a gesture is in progress.
type Move struct {
	Dragging bool
	X, Y     float64
	Radii    Radii
}

// Outcome is the result of releasing the pointer.
type Outcome struct {
	Kind   Kind
	Corner Corner // set for Drag
}

// Gesture tracks one press-move-release sequence. The zero value is idle.
type Gesture struct {
	down             bool
	dragging         bool
	startX, startY   float64
	originX, originY float64
}

// Down starts a gesture at pointer (x, y) with the control's top-left at
// (originX, originY).
func (g *Gesture) Down(x, y, originX, originY float64) {
	*g = Gesture{down: true, startX: x, startY: y, originX: originX, originY: originY}
}

// Active reports whether a press is in progress.
func (g *Gesture) Active() bool { return g.down }

// Move updates the gesture. Once the pointer has travelled more than
// DragThreshold from the press point the gesture is a drag for good, and
// the control follows the pointer 1:1 clamped inside the viewport.
func (g *Gesture) Move(x, y float64, vp dom.Size) Move {
	if !g.down {
		return Move{}
	}
	dx, dy := x-g.startX, y-g.startY
	if !g.dragging && math.Hypot(dx, dy) > DragThreshold {
		g.dragging = true
	}
	if !g.dragging {
		return Move{X: g.originX, Y: g.originY}
	}
	nx := max(0, min(vp.Width-ControlSize, g.originX+dx))
	ny := max(0, min(vp.Height-ControlSize, g.originY+dy))
	return Move{
		Dragging: true,
		X:        nx,
		Y:        ny,
		Radii:    RadiiAt(nx+ControlSize/2, ny+ControlSize/2, vp),
	}
}

// Up ends the gesture at pointer (x, y).
func (g *Gesture) Up(x, y float64, vp dom.Size) Outcome {
	if !g.down {
		return Outcome{Kind: None}
	}
	// A release far from the press with no intermediate move still counts.
	if !g.dragging && math.Hypot(x-g.startX, y-g.startY) > DragThreshold {
		g.dragging = true
	}
	dragged := g.dragging
	*g = Gesture{}
	if !dragged {
		return Outcome{Kind: Click}
	}
	return Outcome{Kind: Drag, Corner: SnapCorner(x, y, vp)}
}
