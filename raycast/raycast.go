// CLAUDE:SUMMARY Crosshair boundary raycaster (exponential + binary search over hit-tests) and drag-selection largest-enclosed-element finder.
// Package raycast discovers the visual extent of whatever is painted under
// a point using nothing but hit-tests. From the cursor it casts a ray in
// each of the four directions, doubling the step until the hit element
// changes or the viewport edge is reached, then binary-searches the
// bracket down to the flip pixel. Cost is O(log W) probes per direction.
package raycast

import (
	"math"

	"github.com/hazyhaar/annotator/dom"
)

// Crosshair is the boundary box found around a cursor position. Left,
// Right, Top and Bottom are absolute viewport coordinates.
type Crosshair struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the crosshair extent as a rectangle.
func (c Crosshair) Rect() dom.Rect {
	return dom.RectFromEdges(c.Top, c.Right, c.Bottom, c.Left)
}

// Lines reports which crosshair axes have a drawable extent.
func (c Crosshair) Lines() (horizontal, vertical bool) {
	return c.Width > 0, c.Height > 0
}

type direction struct{ dx, dy float64 }

var (
	right = direction{1, 0}
	left  = direction{-1, 0}
	down  = direction{0, 1}
	up    = direction{0, -1}
)

// caster holds the per-call state: the origin element is sampled once.
type caster struct {
	h      dom.Host
	vp     dom.Size
	cx, cy float64
	origin dom.Element
	own    dom.Element
}

// Cast measures the region around (cx, cy) painted by the same element.
// own is the root of the tool's overlay; hits on it or any element inside it
// count as the origin, so markers and controls never shorten a ray. own may
// be nil.
func Cast(h dom.Host, cx, cy float64, own dom.Element) Crosshair {
	c := &caster{
		h:      h,
		vp:     h.Viewport(),
		cx:     cx,
		cy:     cy,
		origin: h.ElementAt(cx, cy),
		own:    own,
	}
	r := c.search(right)
	l := c.search(left)
	d := c.search(down)
	u := c.search(up)
	return Crosshair{
		CX:     cx,
		CY:     cy,
		Left:   cx - l,
		Right:  cx + r,
		Top:    cy - u,
		Bottom: cy + d,
		Width:  l + r,
		Height: u + d,
	}
}

// probe reports whether (x, y) still paints the origin element.
func (c *caster) probe(x, y float64) bool {
	el := c.h.ElementAt(x, y)
	if el == nil {
		return false
	}
	if c.own != nil && dom.Contains(c.h, c.own, el) {
		return true
	}
	return c.origin != nil && c.h.Same(el, c.origin)
}

func (c *caster) at(d direction, dist float64) (float64, float64) {
	return c.cx + d.dx*dist, c.cy + d.dy*dist
}

func (c *caster) inside(x, y float64) bool {
	return x >= 0 && x < c.vp.Width && y >= 0 && y < c.vp.Height
}

// search returns the distance from the cursor to the last pixel in d that
// still paints the origin element.
func (c *caster) search(d direction) float64 {
	var limit float64
	switch d {
	case right:
		limit = c.vp.Width - c.cx
	case left:
		limit = c.cx
	case down:
		limit = c.vp.Height - c.cy
	case up:
		limit = c.cy
	}
	if limit <= 0 {
		return 0
	}

	// Exponential phase: lo is the last distance known to match, hi the
	// first known not to (or the edge).
	lo, hi := 0.0, limit
	bracketed := false
	for step := 1.0; step < limit; step *= 2 {
		x, y := c.at(d, step)
		if !c.inside(x, y) || !c.probe(x, y) {
			hi = step
			bracketed = true
			break
		}
		lo = step
	}

	if !bracketed {
		x, y := c.at(d, limit-1)
		if c.probe(x, y) {
			return limit
		}
	}

	for hi-lo > 1 {
		mid := math.Floor((lo + hi) / 2)
		x, y := c.at(d, mid)
		if c.inside(x, y) && c.probe(x, y) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}
