package boxmodel

import (
	"math"
	"strconv"

	"github.com/hazyhaar/annotator/dom"
)

// Side names one edge of a box.
type Side string

const (
	Top    Side = "top"
	Right  Side = "right"
	Bottom Side = "bottom"
	Left   Side = "left"
)

// Distance is the gap between an element's margin box and the nearest
// obstruction on one side: a sibling's margin box or the parent's content
// edge. From and To are the segment endpoints, LabelAt its midpoint.
type Distance struct {
	Side    Side      `json:"side"`
	Px      float64   `json:"px"`
	Label   string    `json:"label"`
	From    dom.Point `json:"from"`
	To      dom.Point `json:"to"`
	LabelAt dom.Point `json:"label_at"`
}

// Distances measures el against its parent and siblings. Only strictly
// positive gaps are reported, in top, bottom, left, right order. An element
// without a parent has no distances.
func Distances(h dom.Host, el dom.Element) []Distance {
	parent := h.Parent(el)
	if parent == nil {
		return nil
	}
	m := Of(h, el).Margin
	pc := Of(h, parent).Content

	var siblings []dom.Rect
	for _, s := range h.Children(parent) {
		if h.Same(s, el) {
			continue
		}
		siblings = append(siblings, Of(h, s).Margin)
	}
	return distances(m, pc, siblings)
}

func distances(m, pc dom.Rect, siblings []dom.Rect) []Distance {
	cx := (m.Left() + m.Right()) / 2
	cy := (m.Top() + m.Bottom()) / 2
	var out []Distance

	top := pc.Top()
	for _, s := range siblings {
		if overlaps(m.Left(), m.Right(), s.Left(), s.Right()) && s.Bottom() <= m.Top() && s.Bottom() > top {
			top = s.Bottom()
		}
	}
	if d := m.Top() - top; d > 0 {
		out = append(out, vertical(Top, d, cx, top, m.Top()))
	}

	bottom := pc.Bottom()
	for _, s := range siblings {
		if overlaps(m.Left(), m.Right(), s.Left(), s.Right()) && s.Top() >= m.Bottom() && s.Top() < bottom {
			bottom = s.Top()
		}
	}
	if d := bottom - m.Bottom(); d > 0 {
		out = append(out, vertical(Bottom, d, cx, m.Bottom(), bottom))
	}

	left := pc.Left()
	for _, s := range siblings {
		if overlaps(m.Top(), m.Bottom(), s.Top(), s.Bottom()) && s.Right() <= m.Left() && s.Right() > left {
			left = s.Right()
		}
	}
	if d := m.Left() - left; d > 0 {
		out = append(out, horizontal(Left, d, cy, left, m.Left()))
	}

	right := pc.Right()
	for _, s := range siblings {
		if overlaps(m.Top(), m.Bottom(), s.Top(), s.Bottom()) && s.Left() >= m.Right() && s.Left() < right {
			right = s.Left()
		}
	}
	if d := right - m.Right(); d > 0 {
		out = append(out, horizontal(Right, d, cy, m.Right(), right))
	}
	return out
}

func vertical(side Side, px, x, y0, y1 float64) Distance {
	return Distance{
		Side:    side,
		Px:      px,
		Label:   FormatPx(px),
		From:    dom.Point{X: x, Y: y0},
		To:      dom.Point{X: x, Y: y1},
		LabelAt: dom.Point{X: x, Y: (y0 + y1) / 2},
	}
}

func horizontal(side Side, px, y, x0, x1 float64) Distance {
	return Distance{
		Side:    side,
		Px:      px,
		Label:   FormatPx(px),
		From:    dom.Point{X: x0, Y: y},
		To:      dom.Point{X: x1, Y: y},
		LabelAt: dom.Point{X: (x0 + x1) / 2, Y: y},
	}
}

// overlaps is strict: touching intervals do not overlap.
func overlaps(aMin, aMax, bMin, bMax float64) bool {
	return aMin < bMax && bMin < aMax
}

// FormatPx renders a pixel length with its rem equivalent, e.g. "24 (1.5rem)".
func FormatPx(px float64) string {
	rounded := strconv.FormatFloat(math.Round(px), 'f', -1, 64)
	if rem, ok := PxToRem(strconv.FormatFloat(px, 'f', -1, 64) + "px"); ok {
		return rounded + " (" + rem + ")"
	}
	return rounded
}
