package raycast

import (
	"github.com/hazyhaar/annotator/dom"
)

// GridStep is the sampling pitch used by LargestEnclosed.
const GridStep = 20

// LargestEnclosed samples sel on a GridStep grid, collects every element
// hit and its ancestors (excluding the root, body and anything inside own),
// and returns the largest by area whose border box lies entirely inside sel.
// It returns nil when nothing fits.
func LargestEnclosed(h dom.Host, sel dom.Rect, own dom.Element) dom.Element {
	var candidates []dom.Element
	seen := func(el dom.Element) bool {
		for _, c := range candidates {
			if h.Same(c, el) {
				return true
			}
		}
		return false
	}
	excluded := func(el dom.Element) bool {
		return dom.IsRoot(h, el) || dom.IsBody(h, el) || (own != nil && dom.Contains(h, own, el))
	}

	for x := sel.Left() + GridStep/2; x < sel.Right(); x += GridStep {
		for y := sel.Top() + GridStep/2; y < sel.Bottom(); y += GridStep {
			el := h.ElementAt(x, y)
			if el == nil || excluded(el) {
				continue
			}
			for cur := el; cur != nil && !excluded(cur); cur = h.Parent(cur) {
				if seen(cur) {
					break
				}
				candidates = append(candidates, cur)
			}
		}
	}

	var best dom.Element
	bestArea := 0.0
	for _, el := range candidates {
		r := h.BoundingRect(el)
		if !sel.Encloses(r) {
			continue
		}
		if a := r.Area(); a > bestArea {
			best, bestArea = el, a
		}
	}
	return best
}
