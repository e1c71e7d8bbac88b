// CLAUDE:SUMMARY Box-model partition (content/padding/border/margin), inter-element spacing distances, px→rem labels, style snapshots and text inspection.
// Package boxmodel derives CSS box-model geometry and spacing measurements
// from one bounding-rect read and one computed-style read per element.
package boxmodel

import (
	"github.com/hazyhaar/annotator/dom"
)

// Geometry is the four nested boxes of an element plus the per-side widths
// that separate them.
type Geometry struct {
	Content dom.Rect `json:"content"`
	Padding dom.Rect `json:"padding"`
	Border  dom.Rect `json:"border"`
	Margin  dom.Rect `json:"margin"`

	PaddingWidths dom.Edges `json:"padding_widths"`
	BorderWidths  dom.Edges `json:"border_widths"`
	MarginWidths  dom.Edges `json:"margin_widths"`
}

// Compute partitions a border box using the widths in style.
// Values that fail to parse count as 0.
func Compute(border dom.Rect, style dom.Style) Geometry {
	g := Geometry{
		Border:        border,
		PaddingWidths: style.Edges("padding-", ""),
		BorderWidths:  style.Edges("border-", "-width"),
		MarginWidths:  style.Edges("margin-", ""),
	}
	g.Padding = border.Inset(g.BorderWidths)
	g.Content = g.Padding.Inset(g.PaddingWidths)
	g.Margin = border.Outset(g.MarginWidths)
	return g
}

// Of reads el's border box and computed style from h and partitions it.
func Of(h dom.Host, el dom.Element) Geometry {
	return Compute(h.BoundingRect(el), h.ComputedStyle(el))
}
