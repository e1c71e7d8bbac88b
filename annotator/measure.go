package annotator

import (
	"github.com/hazyhaar/annotator/boxmodel"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/locator"
	"github.com/hazyhaar/annotator/raycast"
)

// Measurement is what measure mode shows for one pointer position or one
// drag-selected element.
type Measurement struct {
	Point     dom.Point           `json:"point"`
	Crosshair *raycast.Crosshair  `json:"crosshair,omitempty"`
	Tag       string              `json:"tag,omitempty"`
	Selector  string              `json:"selector,omitempty"`
	Box       *boxmodel.Geometry  `json:"box,omitempty"`
	Distances []boxmodel.Distance `json:"distances,omitempty"`
	Text      *boxmodel.TextInfo  `json:"text,omitempty"`
}

// Inspection describes the element under a point without any mode
// requirements. AnnotationID is set when the element already carries an
// annotation.
type Inspection struct {
	Tag          string              `json:"tag"`
	Selector     string              `json:"selector"`
	Path         string              `json:"path"`
	Classes      []string            `json:"classes,omitempty"`
	Rect         dom.Rect            `json:"rect"`
	Box          boxmodel.Geometry   `json:"box"`
	Distances    []boxmodel.Distance `json:"distances,omitempty"`
	Styles       map[string]string   `json:"styles"`
	Text         *boxmodel.TextInfo  `json:"text,omitempty"`
	AnnotationID string              `json:"annotation_id,omitempty"`
}

// measurer bundles the read-only geometry queries shared by the controller
// modes and the inspect operations.
type measurer struct {
	h   dom.Host
	loc *locator.Resolver
	own dom.Element
}

func (m measurer) isOwn(el dom.Element) bool {
	return el != nil && m.own != nil && dom.Contains(m.h, m.own, el)
}

// hit returns the event's target when given, otherwise the hit-test result
// at the point.
func (m measurer) hit(p Pointer) dom.Element {
	if p.Target != nil {
		return p.Target
	}
	return m.h.ElementAt(p.X, p.Y)
}

// target is hit with own chrome filtered out.
func (m measurer) target(p Pointer) dom.Element {
	el := m.hit(p)
	if el == nil || m.isOwn(el) {
		return nil
	}
	return el
}

// at measures the point (x, y): the crosshair always, the box model and
// distances of the element under it when there is one.
func (m measurer) at(x, y float64, withText bool) Measurement {
	ch := raycast.Cast(m.h, x, y, m.own)
	out := Measurement{Point: dom.Point{X: x, Y: y}, Crosshair: &ch}
	el := m.target(Pointer{X: x, Y: y})
	if el == nil || dom.IsRoot(m.h, el) {
		return out
	}
	m.element(&out, el, withText)
	return out
}

func (m measurer) element(out *Measurement, el dom.Element, withText bool) {
	box := boxmodel.Of(m.h, el)
	out.Tag = m.h.TagName(el)
	out.Selector = m.loc.Locator(el)
	out.Box = &box
	out.Distances = boxmodel.Distances(m.h, el)
	if withText {
		if ti, ok := boxmodel.Text(m.h, el); ok {
			out.Text = &ti
		}
	}
}

// enclosed measures the largest element inside a drag selection.
func (m measurer) enclosed(sel dom.Rect, withText bool) (Measurement, bool) {
	el := raycast.LargestEnclosed(m.h, sel, m.own)
	if el == nil {
		return Measurement{}, false
	}
	out := Measurement{Point: sel.Center()}
	m.element(&out, el, withText)
	return out, true
}

func (m measurer) inspect(el dom.Element) Inspection {
	in := Inspection{
		Tag:       m.h.TagName(el),
		Selector:  m.loc.Locator(el),
		Path:      m.loc.DisplayPath(el),
		Classes:   m.loc.Classes(el),
		Rect:      m.h.BoundingRect(el),
		Box:       boxmodel.Of(m.h, el),
		Distances: boxmodel.Distances(m.h, el),
		Styles:    boxmodel.Snapshot(m.h, el),
	}
	if ti, ok := boxmodel.Text(m.h, el); ok {
		in.Text = &ti
	}
	return in
}
