// Package dom defines the black-box contract between the geometry engine
// and a live document: hit-testing, bounding rectangles, computed styles
// and selector queries. Implementations live in memdom (parsed HTML with
// declared layout) and rodhost (Chrome over CDP).
//
// Every method is best-effort. A host that loses its transport returns zero
// values (nil element, empty rect, empty style) rather than an error, so the
// per-frame reconciliation never aborts on a transient failure.
package dom

// Element is an opaque handle to a node in the host document. Handles are
// only meaningful to the Host that produced them; compare with Host.Same.
type Element any

// Attribute is a single name/value pair on an element.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HitTester is the minimal surface needed to discover visual boundaries.
type HitTester interface {
	// Viewport returns the visible client area.
	Viewport() Size
	// ElementAt returns the topmost element painted at (x, y), or nil.
	ElementAt(x, y float64) Element
	// Same reports whether two handles refer to the same node.
	Same(a, b Element) bool
}

// Host is the full query surface over a document.
type Host interface {
	HitTester

	// BoundingRect returns the border box of el in viewport coordinates.
	BoundingRect(el Element) Rect
	// ComputedStyle returns the resolved style of el.
	ComputedStyle(el Element) Style

	// CountMatches returns how many elements match a selector. An
	// unparsable selector matches nothing.
	CountMatches(selector string) int
	// QueryFirst returns the first match in document order, or nil.
	QueryFirst(selector string) Element

	// Parent returns the parent element, or nil at the root.
	Parent(el Element) Element
	// Children returns the element children of el in document order.
	Children(el Element) []Element
	// TagName returns the lowercase tag name.
	TagName(el Element) string
	// Attr returns an attribute value and whether it is present.
	Attr(el Element, name string) (string, bool)
	// Attributes returns every attribute of el in source order.
	Attributes(el Element) []Attribute
	// DirectText returns the trimmed text of el's own text nodes, joined by
	// single spaces. Text inside child elements is excluded.
	DirectText(el Element) string
	// TextContent returns the trimmed full text content of el.
	TextContent(el Element) string

	// Root returns the document element.
	Root() Element
	// Body returns the body element, or nil if the document has none.
	Body() Element
}
