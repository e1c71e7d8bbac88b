package dom

import "strings"

// Classes returns the class list of el.
func Classes(h Host, el Element) []string {
	v, ok := h.Attr(el, "class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// ID returns the id attribute of el, or "".
func ID(h Host, el Element) string {
	v, _ := h.Attr(el, "id")
	return strings.TrimSpace(v)
}

// Contains reports whether descendant is el or lies beneath it.
func Contains(h Host, el, descendant Element) bool {
	for cur := descendant; cur != nil; cur = h.Parent(cur) {
		if h.Same(cur, el) {
			return true
		}
	}
	return false
}

// IsBody reports whether el is the document body.
func IsBody(h Host, el Element) bool {
	body := h.Body()
	return body != nil && h.Same(el, body)
}

// IsRoot reports whether el is the document element.
func IsRoot(h Host, el Element) bool {
	root := h.Root()
	return root != nil && h.Same(el, root)
}
