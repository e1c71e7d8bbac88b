package memdom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/annotator/dom"
)

// Detached is an element removed from the tree together with the position
// it was removed from.
type Detached struct {
	Node   *html.Node
	parent *html.Node
	next   *html.Node
}

// Remove detaches el from the tree. Restore puts it back in place.
func (d *Document) Remove(el dom.Element) (*Detached, error) {
	n := node(el)
	if n == nil || n.Parent == nil {
		return nil, fmt.Errorf("memdom: remove: element not attached")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	det := &Detached{Node: n, parent: n.Parent, next: n.NextSibling}
	n.Parent.RemoveChild(n)
	return det, nil
}

// Restore re-inserts a detached element at its original position. If its
// former next sibling has since been moved, the element is appended.
func (d *Document) Restore(det *Detached) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if det.next != nil && det.next.Parent == det.parent {
		det.parent.InsertBefore(det.Node, det.next)
		return
	}
	det.parent.AppendChild(det.Node)
}

// Append parses an HTML fragment and appends its elements to parent.
func (d *Document) Append(parent dom.Element, fragment string) ([]dom.Element, error) {
	p := node(parent)
	if p == nil {
		return nil, fmt.Errorf("memdom: append: nil parent")
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), p)
	if err != nil {
		return nil, fmt.Errorf("memdom: append: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []dom.Element
	for _, n := range nodes {
		p.AppendChild(n)
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out, nil
}

// SetRect moves el to a new declared box.
func (d *Document) SetRect(el dom.Element, r dom.Rect) {
	d.SetAttr(el, "data-rect", formatRect(r))
}

// SetAttr sets or replaces an attribute.
func (d *Document) SetAttr(el dom.Element, name, value string) {
	n := node(el)
	if n == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// SetViewport resizes the visible area.
func (d *Document) SetViewport(vp dom.Size) {
	d.mu.Lock()
	d.viewport = vp
	d.mu.Unlock()
}

// Scroll shifts every declared box by (-dx, -dy), the way scrolling moves
// content under a fixed viewport.
func (d *Document) Scroll(dx, dy float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.walk(d.root, func(n *html.Node) bool {
		v, ok := attr(n, "data-rect")
		if !ok {
			return true
		}
		r, err := parseRect(v)
		if err != nil {
			return true
		}
		r.X -= dx
		r.Y -= dy
		for i := range n.Attr {
			if n.Attr[i].Key == "data-rect" {
				n.Attr[i].Val = formatRect(r)
			}
		}
		return true
	})
}
