// CLAUDE:SUMMARY In-memory dom.Host over parsed HTML: declared layout via data-rect, inline computed styles, cascadia selectors, hit-testing in paint order.
// Package memdom implements dom.Host over an HTML document parsed with
// golang.org/x/net/html. Layout is declared rather than computed: every
// element that takes part in hit-testing carries a data-rect="x y w h"
// attribute in viewport coordinates. Computed styles are the inline style
// attribute layered over inherited values and a small default sheet.
//
// The document is safe for concurrent use, so a test can mutate the tree
// while a reconciliation loop reads it on another goroutine.
package memdom

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/hazyhaar/annotator/dom"
)

// Document is an in-memory page.
type Document struct {
	mu       sync.RWMutex
	doc      *html.Node
	root     *html.Node
	body     *html.Node
	viewport dom.Size

	probes atomic.Int64
}

var _ dom.Host = (*Document)(nil)

// Parse reads HTML from r and lays it out against the given viewport.
func Parse(r io.Reader, viewport dom.Size) (*Document, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	d := &Document{doc: n, viewport: viewport}
	d.root = findTag(n, "html")
	d.body = findTag(n, "body")
	if d.root == nil {
		return nil, fmt.Errorf("memdom: parse: no document element")
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string, viewport dom.Size) (*Document, error) {
	return Parse(strings.NewReader(s), viewport)
}

// ParseFile is Parse over a file on disk.
func ParseFile(path string, viewport dom.Size) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memdom: open: %w", err)
	}
	defer f.Close()
	return Parse(f, viewport)
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findTag(c, tag); f != nil {
			return f
		}
	}
	return nil
}

func node(el dom.Element) *html.Node {
	n, _ := el.(*html.Node)
	return n
}

// wrap converts a possibly-nil node into an Element without producing a
// typed-nil interface.
func wrap(n *html.Node) dom.Element {
	if n == nil {
		return nil
	}
	return n
}

// --- HitTester ---

func (d *Document) Viewport() dom.Size {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.viewport
}

// ElementAt returns the last element in document order whose declared box
// contains (x, y). Later elements paint over earlier ones and descendants
// over their ancestors. Points outside the viewport hit nothing.
func (d *Document) ElementAt(x, y float64) dom.Element {
	d.probes.Add(1)
	d.mu.RLock()
	defer d.mu.RUnlock()

	if x < 0 || y < 0 || x >= d.viewport.Width || y >= d.viewport.Height {
		return nil
	}
	p := dom.Point{X: x, Y: y}
	var hit *html.Node
	d.walk(d.root, func(n *html.Node) bool {
		if d.hidden(n) {
			return false
		}
		r, ok := d.rect(n)
		if ok && r.Contains(p) && hitTestable(n) {
			hit = n
		}
		return true
	})
	return wrap(hit)
}

func (d *Document) Same(a, b dom.Element) bool {
	na, nb := node(a), node(b)
	return na != nil && na == nb
}

// Probes returns how many hit-tests have run since the last ResetProbes.
func (d *Document) Probes() int64 { return d.probes.Load() }

// ResetProbes zeroes the hit-test counter.
func (d *Document) ResetProbes() { d.probes.Store(0) }

// walk visits element nodes depth-first in document order. Returning false
// from fn skips the node's subtree.
func (d *Document) walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c, fn)
	}
}

func hitTestable(n *html.Node) bool {
	return inlineStyle(n)["pointer-events"] != "none"
}

// --- geometry ---

func (d *Document) BoundingRect(el dom.Element) dom.Rect {
	n := node(el)
	if n == nil {
		return dom.Rect{}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.attached(n) || d.hidden(n) {
		return dom.Rect{}
	}
	r, _ := d.rect(n)
	return r
}

// rect returns the declared box of n. The root and body default to the
// full viewport.
func (d *Document) rect(n *html.Node) (dom.Rect, bool) {
	if v, ok := attr(n, "data-rect"); ok {
		r, err := parseRect(v)
		if err == nil {
			return r, true
		}
	}
	if n == d.root || n == d.body {
		return dom.Rect{Width: d.viewport.Width, Height: d.viewport.Height}, true
	}
	return dom.Rect{}, false
}

func (d *Document) hidden(n *html.Node) bool {
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if inlineStyle(cur)["display"] == "none" {
			return true
		}
	}
	return false
}

func (d *Document) attached(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.doc {
			return true
		}
	}
	return false
}

func parseRect(v string) (dom.Rect, error) {
	f := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
	if len(f) != 4 {
		return dom.Rect{}, fmt.Errorf("memdom: data-rect %q: want 4 numbers", v)
	}
	var nums [4]float64
	for i, s := range f {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return dom.Rect{}, fmt.Errorf("memdom: data-rect %q: %w", v, err)
		}
		nums[i] = x
	}
	return dom.Rect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]}, nil
}

func formatRect(r dom.Rect) string {
	return strconv.FormatFloat(r.X, 'f', -1, 64) + " " +
		strconv.FormatFloat(r.Y, 'f', -1, 64) + " " +
		strconv.FormatFloat(r.Width, 'f', -1, 64) + " " +
		strconv.FormatFloat(r.Height, 'f', -1, 64)
}

// --- selectors ---

func (d *Document) CountMatches(selector string) int {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(sel.MatchAll(d.doc))
}

func (d *Document) QueryFirst(selector string) dom.Element {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return wrap(sel.MatchFirst(d.doc))
}

// --- structure ---

func (d *Document) Parent(el dom.Element) dom.Element {
	n := node(el)
	if n == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		return p
	}
	return nil
}

func (d *Document) Children(el dom.Element) []dom.Element {
	n := node(el)
	if n == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []dom.Element
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func (d *Document) TagName(el dom.Element) string {
	n := node(el)
	if n == nil {
		return ""
	}
	return strings.ToLower(n.Data)
}

func (d *Document) Attr(el dom.Element, name string) (string, bool) {
	n := node(el)
	if n == nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return attr(n, name)
}

func (d *Document) Attributes(el dom.Element) []dom.Attribute {
	n := node(el)
	if n == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]dom.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		out = append(out, dom.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

func (d *Document) DirectText(el dom.Element) string {
	n := node(el)
	if n == nil {
		return ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(c.Data); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (d *Document) TextContent(el dom.Element) string {
	n := node(el)
	if n == nil {
		return ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	collectText(n, &b)
	return strings.TrimSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func (d *Document) Root() dom.Element { return wrap(d.root) }
func (d *Document) Body() dom.Element { return wrap(d.body) }

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
