// CLAUDE:SUMMARY Derives short structural CSS locators and human-readable ancestor paths for elements, and resolves locators back to elements.
// Package locator derives re-resolvable structural locators for elements.
//
// A locator is a CSS selector built from the element upward: tag names, up
// to two author classes per level and :nth-of-type disambiguation. The walk
// stops at the first prefix that matches exactly one element, at an
// ancestor with an id, at body, or after MaxDepth levels, whichever comes
// first. Locators are not guaranteed stable under structural mutation; a
// locator that later matches nothing means the element is temporarily
// orphaned, not that the annotation is lost.
package locator

import (
	"strconv"
	"strings"

	"github.com/hazyhaar/annotator/dom"
)

const (
	// DefaultInternalPrefix marks classes that belong to the tool's own
	// chrome. They never appear in a locator or display path.
	DefaultInternalPrefix = "kai-"
	// DefaultMaxDepth caps the number of levels in a locator.
	DefaultMaxDepth = 4
	// DefaultMaxClasses caps the classes used per level.
	DefaultMaxClasses = 2

	pathSeparator    = " > "
	displaySeparator = " › "
)

// Config tunes locator generation. Zero values take the defaults.
type Config struct {
	InternalPrefix string
	MaxDepth       int
	MaxClasses     int
}

func (c *Config) defaults() {
	if c.InternalPrefix == "" {
		c.InternalPrefix = DefaultInternalPrefix
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxClasses <= 0 {
		c.MaxClasses = DefaultMaxClasses
	}
}

// Resolver generates and resolves locators against one host document.
type Resolver struct {
	host dom.Host
	cfg  Config
}

// New creates a Resolver over h.
func New(h dom.Host, cfg Config) *Resolver {
	cfg.defaults()
	return &Resolver{host: h, cfg: cfg}
}

// Locator returns the shortest sufficient structural path to el.
func (r *Resolver) Locator(el dom.Element) string {
	h := r.host
	if el == nil {
		return ""
	}
	if id := dom.ID(h, el); id != "" {
		return "#" + EscapeIdent(id)
	}
	if dom.IsBody(h, el) || dom.IsRoot(h, el) {
		return h.TagName(el)
	}

	var parts []string
	cur := el
	for cur != nil && !dom.IsBody(h, cur) && !dom.IsRoot(h, cur) && len(parts) < r.cfg.MaxDepth {
		if id := dom.ID(h, cur); id != "" {
			parts = prepend(parts, "#"+EscapeIdent(id))
			break
		}

		seg := r.segment(cur)
		candidate := strings.Join(prepend(parts, seg), pathSeparator)
		if h.CountMatches(candidate) == 1 {
			return candidate
		}

		parent := h.Parent(cur)
		if parent != nil {
			if idx, n := nthOfType(h, parent, cur); n > 1 {
				seg += ":nth-of-type(" + strconv.Itoa(idx) + ")"
			}
		}
		parts = prepend(parts, seg)
		cur = parent
	}
	return strings.Join(parts, pathSeparator)
}

// DisplayPath returns the ancestor chain of el for humans, root excluded.
// It is never used for resolution.
func (r *Resolver) DisplayPath(el dom.Element) string {
	h := r.host
	var parts []string
	for cur := el; cur != nil && !dom.IsRoot(h, cur); cur = h.Parent(cur) {
		parts = prepend(parts, r.label(cur, false))
	}
	return strings.Join(parts, displaySeparator)
}

// Resolve returns the first element in document order matching locator,
// or nil.
func (r *Resolver) Resolve(locator string) dom.Element {
	if strings.TrimSpace(locator) == "" {
		return nil
	}
	return r.host.QueryFirst(locator)
}

// Classes returns el's author classes, internal ones removed.
func (r *Resolver) Classes(el dom.Element) []string {
	var out []string
	for _, c := range dom.Classes(r.host, el) {
		if strings.HasPrefix(c, r.cfg.InternalPrefix) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// segment is one selector level: tag plus capped, escaped author classes.
func (r *Resolver) segment(el dom.Element) string {
	return r.label(el, true)
}

func (r *Resolver) label(el dom.Element, escape bool) string {
	var b strings.Builder
	b.WriteString(r.host.TagName(el))
	classes := r.Classes(el)
	if len(classes) > r.cfg.MaxClasses {
		classes = classes[:r.cfg.MaxClasses]
	}
	for _, c := range classes {
		b.WriteByte('.')
		if escape {
			b.WriteString(EscapeIdent(c))
		} else {
			b.WriteString(c)
		}
	}
	return b.String()
}

// nthOfType returns the 1-based index of el among parent's children with
// the same tag, and how many such children there are.
func nthOfType(h dom.Host, parent, el dom.Element) (index, count int) {
	tag := h.TagName(el)
	for _, c := range h.Children(parent) {
		if h.TagName(c) != tag {
			continue
		}
		count++
		if h.Same(c, el) {
			index = count
		}
	}
	return index, count
}

func prepend(parts []string, s string) []string {
	return append([]string{s}, parts...)
}
