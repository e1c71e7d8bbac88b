// Package pagejs holds the scripts the live hosts evaluate in the page: the
// overlay that draws frames and forwards events, and the query helpers
// shared by the rod and playwright hosts.
package pagejs

import _ "embed"

// Overlay installs window.__kai and the event forwarders. It is idempotent.
//
//go:embed overlay.js
var Overlay string

// Binding is the name of the page-to-Go event callback.
const Binding = "kaiEvent"

// OwnRoot selects the overlay root element.
const OwnRoot = "#kai-root"

// Page-level expressions. Each is a function evaluated with the arguments
// given after it.
const (
	Viewport = `() => ({ width: innerWidth, height: innerHeight })`

	ElementFromPoint = `(x, y) => document.elementFromPoint(x, y)`

	CountMatches = `(s) => { try { return document.querySelectorAll(s).length } catch (e) { return 0 } }`

	QueryFirst = `(s) => { try { return document.querySelector(s) } catch (e) { return null } }`

	Render = `(f) => window.__kai && window.__kai.render(f)`

	Apply = `(r) => window.__kai && window.__kai.apply(r)`

	Clear = `() => window.__kai && window.__kai.clear()`

	// RenderJSON and ApplyJSON take their argument as a JSON string, for
	// drivers that only serialise plain values.
	RenderJSON = `(s) => window.__kai && window.__kai.render(JSON.parse(s))`

	ApplyJSON = `(s) => window.__kai && window.__kai.apply(JSON.parse(s))`
)

// Element-level expressions, written as functions of the element.
const (
	BoundingRect = `(e) => { const r = e.getBoundingClientRect(); return { x: r.x, y: r.y, width: r.width, height: r.height } }`

	ComputedStyle = `(e) => {
		const cs = getComputedStyle(e), out = {};
		for (let i = 0; i < cs.length; i++) out[cs[i]] = cs.getPropertyValue(cs[i]);
		return out;
	}`

	TagName = `(e) => e.tagName.toLowerCase()`

	Attr = `(e, n) => e.getAttribute(n)`

	Attributes = `(e) => Array.from(e.attributes, (a) => [a.name, a.value])`

	DirectText = `(e) => Array.from(e.childNodes)
		.filter((n) => n.nodeType === 3)
		.map((n) => n.textContent.trim())
		.filter(Boolean)
		.join(' ')`

	TextContent = `(e) => (e.textContent || '').trim()`

	Parent = `(e) => e.parentElement`

	IsSame = `(a, b) => a === b`
)

// AsThis rewrites an element expression "(e, ...) => body" into the form
// rod evaluates with the element bound to this.
func AsThis(expr string) string {
	return "function(...args) { return (" + expr + ")(this, ...args) }"
}
