package memdom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/annotator/dom"
)

// inherited lists the properties that flow from parent to child when the
// child does not set them.
var inherited = []string{
	"color",
	"font-family",
	"font-size",
	"font-weight",
	"line-height",
	"letter-spacing",
}

var defaults = dom.Style{
	"display":          "block",
	"position":         "static",
	"color":            "rgb(0, 0, 0)",
	"background-color": "rgba(0, 0, 0, 0)",
	"font-family":      "\"Times New Roman\", serif",
	"font-size":        "16px",
	"font-weight":      "400",
	"line-height":      "normal",
	"letter-spacing":   "normal",
	"border-radius":    "0px",
	"gap":              "normal",
}

var zeroLengths = []string{
	"padding-top", "padding-right", "padding-bottom", "padding-left",
	"margin-top", "margin-right", "margin-bottom", "margin-left",
	"border-top-width", "border-right-width", "border-bottom-width", "border-left-width",
}

var inlineTags = map[string]bool{
	"a": true, "span": true, "em": true, "strong": true, "b": true, "i": true,
	"code": true, "label": true, "small": true, "img": true,
}

// ComputedStyle resolves defaults, inherited values and the inline style
// attribute. width and height fall back to the declared box.
func (d *Document) ComputedStyle(el dom.Element) dom.Style {
	n := node(el)
	if n == nil {
		return dom.Style{}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(dom.Style, len(defaults)+len(zeroLengths)+2)
	for k, v := range defaults {
		out[k] = v
	}
	for _, k := range zeroLengths {
		out[k] = "0px"
	}
	if inlineTags[n.Data] {
		out["display"] = "inline"
	}

	// Inherited properties: nearest ancestor that sets them wins.
	for _, prop := range inherited {
		for cur := n.Parent; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
			if v, ok := inlineStyle(cur)[prop]; ok {
				out[prop] = v
				break
			}
		}
	}

	if r, ok := d.rect(n); ok {
		out["width"] = px(r.Width)
		out["height"] = px(r.Height)
	} else {
		out["width"] = "auto"
		out["height"] = "auto"
	}

	for k, v := range inlineStyle(n) {
		out[k] = v
	}
	expandShorthands(out)
	return out
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// inlineStyle parses the style attribute into a property map.
func inlineStyle(n *html.Node) map[string]string {
	raw, ok := attr(n, "style")
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		k, v, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// expandShorthands rewrites padding, margin and border-width shorthands
// into their longhand sides, the way a computed style reports them. An
// explicit longhand in the same declaration block is overwritten, which is
// acceptable for fixture pages.
func expandShorthands(s dom.Style) {
	for _, sh := range []struct{ name, prefix, suffix string }{
		{"padding", "padding-", ""},
		{"margin", "margin-", ""},
		{"border-width", "border-", "-width"},
	} {
		v, ok := s[sh.name]
		if !ok {
			continue
		}
		delete(s, sh.name)
		t, r, b, l := sides(strings.Fields(v))
		s[sh.prefix+"top"+sh.suffix] = t
		s[sh.prefix+"right"+sh.suffix] = r
		s[sh.prefix+"bottom"+sh.suffix] = b
		s[sh.prefix+"left"+sh.suffix] = l
	}
}

// sides applies the CSS 1-to-4 value shorthand rule.
func sides(v []string) (top, right, bottom, left string) {
	switch len(v) {
	case 1:
		return v[0], v[0], v[0], v[0]
	case 2:
		return v[0], v[1], v[0], v[1]
	case 3:
		return v[0], v[1], v[2], v[1]
	case 4:
		return v[0], v[1], v[2], v[3]
	}
	return "0px", "0px", "0px", "0px"
}
