package boxmodel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hazyhaar/annotator/dom"
)

// RootFontSize is the px size of 1rem.
const RootFontSize = 16

// TrackedProperties is the fixed set of computed properties captured when
// an annotation is created, in display order.
var TrackedProperties = []string{
	"font-size",
	"font-weight",
	"font-family",
	"line-height",
	"color",
	"background-color",
	"padding-top",
	"padding-right",
	"padding-bottom",
	"padding-left",
	"margin-top",
	"margin-right",
	"margin-bottom",
	"margin-left",
	"border-radius",
	"width",
	"height",
	"display",
	"position",
	"gap",
}

var pxValue = regexp.MustCompile(`^(\d+(?:\.\d+)?)px$`)

// PxToRem converts a plain non-negative px value ("24px") to rem rounded
// to three decimals ("1.5rem"). Anything else is not convertible.
func PxToRem(v string) (string, bool) {
	m := pxValue.FindStringSubmatch(v)
	if m == nil {
		return "", false
	}
	px, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", false
	}
	rem := math.Round(px/RootFontSize*1000) / 1000
	return strconv.FormatFloat(rem, 'f', -1, 64) + "rem", true
}

// WithRem appends the rem equivalent to a px value: "24px (1.5rem)".
func WithRem(v string) string {
	if rem, ok := PxToRem(v); ok {
		return v + " (" + rem + ")"
	}
	return v
}

// Snapshot captures TrackedProperties from el's computed style. Unset
// properties are omitted.
func Snapshot(h dom.Host, el dom.Element) map[string]string {
	cs := h.ComputedStyle(el)
	out := make(map[string]string, len(TrackedProperties))
	for _, prop := range TrackedProperties {
		v := cs.Get(prop)
		if v == "" {
			continue
		}
		out[prop] = WithRem(v)
	}
	return out
}

// TextInfo describes the typography of a leaf text element.
type TextInfo struct {
	FontFamily    string `json:"font_family"`
	FontSize      string `json:"font_size"`
	FontWeight    string `json:"font_weight"`
	LineHeight    string `json:"line_height"`
	Color         string `json:"color"`
	LetterSpacing string `json:"letter_spacing"`
}

// Text inspects el's typography. It reports false for elements that have
// element children or no text.
func Text(h dom.Host, el dom.Element) (TextInfo, bool) {
	if el == nil || len(h.Children(el)) > 0 || h.TextContent(el) == "" {
		return TextInfo{}, false
	}
	cs := h.ComputedStyle(el)

	family, _, _ := strings.Cut(cs.Get("font-family"), ",")
	family = strings.NewReplacer(`"`, "", "'", "").Replace(strings.TrimSpace(family))

	ls := cs.Get("letter-spacing")
	if ls != "normal" {
		ls = WithRem(ls)
	}
	return TextInfo{
		FontFamily:    family,
		FontSize:      WithRem(cs.Get("font-size")),
		FontWeight:    cs.Get("font-weight"),
		LineHeight:    WithRem(cs.Get("line-height")),
		Color:         RGBToHex(cs.Get("color")),
		LetterSpacing: ls,
	}, true
}

var rgbPrefix = regexp.MustCompile(`rgba?\((\d+),\s*(\d+),\s*(\d+)`)

// RGBToHex converts "rgb(r, g, b)" or "rgba(...)" to "#rrggbb". Other
// formats are returned unchanged.
func RGBToHex(v string) string {
	m := rgbPrefix.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	var c [3]int
	for i := range c {
		n, _ := strconv.Atoi(m[i+1])
		c[i] = min(max(n, 0), 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
