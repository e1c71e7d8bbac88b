package dom

import (
	"regexp"
	"strconv"
	"strings"
)

// Style is a resolved computed-style snapshot keyed by CSS property name
// (kebab-case, e.g. "padding-top").
type Style map[string]string

// Get returns the trimmed value for name, or "" when unset.
func (s Style) Get(name string) string {
	return strings.TrimSpace(s[name])
}

// Px parses the numeric prefix of a length value ("12.5px" → 12.5).
// Keywords and unset values parse as 0.
func (s Style) Px(name string) float64 {
	return ParsePx(s.Get(name))
}

// Edges reads the four sides of a box property. prefix/suffix frame the
// side name, so Edges("padding-", "") reads padding-top etc. and
// Edges("border-", "-width") reads border-top-width etc.
func (s Style) Edges(prefix, suffix string) Edges {
	return Edges{
		Top:    s.Px(prefix + "top" + suffix),
		Right:  s.Px(prefix + "right" + suffix),
		Bottom: s.Px(prefix + "bottom" + suffix),
		Left:   s.Px(prefix + "left" + suffix),
	}
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParsePx returns the leading number of v, or 0 when v has none.
func ParsePx(v string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(v))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
