// CLAUDE:SUMMARY Annotation record (locator, display path, style snapshot, creation-time box, a11y/data attributes) and its capture from a live element.
// Package annotation defines the persisted annotation record and builds it
// from a live element.
//
// JSON field names are camelCase so sessions and exports stay readable by
// the browser-side tooling that consumes them.
package annotation

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/annotator/boxmodel"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/idgen"
	"github.com/hazyhaar/annotator/locator"
)

// ErrEmptyComment is returned when committing an annotation whose comment
// is blank after trimming.
var ErrEmptyComment = errors.New("annotation: comment is empty")

// NearbyTextLimit caps the direct-text preview stored with an annotation.
const NearbyTextLimit = 40

// Rect is the element's box at creation time. It is never refreshed.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Annotation is a comment attached to an element through its locator.
type Annotation struct {
	ID             string            `json:"id"`
	Selector       string            `json:"selector"`
	Path           string            `json:"path"`
	Comment        string            `json:"comment"`
	Styles         map[string]string `json:"styles"`
	Rect           Rect              `json:"rect"`
	CreatedAt      time.Time         `json:"createdAt"`
	Element        string            `json:"element"`
	Classes        []string          `json:"classes"`
	NearbyText     string            `json:"nearbyText"`
	URL            string            `json:"url"`
	AriaAttributes map[string]string `json:"ariaAttributes"`
	DataAttributes map[string]string `json:"dataAttributes"`
}

// Validate checks the invariants a persisted annotation must hold.
func (a Annotation) Validate() error {
	if strings.TrimSpace(a.Comment) == "" {
		return ErrEmptyComment
	}
	if a.ID == "" {
		return errors.New("annotation: missing id")
	}
	return nil
}

// StyleKeys returns the style properties in display order: tracked
// properties first, then anything else alphabetically.
func (a Annotation) StyleKeys() []string {
	return orderedKeys(a.Styles, boxmodel.TrackedProperties)
}

// Capture holds what is needed to snapshot an element into an annotation.
type Capture struct {
	Host    dom.Host
	Locator *locator.Resolver
	IDs     idgen.Generator
	PageURL string
	Now     func() time.Time
}

// New snapshots el and returns a fresh annotation carrying comment.
func (c Capture) New(el dom.Element, comment string) (Annotation, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return Annotation{}, ErrEmptyComment
	}
	if el == nil {
		return Annotation{}, errors.New("annotation: no element")
	}
	ids := c.IDs
	if ids == nil {
		ids = idgen.Default
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	h := c.Host
	r := h.BoundingRect(el)
	aria, data := splitAttributes(h.Attributes(el))
	return Annotation{
		ID:             ids(),
		Selector:       c.Locator.Locator(el),
		Path:           c.Locator.DisplayPath(el),
		Comment:        comment,
		Styles:         boxmodel.Snapshot(h, el),
		Rect:           Rect{X: r.X, Y: r.Y, W: r.Width, H: r.Height},
		CreatedAt:      now().UTC(),
		Element:        h.TagName(el),
		Classes:        c.Locator.Classes(el),
		NearbyText:     Truncate(h.DirectText(el), NearbyTextLimit),
		URL:            c.PageURL,
		AriaAttributes: aria,
		DataAttributes: data,
	}, nil
}

// Truncate cuts s to n runes and appends an ellipsis when it was longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

func splitAttributes(attrs []dom.Attribute) (aria, data map[string]string) {
	aria = map[string]string{}
	data = map[string]string{}
	for _, a := range attrs {
		switch {
		case a.Name == "role" || strings.HasPrefix(a.Name, "aria-"):
			aria[a.Name] = a.Value
		case strings.HasPrefix(a.Name, "data-"):
			data[a.Name] = a.Value
		}
	}
	return aria, data
}

func orderedKeys(m map[string]string, first []string) []string {
	keys := make([]string, 0, len(m))
	used := make(map[string]bool, len(first))
	for _, k := range first {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
			used[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// SortedKeys returns m's keys alphabetically.
func SortedKeys(m map[string]string) []string {
	return orderedKeys(m, nil)
}
