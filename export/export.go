// CLAUDE:SUMMARY Markdown and JSON renderings of an annotation list for hand-off to humans and agents.
// Package export renders annotation lists. Both renderers are pure: page
// URL, viewport and clock are passed in.
package export

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/dom"
)

// TimeFormat matches the millisecond UTC timestamps browsers produce.
const TimeFormat = "2006-01-02T15:04:05.000Z"

var strict = bluemonday.StrictPolicy()

// Heading returns "tag.class1.class2" for an annotation.
func Heading(a annotation.Annotation) string {
	el := a.Element
	if el == "" {
		el = "element"
	}
	if len(a.Classes) == 0 {
		return el
	}
	return el + "." + strings.Join(a.Classes, ".")
}

// Markdown renders anns as a review document. The page URL is taken from
// the first annotation, falling back to pageURL.
func Markdown(anns []annotation.Annotation, pageURL string, vp dom.Size, now time.Time) string {
	u := pageURL
	if len(anns) > 0 && anns[0].URL != "" {
		u = anns[0].URL
	}
	path := u
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		path = parsed.Path
		if path == "" {
			path = "/"
		}
	}

	lines := []string{
		"# Page Feedback: " + path,
		"**URL:** " + u,
		fmt.Sprintf("**Viewport:** %d×%d", round(vp.Width), round(vp.Height)),
		"**Exported:** " + now.UTC().Format(TimeFormat),
		"",
	}

	for i, a := range anns {
		lines = append(lines,
			"---",
			"",
			fmt.Sprintf("### %d. %s", i+1, Heading(a)),
			"",
			"**Selector:** `"+a.Selector+"`",
			"**Path:** "+a.Path,
		)
		if len(a.Classes) > 0 {
			cs := make([]string, len(a.Classes))
			for j, c := range a.Classes {
				cs[j] = "`." + c + "`"
			}
			lines = append(lines, "**Classes:** "+strings.Join(cs, ", "))
		}
		lines = append(lines, fmt.Sprintf("**Bounding box:** x:%d, y:%d, %d×%dpx",
			round(a.Rect.X), round(a.Rect.Y), round(a.Rect.W), round(a.Rect.H)))
		if a.NearbyText != "" {
			lines = append(lines, `**Nearby text:** "`+a.NearbyText+`"`)
		}
		lines = append(lines, "")

		if keys := a.StyleKeys(); len(keys) > 0 {
			lines = append(lines, "**Computed CSS:**", "```css")
			for _, k := range keys {
				lines = append(lines, k+": "+a.Styles[k]+";")
			}
			lines = append(lines, "```", "")
		}

		if len(a.AriaAttributes) > 0 {
			lines = append(lines, "**Accessibility:** "+pairs(a.AriaAttributes))
		}
		if len(a.DataAttributes) > 0 {
			lines = append(lines, "**Data attributes:** "+pairs(a.DataAttributes))
		}
		if len(a.AriaAttributes) > 0 || len(a.DataAttributes) > 0 {
			lines = append(lines, "")
		}

		if c := plainText(a.Comment); c != "" {
			lines = append(lines, "**Annotation:** "+c, "")
		}
	}
	return strings.Join(lines, "\n")
}

// plainText drops markup from a comment and undoes the entity escaping the
// sanitizer applies, so quotes, ampersands and "<" survive as typed.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

func pairs(m map[string]string) string {
	keys := annotation.SortedKeys(m)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + `="` + m[k] + `"`
	}
	return strings.Join(out, ", ")
}

func round(v float64) int { return int(math.Round(v)) }

// Viewport is the viewport block of a JSON export.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Payload is the JSON export document.
type Payload struct {
	URL         string                  `json:"url"`
	Viewport    Viewport                `json:"viewport"`
	ExportedAt  string                  `json:"exportedAt"`
	Annotations []annotation.Annotation `json:"annotations"`
}

// JSON renders anns as an indented Payload.
func JSON(anns []annotation.Annotation, pageURL string, vp dom.Size, now time.Time) ([]byte, error) {
	if anns == nil {
		anns = []annotation.Annotation{}
	}
	b, err := json.MarshalIndent(Payload{
		URL:         pageURL,
		Viewport:    Viewport{Width: round(vp.Width), Height: round(vp.Height)},
		ExportedAt:  now.UTC().Format(TimeFormat),
		Annotations: anns,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: json: %w", err)
	}
	return b, nil
}
