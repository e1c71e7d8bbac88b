package rodhost

import (
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/internal/pagejs"
)

// Host is a dom.Host over a live rod page. Elements are *rod.Element.
// CDP failures are logged at debug level and read as zero values.
type Host struct {
	page   *rod.Page
	logger *slog.Logger
}

// NewHost wraps page.
func NewHost(page *rod.Page, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{page: page, logger: logger}
}

// Page returns the underlying page.
func (h *Host) Page() *rod.Page { return h.page }

func (h *Host) fail(op string, err error) {
	h.logger.Debug("rodhost: "+op+" failed", "error", err)
}

func elem(el dom.Element) *rod.Element {
	e, _ := el.(*rod.Element)
	return e
}

// wrap keeps a typed nil from turning into a non-nil interface.
func wrap(e *rod.Element) dom.Element {
	if e == nil {
		return nil
	}
	return e
}

func (h *Host) Viewport() dom.Size {
	res, err := h.page.Eval(pagejs.Viewport)
	if err != nil {
		h.fail("viewport", err)
		return dom.Size{}
	}
	return dom.Size{Width: res.Value.Get("width").Num(), Height: res.Value.Get("height").Num()}
}

// ElementAt hit-tests through document.elementFromPoint so pointer-events
// and stacking are resolved by the browser.
func (h *Host) ElementAt(x, y float64) dom.Element {
	return h.byJS(pagejs.ElementFromPoint, x, y)
}

func (h *Host) byJS(js string, args ...any) dom.Element {
	el, err := h.page.Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(js, args...))
	if err != nil {
		return nil
	}
	return wrap(el)
}

func (h *Host) Same(a, b dom.Element) bool {
	ea, eb := elem(a), elem(b)
	if ea == nil || eb == nil {
		return false
	}
	ok, err := ea.Equal(eb)
	if err != nil {
		h.fail("same", err)
		return false
	}
	return ok
}

func (h *Host) BoundingRect(el dom.Element) dom.Rect {
	e := elem(el)
	if e == nil {
		return dom.Rect{}
	}
	res, err := e.Eval(pagejs.AsThis(pagejs.BoundingRect))
	if err != nil {
		h.fail("bounding rect", err)
		return dom.Rect{}
	}
	v := res.Value
	return dom.Rect{X: v.Get("x").Num(), Y: v.Get("y").Num(), Width: v.Get("width").Num(), Height: v.Get("height").Num()}
}

func (h *Host) ComputedStyle(el dom.Element) dom.Style {
	e := elem(el)
	if e == nil {
		return dom.Style{}
	}
	res, err := e.Eval(pagejs.AsThis(pagejs.ComputedStyle))
	if err != nil {
		h.fail("computed style", err)
		return dom.Style{}
	}
	m := res.Value.Map()
	out := make(dom.Style, len(m))
	for k, v := range m {
		out[k] = v.Str()
	}
	return out
}

func (h *Host) CountMatches(selector string) int {
	res, err := h.page.Eval(pagejs.CountMatches, selector)
	if err != nil {
		h.fail("count matches", err)
		return 0
	}
	return res.Value.Int()
}

func (h *Host) QueryFirst(selector string) dom.Element {
	return h.byJS(pagejs.QueryFirst, selector)
}

func (h *Host) Parent(el dom.Element) dom.Element {
	e := elem(el)
	if e == nil {
		return nil
	}
	p, err := e.Parent()
	if err != nil {
		return nil
	}
	return wrap(p)
}

func (h *Host) Children(el dom.Element) []dom.Element {
	e := elem(el)
	if e == nil {
		return nil
	}
	kids, err := e.Elements(":scope > *")
	if err != nil {
		h.fail("children", err)
		return nil
	}
	out := make([]dom.Element, len(kids))
	for i, k := range kids {
		out[i] = k
	}
	return out
}

func (h *Host) str(el dom.Element, op, js string, args ...any) string {
	e := elem(el)
	if e == nil {
		return ""
	}
	res, err := e.Eval(pagejs.AsThis(js), args...)
	if err != nil {
		h.fail(op, err)
		return ""
	}
	return res.Value.Str()
}

func (h *Host) TagName(el dom.Element) string {
	return h.str(el, "tag name", pagejs.TagName)
}

func (h *Host) Attr(el dom.Element, name string) (string, bool) {
	e := elem(el)
	if e == nil {
		return "", false
	}
	v, err := e.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (h *Host) Attributes(el dom.Element) []dom.Attribute {
	e := elem(el)
	if e == nil {
		return nil
	}
	res, err := e.Eval(pagejs.AsThis(pagejs.Attributes))
	if err != nil {
		h.fail("attributes", err)
		return nil
	}
	pairs := res.Value.Arr()
	out := make([]dom.Attribute, 0, len(pairs))
	for _, p := range pairs {
		kv := p.Arr()
		if len(kv) == 2 {
			out = append(out, dom.Attribute{Name: kv[0].Str(), Value: kv[1].Str()})
		}
	}
	return out
}

func (h *Host) DirectText(el dom.Element) string {
	return h.str(el, "direct text", pagejs.DirectText)
}

func (h *Host) TextContent(el dom.Element) string {
	return h.str(el, "text content", pagejs.TextContent)
}

func (h *Host) Root() dom.Element { return h.QueryFirst(":root") }

func (h *Host) Body() dom.Element { return h.QueryFirst("body") }

var _ dom.Host = (*Host)(nil)
