// CLAUDE:SUMMARY dom.Host over a playwright-go page, for Firefox/WebKit runs and CI images that ship Playwright browsers instead of Chrome.
// Package pwhost exposes a Playwright page as a dom.Host and connects it
// to an annotator.Controller through an exposed page function.
package pwhost

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/internal/pagejs"
)

// Config selects the browser engine and window.
type Config struct {
	Engine   string // chromium | firefox | webkit
	Headless bool
	Viewport dom.Size
	// TimeoutMs bounds navigation. Default: 30000.
	TimeoutMs float64
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.Engine == "" {
		c.Engine = "chromium"
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 30000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session is a running Playwright driver with one browser and one page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	Page    playwright.Page
	logger  *slog.Logger
}

// Open starts Playwright, launches the engine and navigates to pageURL.
func Open(pageURL string, cfg Config) (*Session, error) {
	cfg.defaults()
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("pwhost: start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch cfg.Engine {
	case "chromium":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		pw.Stop()
		return nil, fmt.Errorf("pwhost: unknown engine %q", cfg.Engine)
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("pwhost: launch %s: %w", cfg.Engine, err)
	}

	opts := playwright.BrowserNewPageOptions{}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts.Viewport = &playwright.Size{Width: int(cfg.Viewport.Width), Height: int(cfg.Viewport.Height)}
	}
	page, err := browser.NewPage(opts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("pwhost: new page: %w", err)
	}

	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(cfg.TimeoutMs),
	}); err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("pwhost: goto %s: %w", pageURL, err)
	}
	cfg.Logger.Info("pwhost: page opened", "engine", cfg.Engine, "url", pageURL)
	return &Session{pw: pw, browser: browser, Page: page, logger: cfg.Logger}, nil
}

// Close shuts the browser and the driver down.
func (s *Session) Close() error {
	if err := s.browser.Close(); err != nil {
		s.logger.Warn("pwhost: close browser", "error", err)
	}
	return s.pw.Stop()
}

// Host is a dom.Host over a Playwright page. Elements are
// playwright.ElementHandle values. Driver errors read as zero values.
type Host struct {
	page   playwright.Page
	logger *slog.Logger
}

// NewHost wraps page.
func NewHost(page playwright.Page, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{page: page, logger: logger}
}

func (h *Host) fail(op string, err error) {
	h.logger.Debug("pwhost: "+op+" failed", "error", err)
}

func elem(el dom.Element) playwright.ElementHandle {
	e, _ := el.(playwright.ElementHandle)
	return e
}

func wrap(e playwright.ElementHandle) dom.Element {
	if e == nil {
		return nil
	}
	return e
}

func (h *Host) handle(op string, h2 playwright.JSHandle, err error) dom.Element {
	if err != nil {
		h.fail(op, err)
		return nil
	}
	if h2 == nil {
		return nil
	}
	return wrap(h2.AsElement())
}

func (h *Host) Viewport() dom.Size {
	if vp := h.page.ViewportSize(); vp != nil {
		return dom.Size{Width: float64(vp.Width), Height: float64(vp.Height)}
	}
	v, err := h.page.Evaluate(pagejs.Viewport)
	if err != nil {
		h.fail("viewport", err)
		return dom.Size{}
	}
	m, _ := v.(map[string]any)
	return dom.Size{Width: num(m["width"]), Height: num(m["height"])}
}

func (h *Host) ElementAt(x, y float64) dom.Element {
	js, err := h.page.EvaluateHandle(spread(pagejs.ElementFromPoint), []float64{x, y})
	return h.handle("element at point", js, err)
}

func (h *Host) Same(a, b dom.Element) bool {
	ea, eb := elem(a), elem(b)
	if ea == nil || eb == nil {
		return false
	}
	v, err := h.page.Evaluate(spread(pagejs.IsSame), []any{ea, eb})
	if err != nil {
		h.fail("same", err)
		return false
	}
	ok, _ := v.(bool)
	return ok
}

func (h *Host) BoundingRect(el dom.Element) dom.Rect {
	e := elem(el)
	if e == nil {
		return dom.Rect{}
	}
	r, err := e.BoundingBox()
	if err != nil || r == nil {
		return dom.Rect{}
	}
	return dom.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (h *Host) ComputedStyle(el dom.Element) dom.Style {
	e := elem(el)
	if e == nil {
		return dom.Style{}
	}
	v, err := e.Evaluate(pagejs.ComputedStyle)
	if err != nil {
		h.fail("computed style", err)
		return dom.Style{}
	}
	m, _ := v.(map[string]any)
	out := make(dom.Style, len(m))
	for k, val := range m {
		out[k], _ = val.(string)
	}
	return out
}

func (h *Host) CountMatches(selector string) int {
	v, err := h.page.Evaluate(pagejs.CountMatches, selector)
	if err != nil {
		h.fail("count matches", err)
		return 0
	}
	return int(num(v))
}

func (h *Host) QueryFirst(selector string) dom.Element {
	js, err := h.page.EvaluateHandle(pagejs.QueryFirst, selector)
	return h.handle("query", js, err)
}

func (h *Host) Parent(el dom.Element) dom.Element {
	e := elem(el)
	if e == nil {
		return nil
	}
	js, err := e.EvaluateHandle(pagejs.Parent)
	return h.handle("parent", js, err)
}

func (h *Host) Children(el dom.Element) []dom.Element {
	e := elem(el)
	if e == nil {
		return nil
	}
	kids, err := e.QuerySelectorAll(":scope > *")
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

func (h *Host) str(el dom.Element, op, js string, arg ...any) (string, bool) {
	e := elem(el)
	if e == nil {
		return "", false
	}
	v, err := e.Evaluate(js, arg...)
	if err != nil {
		h.fail(op, err)
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (h *Host) TagName(el dom.Element) string {
	s, _ := h.str(el, "tag name", pagejs.TagName)
	return s
}

func (h *Host) Attr(el dom.Element, name string) (string, bool) {
	return h.str(el, "attr", pagejs.Attr, name)
}

func (h *Host) Attributes(el dom.Element) []dom.Attribute {
	e := elem(el)
	if e == nil {
		return nil
	}
	v, err := e.Evaluate(pagejs.Attributes)
	if err != nil {
		h.fail("attributes", err)
		return nil
	}
	pairs, _ := v.([]any)
	out := make([]dom.Attribute, 0, len(pairs))
	for _, p := range pairs {
		kv, _ := p.([]any)
		if len(kv) != 2 {
			continue
		}
		name, _ := kv[0].(string)
		value, _ := kv[1].(string)
		out = append(out, dom.Attribute{Name: name, Value: value})
	}
	return out
}

func (h *Host) DirectText(el dom.Element) string {
	s, _ := h.str(el, "direct text", pagejs.DirectText)
	return s
}

func (h *Host) TextContent(el dom.Element) string {
	s, _ := h.str(el, "text content", pagejs.TextContent)
	return s
}

func (h *Host) Root() dom.Element { return h.QueryFirst(":root") }

func (h *Host) Body() dom.Element { return h.QueryFirst("body") }

var _ dom.Host = (*Host)(nil)

// spread adapts a multi-parameter page expression to Playwright's single
// argument: "(a, b) => ..." becomes "(args) => ((a, b) => ...)(...args)".
func spread(expr string) string {
	return "(args) => (" + expr + ")(...args)"
}

// num reads a JSON number that the driver may hand back as int or float.
func num(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}
