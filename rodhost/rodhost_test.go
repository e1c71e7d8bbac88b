package rodhost

import (
	"context"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/hazyhaar/annotator/annotator"
	"github.com/hazyhaar/annotator/boxmodel"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/locator"
	"github.com/hazyhaar/annotator/raycast"
	"github.com/hazyhaar/annotator/reconcile"
)

const page = `<!doctype html><html><head><style>
body { margin: 0 }
.card { position: absolute; width: 200px; height: 100px; padding: 8px; box-sizing: border-box }
</style></head><body>
<main id="main">
  <div class="card" style="left: 100px; top: 100px">One</div>
  <div class="card" style="left: 400px; top: 100px">Two</div>
</main>
</body></html>`

func TestManager_StartRefused(t *testing.T) {
	m := NewManager(Config{Headless: true})
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Start(context.Background()); err == nil {
		t.Fatal("Start after Close should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewManager(Config{}).Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Start with cancelled ctx = %v, want context.Canceled", err)
	}
	if b := m.Browser(); b != nil {
		t.Fatal("closed manager still holds a browser")
	}
}

func livePage(t *testing.T) (*Manager, *Host) {
	t.Helper()
	if os.Getenv("ANNOTATOR_TEST_CHROME") == "" {
		t.Skip("ANNOTATOR_TEST_CHROME not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	m := NewManager(Config{Headless: true, RemoteURL: os.Getenv("ANNOTATOR_TEST_CDP")})
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	p, err := m.OpenPage(ctx, "data:text/html,"+url.PathEscape(page), dom.Size{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return m, NewHost(p, nil)
}

func TestHost_Live(t *testing.T) {
	_, h := livePage(t)

	if vp := h.Viewport(); vp.Width != 800 || vp.Height != 600 {
		t.Fatalf("viewport = %+v", vp)
	}
	el := h.ElementAt(150, 150)
	if el == nil || h.TagName(el) != "div" || h.DirectText(el) != "One" {
		t.Fatalf("ElementAt = %v", el)
	}
	if r := h.BoundingRect(el); r != (dom.Rect{X: 100, Y: 100, Width: 200, Height: 100}) {
		t.Errorf("rect = %+v", r)
	}
	if g := boxmodel.Of(h, el); g.Content != (dom.Rect{X: 108, Y: 108, Width: 184, Height: 84}) {
		t.Errorf("content box = %+v", g.Content)
	}

	loc := locator.New(h, locator.Config{})
	sel := loc.Locator(el)
	if sel != "#main > div.card:nth-of-type(1)" {
		t.Errorf("locator = %q", sel)
	}
	if !h.Same(loc.Resolve(sel), el) {
		t.Error("locator does not round-trip")
	}
	if h.QueryFirst("[[bad") != nil || h.CountMatches("[[bad") != 0 {
		t.Error("invalid selector should match nothing")
	}

	ch := raycast.Cast(h, 150, 150, nil)
	if ch.Left < 99 || ch.Left > 101 || ch.Right < 299 || ch.Right > 301 {
		t.Errorf("crosshair = %+v", ch)
	}
}

func TestOverlay_Live(t *testing.T) {
	_, h := livePage(t)
	o, err := InstallOverlay(h.Page(), nil)
	if err != nil {
		t.Fatal(err)
	}
	own := o.Own(h)
	if own == nil {
		t.Fatal("overlay root not installed")
	}

	c, err := annotator.New(context.Background(), annotator.Options{
		Host:      h,
		PageURL:   "https://example.test/",
		Own:       own,
		Scheduler: reconcile.NewManualClock(),
		Renderer:  o,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAt(context.Background(), "#main > div.card:nth-of-type(2)", "Two"); err != nil {
		t.Fatal(err)
	}
	o.Render(c.Reconciler().Pass(c.Annotations()))
	if n := h.CountMatches(".kai-marker"); n != 1 {
		t.Fatalf("markers drawn = %d", n)
	}
	o.Clear()
	if n := h.CountMatches(".kai-marker"); n != 0 {
		t.Fatalf("markers after clear = %d", n)
	}
}
