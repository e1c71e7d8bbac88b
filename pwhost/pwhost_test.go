package pwhost

import (
	"context"
	"net/url"
	"os"
	"testing"

	"github.com/hazyhaar/annotator/annotator"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/locator"
	"github.com/hazyhaar/annotator/reconcile"
)

func TestSpread(t *testing.T) {
	if got := spread("(a, b) => a === b"); got != "(args) => ((a, b) => a === b)(...args)" {
		t.Fatalf("spread = %q", got)
	}
}

func TestNum(t *testing.T) {
	for _, v := range []any{3, int64(3), 3.0} {
		if num(v) != 3 {
			t.Errorf("num(%T) = %v", v, num(v))
		}
	}
	if num("3") != 0 || num(nil) != 0 {
		t.Error("non-numbers should read as 0")
	}
}

const page = `<!doctype html><html><body style="margin:0">
<ul id="list"><li class="item" style="height:40px">a</li><li class="item" style="height:40px">b</li></ul>
</body></html>`

func TestHost_Live(t *testing.T) {
	if os.Getenv("ANNOTATOR_TEST_PLAYWRIGHT") == "" {
		t.Skip("ANNOTATOR_TEST_PLAYWRIGHT not set")
	}
	s, err := Open("data:text/html,"+url.PathEscape(page), Config{Headless: true, Viewport: dom.Size{Width: 640, Height: 480}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h := NewHost(s.Page, nil)

	if vp := h.Viewport(); vp.Width != 640 {
		t.Fatalf("viewport = %+v", vp)
	}
	second := h.QueryFirst("li:nth-child(2)")
	if second == nil || h.TextContent(second) != "b" {
		t.Fatal("query failed")
	}
	loc := locator.New(h, locator.Config{})
	if got := loc.Locator(second); got != "#list > li.item:nth-of-type(2)" {
		t.Errorf("locator = %q", got)
	}
	if !h.Same(h.Parent(second), h.QueryFirst("#list")) {
		t.Error("parent mismatch")
	}

	o, err := InstallOverlay(s.Page, nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := annotator.New(context.Background(), annotator.Options{
		Host: h, Own: o.Own(h), Scheduler: reconcile.NewManualClock(), Renderer: o,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := Bridge(context.Background(), s.Page, c, nil); err != nil {
		t.Fatal(err)
	}
	if in, err := c.Inspect(60, 30); err != nil || in.Tag != "li" {
		t.Fatalf("inspect = %+v, %v", in, err)
	}
}
