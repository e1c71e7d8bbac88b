package raycast

import (
	"fmt"
	"math"
	"testing"

	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/memdom"
)

func page(t *testing.T, body string) *memdom.Document {
	t.Helper()
	d, err := memdom.ParseString("<html><body>"+body+"</body></html>", dom.Size{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func near(got, want float64) bool { return math.Abs(got-want) <= 1 }

func TestCast_Convergence(t *testing.T) {
	boxes := []dom.Rect{
		{X: 100, Y: 100, Width: 200, Height: 100},
		{X: 0, Y: 0, Width: 37, Height: 513},
		{X: 333, Y: 17, Width: 1, Height: 300},
		{X: 250, Y: 250, Width: 550, Height: 350},
		{X: 411, Y: 99, Width: 3, Height: 3},
	}
	for _, b := range boxes {
		t.Run(fmt.Sprintf("%v", b), func(t *testing.T) {
			d := page(t, fmt.Sprintf(`<div data-rect="%g %g %g %g"></div>`, b.X, b.Y, b.Width, b.Height))
			c := b.Center()
			cx, cy := math.Floor(c.X), math.Floor(c.Y)

			d.ResetProbes()
			got := Cast(d, cx, cy, nil)

			if !near(got.Left, b.Left()) || !near(got.Right, b.Right()) ||
				!near(got.Top, b.Top()) || !near(got.Bottom, b.Bottom()) {
				t.Fatalf("Cast = %+v, want box %+v within 1px", got, b)
			}
			if !near(got.Width, b.Width) || !near(got.Height, b.Height) {
				t.Errorf("size = %vx%v, want %vx%v", got.Width, got.Height, b.Width, b.Height)
			}

			// Four directions, each at most 2*log2(extent)+2 probes, plus the origin.
			limit := int64(4*(2*math.Ceil(math.Log2(800))+2) + 1)
			if p := d.Probes(); p > limit {
				t.Errorf("used %d probes, want <= %d", p, limit)
			}
		})
	}
}

func TestCast_ExtendsToViewportEdge(t *testing.T) {
	d := page(t, "")
	got := Cast(d, 400, 300, nil)
	want := Crosshair{CX: 400, CY: 300, Left: 0, Right: 800, Top: 0, Bottom: 600, Width: 800, Height: 600}
	if got != want {
		t.Fatalf("Cast = %+v, want %+v", got, want)
	}
	if h, v := got.Lines(); !h || !v {
		t.Error("both axes should be drawable")
	}
}

func TestCast_AtViewportCorner(t *testing.T) {
	d := page(t, "")
	got := Cast(d, 0, 0, nil)
	if got.Left != 0 || got.Top != 0 {
		t.Fatalf("corner cast = %+v", got)
	}
	if got.Right != 800 || got.Bottom != 600 {
		t.Fatalf("corner cast did not reach far edges: %+v", got)
	}
}

func TestCast_OwnOverlayIsTransparent(t *testing.T) {
	body := `<div data-rect="100 100 200 100"></div>` +
		`<div id="overlay" data-rect="145 105 10 30"></div>`
	d := page(t, body)
	overlay := d.QueryFirst("#overlay")

	withOwn := Cast(d, 150, 150, overlay)
	if withOwn.Top != 100 {
		t.Errorf("Top with own overlay = %v, want 100", withOwn.Top)
	}

	without := Cast(d, 150, 150, nil)
	if !near(without.Top, 135) {
		t.Errorf("Top without own overlay = %v, want ~135", without.Top)
	}
}

// The overlay root lets events through, but its markers do not: a marker
// lying on a ray must not stop it.
const overlayPage = `<div id="target" data-rect="100 100 400 100"></div>` +
	`<div id="kai-root" data-rect="0 0 800 600" style="pointer-events: none">` +
	`<div class="kai-marker" data-rect="320 140 22 22" style="pointer-events: auto"></div>` +
	`</div>`

func TestCast_OwnChildIsTransparent(t *testing.T) {
	d := page(t, overlayPage)
	own := d.QueryFirst("#kai-root")

	got := Cast(d, 200, 150, own)
	if !near(got.Right, 500) || !near(got.Width, 400) {
		t.Fatalf("Cast across own marker = %+v, want right edge 500", got)
	}

	if without := Cast(d, 200, 150, nil); !near(without.Right, 320) {
		t.Errorf("Right without own = %v, want ~320", without.Right)
	}
}

func TestCast_NothingUnderCursor(t *testing.T) {
	d := page(t, "")
	got := Cast(d, 900, 700, nil)
	if got.Width != 0 || got.Height != 0 {
		t.Fatalf("cast outside viewport = %+v, want zero extent", got)
	}
	if h, v := got.Lines(); h || v {
		t.Error("degenerate crosshair should draw no lines")
	}
}

func TestLargestEnclosed(t *testing.T) {
	body := `<div id="container" data-rect="100 100 300 200">
	  <div id="card" data-rect="120 120 100 80"><span id="label" data-rect="130 130 40 20">x</span></div>
	</div>`
	d := page(t, body)

	cases := []struct {
		name string
		sel  dom.Rect
		want string
	}{
		{"card fits", dom.Rect{X: 110, Y: 110, Width: 140, Height: 140}, "card"},
		{"only label fits", dom.Rect{X: 125, Y: 125, Width: 60, Height: 40}, "label"},
		{"whole page", dom.Rect{X: 0, Y: 0, Width: 800, Height: 600}, "container"},
		{"empty area", dom.Rect{X: 600, Y: 450, Width: 100, Height: 100}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LargestEnclosed(d, tc.sel, nil)
			if tc.want == "" {
				if got != nil {
					t.Fatalf("got %v, want nil", dom.ID(d, got))
				}
				return
			}
			if got == nil || dom.ID(d, got) != tc.want {
				t.Fatalf("got %v, want #%s", got, tc.want)
			}
		})
	}
}

func TestLargestEnclosed_SkipsOwnChildren(t *testing.T) {
	d := page(t, overlayPage+`<div id="chip" data-rect="60 60 30 20"></div>`)
	own := d.QueryFirst("#kai-root")

	sel := dom.Rect{X: 50, Y: 50, Width: 300, Height: 120}
	got := LargestEnclosed(d, sel, own)
	if got == nil || dom.ID(d, got) != "chip" {
		t.Fatalf("got %v, want #chip", got)
	}

	marker := dom.Rect{X: 310, Y: 130, Width: 40, Height: 40}
	if got := LargestEnclosed(d, marker, own); got != nil {
		t.Fatalf("selection around own marker returned %v, want nil", dom.Classes(d, got))
	}
}
