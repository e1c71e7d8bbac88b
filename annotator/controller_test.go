package annotator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/dragsnap"
	"github.com/hazyhaar/annotator/idgen"
	"github.com/hazyhaar/annotator/memdom"
	"github.com/hazyhaar/annotator/reconcile"
	"github.com/hazyhaar/annotator/session"
)

const fixture = `<html><body>
<main id="main" data-rect="0 0 800 600">
  <section class="hero" data-rect="100 100 300 200" style="padding: 10px">
    <h1 class="title" data-rect="110 110 280 40" style="font-size: 32px; font-weight: 700">Welcome</h1>
    <p class="lede" data-rect="110 170 280 40">Intro text</p>
  </section>
  <div class="card" data-rect="500 100 200 100"></div>
  <div class="card" data-rect="500 250 200 100"></div>
</main>
<div id="kai-root" class="kai-root" style="pointer-events: none" data-rect="0 0 800 600">
  <button class="kai-fab" data-rect="24 532 44 44">A</button>
</div>
</body></html>`

var (
	h1Rect    = dom.Rect{X: 110, Y: 110, Width: 280, Height: 40}
	card1Rect = dom.Rect{X: 500, Y: 100, Width: 200, Height: 100}
	fixedNow  = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
)

type renderRecorder struct {
	mu     sync.Mutex
	frames []reconcile.Frame
	clears int
}

func (r *renderRecorder) Render(f reconcile.Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *renderRecorder) Clear() {
	r.mu.Lock()
	r.clears++
	r.mu.Unlock()
}

func (r *renderRecorder) last() (reconcile.Frame, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return reconcile.Frame{}, 0, r.clears
	}
	return r.frames[len(r.frames)-1], len(r.frames), r.clears
}

type harness struct {
	doc   *memdom.Document
	c     *Controller
	store *session.Store
	clock *reconcile.ManualClock
	rend  *renderRecorder
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	doc, err := memdom.ParseString(fixture, dom.Size{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		doc:   doc,
		store: session.New(session.NewMemoryStore(), logger),
		clock: reconcile.NewManualClock(),
		rend:  &renderRecorder{},
	}
	opts := Options{
		Host:      doc,
		Store:     h.store,
		PageURL:   "https://site.example/landing",
		Own:       doc.QueryFirst("#kai-root"),
		IDs:       idgen.Sequence("ann_"),
		Scheduler: h.clock,
		Renderer:  h.rend,
		Now:       func() time.Time { return fixedNow },
		Logger:    logger,
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.c, err = New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.c.Deactivate)
	return h
}

func (h *harness) el(t *testing.T, sel string) dom.Element {
	t.Helper()
	el := h.doc.QueryFirst(sel)
	if el == nil {
		t.Fatalf("fixture has no %s", sel)
	}
	return el
}

func near(a, b float64) bool { return math.Abs(a-b) <= 1 }

func TestNew_RequiresHost(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatal("New without host should fail")
	}
}

func TestNew_LoadsSession(t *testing.T) {
	ctx := context.Background()
	store := session.New(session.NewMemoryStore(), nil)
	key := session.Key("https://site.example/landing")
	store.Save(ctx, key, []annotation.Annotation{{ID: "old", Selector: "h1.title", Comment: "kept"}})
	store.SetCorner(ctx, dragsnap.TopRight)

	h := newHarness(t, func(o *Options) { o.Store = store })
	anns := h.c.Annotations()
	if len(anns) != 1 || anns[0].ID != "old" {
		t.Fatalf("Annotations = %+v", anns)
	}
	if h.c.Corner() != dragsnap.TopRight {
		t.Fatalf("Corner = %s", h.c.Corner())
	}
	if o := h.c.FabOrigin(); o != (dom.Point{X: 732, Y: 24}) {
		t.Fatalf("FabOrigin = %+v", o)
	}
}

func TestModes(t *testing.T) {
	h := newHarness(t)
	c := h.c

	if out := c.HandleKey(Key{Name: "Alt"}); out.Suppress || c.Mode() != Idle {
		t.Fatal("Alt in idle must pass through")
	}

	out := c.HandleKey(Key{Name: "A", Ctrl: true, Shift: true})
	if !out.Suppress || c.Mode() != Tracking || !c.Loop().Running() {
		t.Fatalf("toggle chord: out=%+v mode=%s", out, c.Mode())
	}

	c.HandleKey(Key{Name: "Alt"})
	if c.Mode() != Measuring {
		t.Fatalf("Alt down: mode = %s", c.Mode())
	}
	c.HandleKey(Key{Name: "Alt", Up: true})
	if c.Mode() != Tracking {
		t.Fatalf("Alt up: mode = %s", c.Mode())
	}

	c.HandleKey(Key{Name: "Alt"})
	c.HandleBlur()
	if c.Mode() != Tracking {
		t.Fatalf("blur: mode = %s", c.Mode())
	}

	out = c.HandleKey(Key{Name: "Escape"})
	if !out.Suppress || c.Mode() != Idle || c.Loop().Running() {
		t.Fatalf("Escape: out=%+v mode=%s", out, c.Mode())
	}
	if _, _, clears := h.rend.last(); clears != 1 {
		t.Fatalf("renderer cleared %d times, want 1", clears)
	}
}

func TestClick_DraftCommitAndReopen(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.c
	c.Activate()

	out := c.HandleHover(Pointer{X: 150, Y: 125})
	if out.Highlight == nil || *out.Highlight != h1Rect {
		t.Fatalf("Highlight = %+v", out.Highlight)
	}

	out = c.HandleClick(Pointer{X: 150, Y: 125})
	if !out.Suppress || out.Draft == nil || out.Draft.Editing() {
		t.Fatalf("click: %+v", out)
	}
	if got := c.loc.Resolve(out.Draft.Selector); !h.doc.Same(got, h.el(t, "h1")) {
		t.Fatalf("draft selector %q does not resolve to the h1", out.Draft.Selector)
	}
	if out.Draft.Styles["font-weight"] != "700" {
		t.Errorf("draft styles = %v", out.Draft.Styles)
	}

	h.clock.Step()
	if f, _, _ := h.rend.last(); f.Preview == nil {
		t.Fatal("frame has no preview while the editor is open")
	}

	a, err := c.Commit(ctx, "  Bigger please ")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "ann_1" || a.Comment != "Bigger please" || a.Element != "h1" || !a.CreatedAt.Equal(fixedNow) {
		t.Fatalf("created = %+v", a)
	}
	if c.Draft() != nil {
		t.Fatal("draft still open after commit")
	}
	if saved := h.store.Load(ctx, session.Key(c.PageURL())); len(saved) != 1 {
		t.Fatalf("persisted %d annotations", len(saved))
	}

	h.clock.Step()
	f, _, _ := h.rend.last()
	if f.Preview != nil || len(f.Markers) != 1 || f.Markers[0].AnnotationID != "ann_1" {
		t.Fatalf("frame after commit = %+v", f)
	}

	// Clicking an annotated element reopens its annotation.
	out = c.HandleClick(Pointer{X: 150, Y: 125})
	if !out.Draft.Editing() || out.Draft.ID != "ann_1" || out.Draft.Comment != "Bigger please" {
		t.Fatalf("reopen draft = %+v", out.Draft)
	}
	a, err = c.Commit(ctx, "Smaller")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "ann_1" || a.Comment != "Smaller" || len(c.Annotations()) != 1 {
		t.Fatalf("edit via draft = %+v (count %d)", a, len(c.Annotations()))
	}
}

func TestEscapeClosesDraftFirst(t *testing.T) {
	h := newHarness(t)
	h.c.Activate()
	h.c.HandleClick(Pointer{X: 150, Y: 185})
	if h.c.Draft() == nil {
		t.Fatal("no draft")
	}
	h.c.HandleKey(Key{Name: "Escape"})
	if h.c.Draft() != nil || h.c.Mode() != Tracking {
		t.Fatalf("first Escape: draft=%v mode=%s", h.c.Draft(), h.c.Mode())
	}
	h.c.HandleKey(Key{Name: "Escape"})
	if h.c.Mode() != Idle {
		t.Fatal("second Escape should deactivate")
	}
}

func TestOwnChromeAndIdleAreIgnored(t *testing.T) {
	h := newHarness(t)
	c := h.c
	fab := h.el(t, ".kai-fab")

	if out := c.HandleClick(Pointer{X: 150, Y: 125}); out.Suppress || out.Draft != nil {
		t.Fatalf("idle click = %+v", out)
	}

	c.Activate()
	if out := c.HandleClick(Pointer{X: 40, Y: 550}); out.Suppress || out.Draft != nil {
		t.Fatalf("click on own chrome = %+v", out)
	}
	if out := c.HandleHover(Pointer{X: 40, Y: 550, Target: fab}); out.Highlight != nil {
		t.Fatal("own chrome highlighted")
	}
	// Body and root are never targets.
	if out := c.HandleClick(Pointer{X: 10, Y: 10, Target: h.doc.Body()}); !out.Suppress || out.Draft != nil {
		t.Fatalf("click on body = %+v", out)
	}
}

func TestMutations_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.c

	if _, err := c.Create(ctx, h.el(t, "p"), "   "); !errors.Is(err, annotation.ErrEmptyComment) {
		t.Fatalf("blank comment: %v", err)
	}
	if _, err := c.Create(ctx, nil, "x"); !errors.Is(err, ErrNoElement) {
		t.Fatalf("nil element: %v", err)
	}
	if _, err := c.CreateAt(ctx, ".missing", "x"); !errors.Is(err, ErrNoElement) {
		t.Fatalf("missing selector: %v", err)
	}
	if _, err := c.Edit(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("edit unknown: %v", err)
	}
	if err := c.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete unknown: %v", err)
	}

	a, err := c.CreateAt(ctx, "p.lede", "tighten")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Edit(ctx, a.ID, ""); !errors.Is(err, annotation.ErrEmptyComment) {
		t.Fatalf("edit to blank: %v", err)
	}
	if err := c.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if len(c.Annotations()) != 0 {
		t.Fatal("delete did not remove")
	}
}

func TestConfirmations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(o *Options) { o.ConfirmTimeout = 40 * time.Millisecond })
	c := h.c
	a, _ := c.CreateAt(ctx, "p.lede", "one")
	c.CreateAt(ctx, "h1.title", "two")

	if done, err := c.RequestDelete(ctx, a.ID); done || err != nil {
		t.Fatalf("first RequestDelete: %v %v", done, err)
	}
	if done, err := c.RequestDelete(ctx, a.ID); !done || err != nil {
		t.Fatalf("second RequestDelete: %v %v", done, err)
	}
	if len(c.Annotations()) != 1 {
		t.Fatal("confirmed delete did not remove")
	}

	if err := c.ConfirmClearAll(ctx); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("confirm without arm: %v", err)
	}
	if c.RequestClearAll(ctx) {
		t.Fatal("first RequestClearAll cleared")
	}
	time.Sleep(120 * time.Millisecond)
	if err := c.ConfirmClearAll(ctx); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("confirm after timeout: %v", err)
	}
	if len(c.Annotations()) != 1 {
		t.Fatal("expired arm still cleared")
	}

	c.RequestClearAll(ctx)
	if !c.RequestClearAll(ctx) || len(c.Annotations()) != 0 {
		t.Fatal("confirmed clear did not clear")
	}
	if saved := h.store.Load(ctx, session.Key(c.PageURL())); len(saved) != 0 {
		t.Fatal("clear did not reach storage")
	}
}

func TestMeasureMode(t *testing.T) {
	h := newHarness(t)
	c := h.c
	c.Activate()
	c.HandleKey(Key{Name: "Alt"})

	out := c.HandleHover(Pointer{X: 150, Y: 125})
	m := out.Measurement
	if m == nil || m.Tag != "h1" || m.Crosshair == nil {
		t.Fatalf("measurement = %+v", m)
	}
	if !near(m.Crosshair.Width, 280) || !near(m.Crosshair.Height, 40) {
		t.Errorf("crosshair = %+v", m.Crosshair)
	}
	if m.Box.Border != h1Rect || m.Text != nil {
		t.Errorf("box = %+v text = %+v", m.Box, m.Text)
	}
	// The paragraph sits 20px below the heading.
	if len(m.Distances) == 0 {
		t.Error("no distances for h1")
	}

	out = c.HandleKey(Key{Name: "Shift"})
	if out.Measurement == nil || out.Measurement.Text == nil || out.Measurement.Text.FontWeight != "700" {
		t.Fatalf("Shift text info = %+v", out.Measurement)
	}
	c.HandleKey(Key{Name: "Shift", Up: true})

	if out := c.HandleClick(Pointer{X: 150, Y: 125}); !out.Suppress || out.Draft != nil {
		t.Fatalf("click while measuring = %+v", out)
	}
}

func TestMeasureMode_DragSelect(t *testing.T) {
	h := newHarness(t)
	c := h.c
	c.Activate()
	c.HandleKey(Key{Name: "Alt"})

	if out := c.HandlePointerDown(Pointer{X: 480, Y: 80}); !out.Suppress {
		t.Fatal("pointer down not consumed")
	}
	if out := c.HandlePointerMove(Pointer{X: 483, Y: 83}); out.Selection != nil {
		t.Fatal("selection started under threshold")
	}
	out := c.HandlePointerMove(Pointer{X: 720, Y: 370})
	if out.Selection == nil || *out.Selection != (dom.Rect{X: 480, Y: 80, Width: 240, Height: 290}) {
		t.Fatalf("selection = %+v", out.Selection)
	}
	out = c.HandlePointerUp(Pointer{X: 720, Y: 370})
	m := out.Measurement
	if m == nil || m.Tag != "div" || m.Box.Border != card1Rect {
		t.Fatalf("enclosed measurement = %+v", m)
	}
	if m.Selector != "#main > div.card:nth-of-type(1)" {
		t.Errorf("selector = %q", m.Selector)
	}

	// A press without travel measures the point.
	c.HandlePointerDown(Pointer{X: 150, Y: 185})
	out = c.HandlePointerUp(Pointer{X: 151, Y: 185})
	if out.Measurement == nil || out.Measurement.Tag != "p" {
		t.Fatalf("point measurement = %+v", out.Measurement)
	}
}

func TestFab_ClickTogglesDragSnaps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.c

	o := c.FabOrigin() // bottom-left by default
	if o != (dom.Point{X: 24, Y: 532}) {
		t.Fatalf("origin = %+v", o)
	}
	c.FabDown(46, 554)
	c.FabMove(49, 557) // under threshold
	if out := c.FabUp(ctx, 49, 557); out.Kind != dragsnap.Click {
		t.Fatalf("short press = %v", out.Kind)
	}
	if c.Mode() != Tracking {
		t.Fatal("click on the entry control should toggle tracking")
	}
	if c.Corner() != dragsnap.BottomLeft {
		t.Fatal("click moved the control")
	}

	c.FabDown(46, 554)
	mv := c.FabMove(700, 100)
	if !mv.Dragging {
		t.Fatal("long move is not a drag")
	}
	out := c.FabUp(ctx, 700, 100)
	if out.Kind != dragsnap.Drag || out.Corner != dragsnap.TopRight {
		t.Fatalf("drag = %+v", out)
	}
	if c.Mode() != Tracking {
		t.Fatal("drag must not toggle")
	}
	if h.store.Corner(ctx) != dragsnap.TopRight {
		t.Fatal("corner not persisted")
	}
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.c

	in, err := c.Inspect(150, 185)
	if err != nil {
		t.Fatal(err)
	}
	if in.Tag != "p" || in.Path != "body › main › section.hero › p.lede" || in.AnnotationID != "" {
		t.Fatalf("inspection = %+v", in)
	}
	if in.Text == nil || in.Styles["display"] == "" {
		t.Errorf("text/styles missing: %+v", in)
	}

	a, _ := c.CreateAt(ctx, in.Selector, "note")
	if in, _ = c.InspectSelector("p.lede"); in.AnnotationID != a.ID {
		t.Fatalf("AnnotationID = %q, want %q", in.AnnotationID, a.ID)
	}

	if _, err := c.Inspect(-5, -5); !errors.Is(err, ErrNoElement) {
		t.Fatalf("outside viewport: %v", err)
	}
	if _, err := c.InspectSelector("table"); !errors.Is(err, ErrNoElement) {
		t.Fatalf("missing selector: %v", err)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.c
	c.CreateAt(ctx, "h1.title", "Bigger")

	md, err := c.Export("md")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Page Feedback: /landing", "**Viewport:** 800×600", "### 1. h1.title", "**Annotation:** Bigger"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	js, err := c.Export("JSON")
	if err != nil {
		t.Fatal(err)
	}
	var p struct {
		URL         string                  `json:"url"`
		Annotations []annotation.Annotation `json:"annotations"`
	}
	if err := json.Unmarshal(js, &p); err != nil {
		t.Fatal(err)
	}
	if p.URL != "https://site.example/landing" || len(p.Annotations) != 1 {
		t.Fatalf("json export = %+v", p)
	}

	if _, err := c.Export("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("xml: %v", err)
	}
}

func TestLoop_TeardownOnDeactivate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.c
	c.CreateAt(ctx, "div.card", "first card")
	c.CreateAt(ctx, "p.lede", "lede")

	if h.clock.Pending() != 0 {
		t.Fatal("loop scheduled while idle")
	}
	c.Activate()
	h.clock.Step()
	f, n, _ := h.rend.last()
	if n != 1 || len(f.Markers) != 2 {
		t.Fatalf("frame %d markers = %+v", n, f.Markers)
	}

	c.Deactivate()
	if h.clock.Pending() != 0 || c.Loop().Running() {
		t.Fatal("loop still scheduled after Deactivate")
	}
	h.clock.Step()
	if _, n2, clears := h.rend.last(); n2 != n || clears != 1 {
		t.Fatalf("after Deactivate: frames %d (was %d), clears %d", n2, n, clears)
	}
}

// slowBackend parks the first Put until release is closed.
type slowBackend struct {
	session.Backend
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *slowBackend) Put(ctx context.Context, key string, value []byte) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.Backend.Put(ctx, key, value)
}

func TestCreate_SaveDoesNotBlockReaders(t *testing.T) {
	slow := &slowBackend{
		Backend: session.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := newHarness(t, func(o *Options) { o.Store = session.New(slow, logger) })
	ctx := context.Background()

	created := make(chan error, 1)
	go func() {
		_, err := h.c.CreateAt(ctx, "h1.title", "Bigger")
		created <- err
	}()
	<-slow.entered

	read := make(chan int, 1)
	go func() {
		h.c.Mode()
		read <- len(h.c.Annotations())
	}()
	select {
	case n := <-read:
		if n != 1 {
			t.Fatalf("annotations during save = %d, want 1", n)
		}
	case <-time.After(2 * time.Second):
		close(slow.release)
		t.Fatal("readers blocked while the session was being written")
	}

	close(slow.release)
	if err := <-created; err != nil {
		t.Fatalf("create: %v", err)
	}
	reloaded := session.New(slow.Backend, logger).Load(ctx, session.Key("https://site.example/landing"))
	if len(reloaded) != 1 || reloaded[0].Comment != "Bigger" {
		t.Fatalf("stored = %+v", reloaded)
	}
}
