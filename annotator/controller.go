// CLAUDE:SUMMARY Top-level annotator controller: idle/tracking/measuring state machine, event handlers with one own-chrome predicate, annotation CRUD with persistence, reconcile loop lifecycle, entry-control gesture and export.
// Package annotator is the controller that owns the annotation list and
// drives every other package: it turns pointer and keyboard events into
// mode transitions, drafts and measurements, persists mutations through a
// session.Store, and runs the reconcile loop while a tracking mode is on.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/boxmodel"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/dragsnap"
	"github.com/hazyhaar/annotator/export"
	"github.com/hazyhaar/annotator/idgen"
	"github.com/hazyhaar/annotator/locator"
	"github.com/hazyhaar/annotator/reconcile"
	"github.com/hazyhaar/annotator/session"
)

var (
	ErrNotFound      = errors.New("annotator: annotation not found")
	ErrNoElement     = errors.New("annotator: no element")
	ErrNotArmed      = errors.New("annotator: confirmation not armed")
	ErrUnknownFormat = errors.New("annotator: unknown export format")
)

const clearAllKey = "clear-all"

// Options wires a Controller to its host page and collaborators. Only Host
// is required.
type Options struct {
	Host    dom.Host
	Store   *session.Store // default: in-memory
	PageURL string
	// Own is the root of the tool's own chrome. Events targeting it or its
	// descendants are ignored, and hit-tests on it are transparent.
	Own            dom.Element
	Locator        locator.Config
	IDs            idgen.Generator
	Scheduler      reconcile.Scheduler
	Renderer       reconcile.Renderer
	ConfirmTimeout time.Duration
	// Journal receives every persisted mutation. Optional.
	Journal Journal
	Now     func() time.Time
	Logger  *slog.Logger
}

// Journal records annotation mutations. op is one of OpCreate, OpEdit,
// OpDelete or OpClear. Record must not block on slow storage.
type Journal interface {
	Record(ctx context.Context, op string, a annotation.Annotation)
}

// Journal operations.
const (
	OpCreate = "create"
	OpEdit   = "edit"
	OpDelete = "delete"
	OpClear  = "clear"
)

type nopJournal struct{}

func (nopJournal) Record(context.Context, string, annotation.Annotation) {}

// Controller is safe for concurrent use. Event handlers are expected to be
// called from one goroutine per page, the HTTP and MCP surfaces from others.
type Controller struct {
	h       dom.Host
	loc     *locator.Resolver
	meas    measurer
	capture annotation.Capture
	store   *session.Store
	journal Journal
	key     string
	pageURL string
	now     func() time.Time
	logger  *slog.Logger

	rec   *reconcile.Reconciler
	loop  *reconcile.Loop
	armer *Armer

	life sync.Mutex // serialises transitions that start or stop the loop

	// save orders store writes so they land in mutation order; it is taken
	// before mu and held across the I/O, which runs with mu released.
	save sync.Mutex

	mu          sync.Mutex
	mode        Mode
	anns        []annotation.Annotation // replaced, never mutated in place
	hovered     dom.Element
	draft       *Draft
	textMode    bool
	measurement *Measurement
	press       *dom.Point
	selecting   bool
	fab         dragsnap.Gesture
	corner      dragsnap.Corner

	snap atomic.Pointer[[]annotation.Annotation]
}

// New builds a controller and loads the page's saved annotations.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Host == nil {
		return nil, errors.New("annotator: host is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Store == nil {
		opts.Store = session.New(session.NewMemoryStore(), opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Journal == nil {
		opts.Journal = nopJournal{}
	}

	loc := locator.New(opts.Host, opts.Locator)
	c := &Controller{
		h:       opts.Host,
		loc:     loc,
		meas:    measurer{h: opts.Host, loc: loc, own: opts.Own},
		store:   opts.Store,
		journal: opts.Journal,
		key:     session.Key(opts.PageURL),
		pageURL: opts.PageURL,
		now:     opts.Now,
		logger:  opts.Logger,
		capture: annotation.Capture{
			Host:    opts.Host,
			Locator: loc,
			IDs:     opts.IDs,
			PageURL: opts.PageURL,
			Now:     opts.Now,
		},
	}
	c.rec = reconcile.New(opts.Host, loc)
	c.loop = reconcile.NewLoop(reconcile.LoopConfig{
		Reconciler: c.rec,
		Scheduler:  opts.Scheduler,
		Renderer:   opts.Renderer,
		Source:     c.snapshot,
		Logger:     opts.Logger,
	})
	c.armer = NewArmer(opts.ConfirmTimeout, func(key string) {
		c.logger.Debug("annotator: confirmation expired", "action", key)
	})

	c.setAnnotations(c.store.Load(ctx, c.key))
	c.corner = c.store.Corner(ctx)
	c.logger.Info("annotator: session loaded", "key", c.key, "annotations", len(c.anns), "corner", c.corner)
	return c, nil
}

func (c *Controller) snapshot() []annotation.Annotation {
	if p := c.snap.Load(); p != nil {
		return *p
	}
	return nil
}

// setAnnotations must be called with mu held (or before c is shared).
func (c *Controller) setAnnotations(list []annotation.Annotation) {
	c.anns = list
	c.snap.Store(&list)
}

// Annotations returns a copy of the annotation list in creation order.
func (c *Controller) Annotations() []annotation.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.anns)
}

// Get returns one annotation by id.
func (c *Controller) Get(id string) (annotation.Annotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return annotation.Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.anns[i], nil
}

func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.anns, func(a annotation.Annotation) bool { return a.ID == id })
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Draft returns the open editor, or nil.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Hovered returns the highlighted element in tracking mode, or nil.
func (c *Controller) Hovered() dom.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// LastMeasurement returns the measurement currently shown, or nil.
func (c *Controller) LastMeasurement() *Measurement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measurement
}

// Reconciler exposes the marker state for stack expansion and box toggles.
func (c *Controller) Reconciler() *reconcile.Reconciler { return c.rec }

// Loop exposes the reconcile loop.
func (c *Controller) Loop() *reconcile.Loop { return c.loop }

// PageURL returns the URL annotations are captured against.
func (c *Controller) PageURL() string { return c.pageURL }

// --- mode transitions ---

// Toggle switches between Idle and Tracking. From Measuring it goes to Idle.
func (c *Controller) Toggle() {
	if c.Mode() == Idle {
		c.Activate()
	} else {
		c.Deactivate()
	}
}

// Activate enters Tracking and starts the reconcile loop.
func (c *Controller) Activate() {
	c.life.Lock()
	defer c.life.Unlock()
	c.mu.Lock()
	if c.mode != Idle {
		c.mu.Unlock()
		return
	}
	c.mode = Tracking
	c.mu.Unlock()
	c.loop.Start()
	c.logger.Debug("annotator: tracking on")
}

// Deactivate returns to Idle. The loop is stopped before Deactivate returns
// and every piece of ephemeral state is dropped: hover, draft, preview,
// measurement, markers, stacks and pending confirmations.
func (c *Controller) Deactivate() {
	c.life.Lock()
	defer c.life.Unlock()
	c.mu.Lock()
	if c.mode == Idle {
		c.mu.Unlock()
		return
	}
	c.mode = Idle
	c.hovered = nil
	c.draft = nil
	c.resetMeasureLocked()
	c.mu.Unlock()

	c.loop.Stop()
	c.armer.Reset()
	c.logger.Debug("annotator: tracking off")
}

func (c *Controller) resetMeasureLocked() {
	c.textMode = false
	c.measurement = nil
	c.press = nil
	c.selecting = false
}

// --- event handlers ---

// HandleKey processes a key press or release.
func (c *Controller) HandleKey(k Key) Outcome {
	if k.toggleChord() {
		c.Toggle()
		return Outcome{Suppress: true, Mode: c.Mode()}
	}

	c.mu.Lock()
	mode := c.mode
	switch {
	case mode == Idle:
		c.mu.Unlock()
		return Outcome{Mode: Idle}

	case k.is("Escape") && !k.Up:
		if c.draft != nil {
			c.draft = nil
			c.mu.Unlock()
			c.rec.ClearPreview()
			return Outcome{Suppress: true, Mode: mode}
		}
		c.mu.Unlock()
		c.Deactivate()
		return Outcome{Suppress: true, Mode: Idle}

	case k.is("Alt") && !k.Up && mode == Tracking && c.draft == nil:
		c.mode = Measuring
		c.hovered = nil
		c.mu.Unlock()
		return Outcome{Suppress: true, Mode: Measuring}

	case k.is("Alt") && k.Up && mode == Measuring:
		c.mode = Tracking
		c.resetMeasureLocked()
		c.mu.Unlock()
		return Outcome{Suppress: true, Mode: Tracking}

	case k.is("Shift") && mode == Measuring:
		c.textMode = !k.Up
		last := c.measurement
		c.mu.Unlock()
		if last == nil || last.Crosshair == nil {
			return Outcome{Mode: mode}
		}
		m := c.Measure(last.Point.X, last.Point.Y)
		c.mu.Lock()
		if c.mode == Measuring {
			c.measurement = &m
		}
		c.mu.Unlock()
		return Outcome{Mode: mode, Measurement: &m}
	}
	c.mu.Unlock()
	return Outcome{Mode: mode}
}

// HandleBlur leaves measure mode when the window loses focus, since the Alt
// release will never be seen.
func (c *Controller) HandleBlur() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == Measuring {
		c.mode = Tracking
		c.resetMeasureLocked()
	}
}

// HandleHover processes the pointer moving over the page.
func (c *Controller) HandleHover(p Pointer) Outcome {
	c.mu.Lock()
	mode, text, selecting := c.mode, c.textMode, c.selecting
	c.mu.Unlock()
	if mode == Idle || c.meas.isOwn(c.meas.hit(p)) {
		return Outcome{Mode: mode}
	}

	switch mode {
	case Tracking:
		el := c.meas.target(p)
		if el != nil && (dom.IsRoot(c.h, el) || dom.IsBody(c.h, el)) {
			el = nil
		}
		c.mu.Lock()
		c.hovered = el
		c.mu.Unlock()
		if el == nil {
			return Outcome{Mode: mode}
		}
		r := c.h.BoundingRect(el)
		return Outcome{Mode: mode, Highlight: &r}

	case Measuring:
		if selecting {
			return Outcome{Mode: mode}
		}
		m := c.meas.at(p.X, p.Y, text)
		c.mu.Lock()
		if c.mode == Measuring {
			c.measurement = &m
		}
		c.mu.Unlock()
		return Outcome{Mode: mode, Measurement: &m}
	}
	return Outcome{Mode: mode}
}

// HandleClick opens the editor on the clicked element in tracking mode. An
// element that already carries an annotation opens that annotation for
// editing.
func (c *Controller) HandleClick(p Pointer) Outcome {
	c.mu.Lock()
	mode, hovered := c.mode, c.hovered
	c.mu.Unlock()
	if mode == Idle || c.meas.isOwn(c.meas.hit(p)) {
		return Outcome{Mode: mode}
	}
	if mode == Measuring {
		return Outcome{Suppress: true, Mode: mode}
	}

	el := hovered
	if el == nil {
		el = c.meas.target(p)
	}
	if el == nil || dom.IsRoot(c.h, el) || dom.IsBody(c.h, el) {
		return Outcome{Suppress: true, Mode: mode}
	}

	d := c.draftFor(el)
	c.mu.Lock()
	c.draft = d
	c.hovered = nil
	c.mu.Unlock()
	if d.Editing() {
		c.rec.ClearPreview()
	} else {
		c.rec.SetPreview(el)
	}
	return Outcome{Suppress: true, Mode: mode, Draft: d}
}

func (c *Controller) draftFor(el dom.Element) *Draft {
	if a, ok := c.annotationOn(el); ok {
		return &Draft{Element: el, ID: a.ID, Comment: a.Comment, Selector: a.Selector, Path: a.Path, Styles: a.Styles}
	}
	return &Draft{
		Element:  el,
		Selector: c.loc.Locator(el),
		Path:     c.loc.DisplayPath(el),
		Styles:   boxmodel.Snapshot(c.h, el),
	}
}

// annotationOn finds the annotation whose locator currently resolves to el.
func (c *Controller) annotationOn(el dom.Element) (annotation.Annotation, bool) {
	for _, a := range c.snapshot() {
		if r := c.loc.Resolve(a.Selector); r != nil && c.h.Same(r, el) {
			return a, true
		}
	}
	return annotation.Annotation{}, false
}

// CloseDraft dismisses the editor without saving.
func (c *Controller) CloseDraft() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
	c.rec.ClearPreview()
}

// Preview marks el as the element being annotated; nil clears it.
func (c *Controller) Preview(el dom.Element) { c.rec.SetPreview(el) }

// HandlePointerDown starts a potential drag selection in measure mode.
func (c *Controller) HandlePointerDown(p Pointer) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Measuring || c.meas.isOwn(c.meas.hit(p)) {
		return Outcome{Mode: c.mode}
	}
	c.press = &dom.Point{X: p.X, Y: p.Y}
	c.selecting = false
	return Outcome{Suppress: true, Mode: c.mode}
}

// HandlePointerMove grows the drag selection once the pointer has moved
// past the drag threshold.
func (c *Controller) HandlePointerMove(p Pointer) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Measuring || c.press == nil {
		return Outcome{Mode: c.mode}
	}
	cur := dom.Point{X: p.X, Y: p.Y}
	if !c.selecting && dom.Distance(*c.press, cur) > dragsnap.DragThreshold {
		c.selecting = true
	}
	if !c.selecting {
		return Outcome{Mode: c.mode}
	}
	sel := dom.Normalize(*c.press, cur)
	return Outcome{Suppress: true, Mode: c.mode, Selection: &sel}
}

// HandlePointerUp finishes a press in measure mode: a drag measures the
// largest element enclosed by the selection, a click measures the point.
func (c *Controller) HandlePointerUp(p Pointer) Outcome {
	c.mu.Lock()
	if c.mode != Measuring || c.press == nil {
		mode := c.mode
		c.mu.Unlock()
		return Outcome{Mode: mode}
	}
	start, selecting, text := *c.press, c.selecting, c.textMode
	c.press, c.selecting = nil, false
	c.mu.Unlock()

	var m Measurement
	if selecting {
		var ok bool
		if m, ok = c.meas.enclosed(dom.Normalize(start, dom.Point{X: p.X, Y: p.Y}), text); !ok {
			return Outcome{Suppress: true, Mode: Measuring}
		}
	} else {
		m = c.meas.at(p.X, p.Y, text)
	}
	c.mu.Lock()
	if c.mode == Measuring {
		c.measurement = &m
	}
	c.mu.Unlock()
	return Outcome{Suppress: true, Mode: Measuring, Measurement: &m}
}

// --- queries ---

// Measure computes crosshair, box model and distances at (x, y) regardless
// of mode. Text typography is included while Shift is held in measure mode.
func (c *Controller) Measure(x, y float64) Measurement {
	c.mu.Lock()
	text := c.textMode
	c.mu.Unlock()
	return c.meas.at(x, y, text)
}

// Inspect describes the element under (x, y).
func (c *Controller) Inspect(x, y float64) (Inspection, error) {
	el := c.meas.target(Pointer{X: x, Y: y})
	if el == nil || dom.IsRoot(c.h, el) {
		return Inspection{}, fmt.Errorf("%w at %v,%v", ErrNoElement, x, y)
	}
	return c.inspect(el), nil
}

// InspectSelector describes the first element matching selector.
func (c *Controller) InspectSelector(selector string) (Inspection, error) {
	el := c.loc.Resolve(selector)
	if el == nil {
		return Inspection{}, fmt.Errorf("%w: %q", ErrNoElement, selector)
	}
	return c.inspect(el), nil
}

func (c *Controller) inspect(el dom.Element) Inspection {
	in := c.meas.inspect(el)
	if a, ok := c.annotationOn(el); ok {
		in.AnnotationID = a.ID
	}
	return in
}

// --- mutations ---

// Create annotates el. The comment is trimmed; a blank comment is rejected
// with annotation.ErrEmptyComment.
func (c *Controller) Create(ctx context.Context, el dom.Element, comment string) (annotation.Annotation, error) {
	if el == nil {
		return annotation.Annotation{}, ErrNoElement
	}
	a, err := c.capture.New(el, comment)
	if err != nil {
		return annotation.Annotation{}, fmt.Errorf("annotator: create: %w", err)
	}

	c.save.Lock()
	c.mu.Lock()
	list := append(slices.Clone(c.anns), a)
	c.setAnnotations(list)
	c.draft = nil
	c.mu.Unlock()
	c.store.Save(ctx, c.key, list)
	c.save.Unlock()

	c.journal.Record(ctx, OpCreate, a)
	c.rec.ClearPreview()
	c.logger.Info("annotator: annotation created", "id", a.ID, "selector", a.Selector, "count", len(list))
	return a, nil
}

// CreateAt annotates the first element matching selector.
func (c *Controller) CreateAt(ctx context.Context, selector, comment string) (annotation.Annotation, error) {
	el := c.loc.Resolve(selector)
	if el == nil {
		return annotation.Annotation{}, fmt.Errorf("%w: %q", ErrNoElement, selector)
	}
	return c.Create(ctx, el, comment)
}

// Commit saves the open draft: a new annotation or an edit.
func (c *Controller) Commit(ctx context.Context, comment string) (annotation.Annotation, error) {
	d := c.Draft()
	if d == nil {
		return annotation.Annotation{}, fmt.Errorf("%w: no open draft", ErrNoElement)
	}
	if d.Editing() {
		a, err := c.Edit(ctx, d.ID, comment)
		if err == nil {
			c.CloseDraft()
		}
		return a, err
	}
	return c.Create(ctx, d.Element, comment)
}

// Edit replaces the comment of annotation id.
func (c *Controller) Edit(ctx context.Context, id, comment string) (annotation.Annotation, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return annotation.Annotation{}, fmt.Errorf("annotator: edit: %w", annotation.ErrEmptyComment)
	}

	c.save.Lock()
	defer c.save.Unlock()
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return annotation.Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	list := slices.Clone(c.anns)
	list[i].Comment = comment
	c.setAnnotations(list)
	c.mu.Unlock()

	c.store.Save(ctx, c.key, list)
	c.journal.Record(ctx, OpEdit, list[i])
	c.logger.Info("annotator: annotation edited", "id", id)
	return list[i], nil
}

// Delete removes annotation id.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.save.Lock()
	defer c.save.Unlock()
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	gone := c.anns[i]
	list := slices.Delete(slices.Clone(c.anns), i, i+1)
	c.setAnnotations(list)
	if c.draft.Editing() && c.draft.ID == id {
		c.draft = nil
	}
	c.mu.Unlock()

	c.store.Save(ctx, c.key, list)
	c.journal.Record(ctx, OpDelete, gone)
	c.logger.Info("annotator: annotation deleted", "id", id, "count", len(list))
	return nil
}

// RequestDelete is the two-step delete: the first call arms, a second call
// within the confirm window deletes. It reports whether the delete happened.
func (c *Controller) RequestDelete(ctx context.Context, id string) (bool, error) {
	if _, err := c.Get(id); err != nil {
		return false, err
	}
	if c.armer.Confirm("delete:" + id) {
		return true, c.Delete(ctx, id)
	}
	c.armer.Arm("delete:" + id)
	return false, nil
}

// RequestClearAll is the two-step clear: the first call arms, a second call
// within the confirm window clears. It reports whether the clear happened.
func (c *Controller) RequestClearAll(ctx context.Context) bool {
	if c.armer.Confirm(clearAllKey) {
		c.ClearAll(ctx)
		return true
	}
	c.armer.Arm(clearAllKey)
	return false
}

// ConfirmClearAll clears if RequestClearAll armed it and the window is
// still open, ErrNotArmed otherwise.
func (c *Controller) ConfirmClearAll(ctx context.Context) error {
	if !c.armer.Confirm(clearAllKey) {
		return ErrNotArmed
	}
	c.ClearAll(ctx)
	return nil
}

// ClearAll removes every annotation and the stored session.
func (c *Controller) ClearAll(ctx context.Context) {
	c.save.Lock()
	c.mu.Lock()
	old := c.anns
	c.setAnnotations([]annotation.Annotation{})
	c.draft = nil
	c.mu.Unlock()
	c.store.Clear(ctx, c.key)
	c.save.Unlock()

	for _, a := range old {
		c.journal.Record(ctx, OpClear, a)
	}
	c.armer.Reset()
	c.rec.Collapse()
	c.logger.Info("annotator: annotations cleared", "count", len(old))
}

// Reload replaces the in-memory list with what the store holds, for
// sessions shared with another process. An open edit draft whose
// annotation is gone is closed. It returns the new count.
func (c *Controller) Reload(ctx context.Context) int {
	c.save.Lock()
	defer c.save.Unlock()
	list := c.store.Load(ctx, c.key)
	c.mu.Lock()
	c.setAnnotations(list)
	if c.draft.Editing() && c.indexOf(c.draft.ID) < 0 {
		c.draft = nil
	}
	c.mu.Unlock()
	c.logger.Debug("annotator: session reloaded", "key", c.key, "annotations", len(list))
	return len(list)
}

// --- entry control ---

// Corner returns the entry control's docked corner.
func (c *Controller) Corner() dragsnap.Corner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.corner
}

// FabOrigin returns the top-left of the docked entry control.
func (c *Controller) FabOrigin() dom.Point {
	return c.Corner().Origin(c.h.Viewport())
}

// FabDown starts a gesture on the entry control.
func (c *Controller) FabDown(x, y float64) {
	origin := c.FabOrigin()
	c.mu.Lock()
	c.fab.Down(x, y, origin.X, origin.Y)
	c.mu.Unlock()
}

// FabMove reports where the control should be drawn.
func (c *Controller) FabMove(x, y float64) dragsnap.Move {
	vp := c.h.Viewport()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fab.Move(x, y, vp)
}

// FabUp ends the gesture. A click toggles tracking; a drag docks the
// control in the nearest corner and persists it.
func (c *Controller) FabUp(ctx context.Context, x, y float64) dragsnap.Outcome {
	vp := c.h.Viewport()
	c.mu.Lock()
	out := c.fab.Up(x, y, vp)
	if out.Kind == dragsnap.Drag {
		c.corner = out.Corner
	}
	c.mu.Unlock()

	switch out.Kind {
	case dragsnap.Click:
		c.Toggle()
	case dragsnap.Drag:
		c.store.SetCorner(ctx, out.Corner)
		c.logger.Debug("annotator: entry control docked", "corner", out.Corner)
	}
	return out
}

// --- export ---

// Export renders the annotation list as "markdown" (or "md") or "json".
func (c *Controller) Export(format string) ([]byte, error) {
	anns := c.Annotations()
	vp := c.h.Viewport()
	switch strings.ToLower(format) {
	case "markdown", "md":
		return []byte(export.Markdown(anns, c.pageURL, vp, c.now())), nil
	case "json":
		return export.JSON(anns, c.pageURL, vp, c.now())
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
