// Package reconcile keeps on-screen markers attached to annotated elements
// while the page scrolls, reflows and mutates.
//
// Each frame re-resolves every annotation's locator, reads the element's
// current box, clamps a marker into the viewport and merges colliding
// markers into stacks. Nothing is cached between frames except which stacks
// exist (so vanished stacks can be torn down) and which one is expanded.
package reconcile

import (
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/dom"
)

// Resolver turns a locator back into an element.
type Resolver interface {
	Resolve(locator string) dom.Element
}

// Marker is one annotation's on-screen position for a frame.
type Marker struct {
	AnnotationID string  `json:"annotation_id"`
	Index        int     `json:"index"`
	Label        string  `json:"label"`
	Top          float64 `json:"top"`
	Left         float64 `json:"left"`
	// Box is the highlight around the live element, present only while
	// the annotation's box is shown.
	Box *dom.Rect `json:"box,omitempty"`
}

// Point returns the marker's top-left corner.
func (m Marker) Point() dom.Point { return dom.Point{X: m.Left, Y: m.Top} }

// Stack is a cluster of two or more colliding markers drawn as one.
type Stack struct {
	Key      string   `json:"key"`
	Members  []Marker `json:"members"`
	Top      float64  `json:"top"`
	Left     float64  `json:"left"`
	Expanded bool     `json:"expanded"`
	// ExpandRight is set on the expanded stack: its member list opens
	// toward the wider side of the viewport.
	ExpandRight bool `json:"expand_right,omitempty"`
	// Slots holds the top-left corner of each member's marker while the
	// stack is expanded, in member order.
	Slots []dom.Point `json:"slots,omitempty"`
}

// Preview is the provisional marker and box for the element currently
// being annotated.
type Preview struct {
	Top  float64  `json:"top"`
	Left float64  `json:"left"`
	Box  dom.Rect `json:"box"`
}

// Frame is the full overlay state produced by one pass.
type Frame struct {
	Seq      uint64   `json:"seq"`
	Viewport dom.Size `json:"viewport"`
	Markers  []Marker `json:"markers"`
	Stacks   []Stack  `json:"stacks"`
	// Hidden lists annotations whose locator resolved to nothing. They
	// reappear on their own once the element is back.
	Hidden []string `json:"hidden,omitempty"`
	// TornDown lists stack keys present last frame and gone now.
	TornDown []string `json:"torn_down,omitempty"`
	// Collapsed is the key of the expanded stack that vanished this frame.
	Collapsed string   `json:"collapsed,omitempty"`
	Preview   *Preview `json:"preview,omitempty"`
}

// Reconciler computes frames. It is safe for concurrent use: the loop calls
// Pass while the controller toggles boxes, previews and stack expansion.
type Reconciler struct {
	host     dom.Host
	resolver Resolver

	mu       sync.Mutex
	seq      uint64
	stacks   map[string]bool
	expanded string
	boxes    map[string]bool
	preview  dom.Element
}

// New creates a Reconciler reading geometry from h and resolving locators
// through r.
func New(h dom.Host, r Resolver) *Reconciler {
	return &Reconciler{
		host:     h,
		resolver: r,
		stacks:   map[string]bool{},
		boxes:    map[string]bool{},
	}
}

// Pass runs one reconciliation over anns, which the caller must not mutate
// during the call.
func (r *Reconciler) Pass(anns []annotation.Annotation) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	vp := r.host.Viewport()
	f := Frame{Seq: r.seq, Viewport: vp}

	positioned := make([]Marker, 0, len(anns))
	for i, a := range anns {
		el := r.resolver.Resolve(a.Selector)
		if el == nil {
			f.Hidden = append(f.Hidden, a.ID)
			continue
		}
		rect := r.host.BoundingRect(el)
		top, left := Anchor(rect)
		top, left = Clamp(top, left, vp)
		m := Marker{
			AnnotationID: a.ID,
			Index:        i + 1,
			Label:        "Annotation: " + prefix(a.Comment, 50),
			Top:          top,
			Left:         left,
		}
		if r.boxes[a.ID] {
			box := rect.Inflate(BoxGap)
			m.Box = &box
		}
		positioned = append(positioned, m)
	}

	live := make(map[string]bool)
	for _, c := range FindClusters(positioned) {
		if len(c) == 1 {
			f.Markers = append(f.Markers, c[0])
			continue
		}
		f.Stacks = append(f.Stacks, r.stack(c, vp))
		live[f.Stacks[len(f.Stacks)-1].Key] = true
	}

	for key := range r.stacks {
		if live[key] {
			continue
		}
		f.TornDown = append(f.TornDown, key)
		if key == r.expanded {
			f.Collapsed = key
			r.expanded = ""
		}
	}
	sort.Strings(f.TornDown)
	r.stacks = live

	if r.preview != nil {
		rect := r.host.BoundingRect(r.preview)
		top, left := Anchor(rect)
		top, left = Clamp(top, left, vp)
		f.Preview = &Preview{Top: top, Left: left, Box: rect.Inflate(BoxGap)}
	}
	return f
}

func (r *Reconciler) stack(members []Marker, vp dom.Size) Stack {
	ids := make([]string, len(members))
	var top, left float64
	for i, m := range members {
		ids[i] = m.AnnotationID
		top += m.Top
		left += m.Left
	}
	n := float64(len(members))
	top, left = Clamp(top/n, left/n, vp)
	s := Stack{
		Key:     StackKey(ids),
		Members: members,
		Top:     top,
		Left:    left,
	}
	if s.Key == r.expanded {
		s.Expanded = true
		s.ExpandRight = vp.Width-(left+MarkerSize) >= left
		s.Slots = expandSlots(top, left, len(members), s.ExpandRight, vp)
	}
	return s
}

// expandSlots lays n markers out in a row beside the stack marker.
func expandSlots(top, left float64, n int, right bool, vp dom.Size) []dom.Point {
	step := float64(MarkerSize + MarkerPad)
	if !right {
		step = -step
	}
	slots := make([]dom.Point, n)
	for i := range slots {
		y, x := Clamp(top, left+float64(i+1)*step, vp)
		slots[i] = dom.Point{X: x, Y: y}
	}
	return slots
}

// Expand marks a live stack as expanded. It fails for keys that were not
// present in the last frame.
func (r *Reconciler) Expand(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stacks[key] {
		return false
	}
	r.expanded = key
	return true
}

// Collapse closes the expanded stack, if any.
func (r *Reconciler) Collapse() {
	r.mu.Lock()
	r.expanded = ""
	r.mu.Unlock()
}

// Expanded returns the key of the expanded stack, or "".
func (r *Reconciler) Expanded() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expanded
}

// ShowBox starts drawing the highlight box for an annotation.
func (r *Reconciler) ShowBox(id string) {
	r.mu.Lock()
	r.boxes[id] = true
	r.mu.Unlock()
}

// HideBox stops drawing the highlight box for an annotation.
func (r *Reconciler) HideBox(id string) {
	r.mu.Lock()
	delete(r.boxes, id)
	r.mu.Unlock()
}

// SetPreview tracks el as the element being annotated.
func (r *Reconciler) SetPreview(el dom.Element) {
	r.mu.Lock()
	r.preview = el
	r.mu.Unlock()
}

// ClearPreview drops the preview marker.
func (r *Reconciler) ClearPreview() { r.SetPreview(nil) }

// Reset discards all ephemeral state: stacks, expansion, boxes, preview.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stacks = map[string]bool{}
	r.expanded = ""
	r.boxes = map[string]bool{}
	r.preview = nil
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
