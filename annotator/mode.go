package annotator

import "github.com/hazyhaar/annotator/dom"

// Mode is the controller's interaction state.
type Mode int

const (
	// Idle: page events pass through untouched.
	Idle Mode = iota
	// Tracking: hover highlights, click opens the editor on an element.
	Tracking
	// Measuring: crosshair, box model and distances follow the pointer.
	Measuring
)

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m Mode) String() string {
	switch m {
	case Tracking:
		return "tracking"
	case Measuring:
		return "measuring"
	}
	return "idle"
}

// Key is a keyboard event. Name follows KeyboardEvent.key ("a", "Escape",
// "Alt", "Shift").
type Key struct {
	Name  string `json:"key"`
	Up    bool   `json:"up,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
}

func (k Key) is(name string) bool { return k.Name == name }

// toggleChord reports Ctrl+Shift+A.
func (k Key) toggleChord() bool {
	return !k.Up && k.Ctrl && k.Shift && (k.Name == "A" || k.Name == "a")
}

// Pointer is a pointer event in viewport coordinates. Target is the element
// the event was dispatched to; when nil the controller hit-tests (X, Y).
type Pointer struct {
	X, Y   float64
	Target dom.Element
}

// Draft is an open editor: either a new annotation on Element, or an edit of
// the existing annotation ID.
type Draft struct {
	Element  dom.Element       `json:"-"`
	ID       string            `json:"id,omitempty"`
	Comment  string            `json:"comment,omitempty"`
	Selector string            `json:"selector"`
	Path     string            `json:"path"`
	Styles   map[string]string `json:"styles"`
}

// Editing reports whether the draft edits an existing annotation.
func (d *Draft) Editing() bool { return d != nil && d.ID != "" }

// Outcome is what a handler did with an event. Suppress asks the caller to
// cancel the page's default reaction and stop propagation.
type Outcome struct {
	Suppress    bool         `json:"suppress"`
	Mode        Mode         `json:"mode"`
	Draft       *Draft       `json:"draft,omitempty"`
	Highlight   *dom.Rect    `json:"highlight,omitempty"` // hovered element's border box in tracking mode
	Measurement *Measurement `json:"measurement,omitempty"`
	Selection   *dom.Rect    `json:"selection,omitempty"`
}
