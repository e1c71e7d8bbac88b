package annotator

import (
	"context"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/dragsnap"
)

// EventType names a page event forwarded by a live host.
type EventType string

const (
	EventKeyDown     EventType = "keydown"
	EventKeyUp       EventType = "keyup"
	EventPointerMove EventType = "pointermove"
	EventPointerDown EventType = "pointerdown"
	EventPointerUp   EventType = "pointerup"
	EventClick       EventType = "click"
	EventBlur        EventType = "blur"

	// Entry control gesture.
	EventFabDown EventType = "fab-down"
	EventFabMove EventType = "fab-move"
	EventFabUp   EventType = "fab-up"

	// Editor and marker actions.
	EventCommit   EventType = "commit"
	EventCancel   EventType = "cancel"
	EventExpand   EventType = "expand"
	EventCollapse EventType = "collapse"
	EventShowBox  EventType = "show-box"
	EventHideBox  EventType = "hide-box"
	EventDelete   EventType = "delete"
	EventClearAll EventType = "clear-all"
)

// Event is the wire form of a page event. Own is set by the page script
// when the event target sits inside the tool's own chrome.
type Event struct {
	Type    EventType `json:"type"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Key     string    `json:"key,omitempty"`
	Ctrl    bool      `json:"ctrl,omitempty"`
	Shift   bool      `json:"shift,omitempty"`
	Alt     bool      `json:"alt,omitempty"`
	Own     bool      `json:"own,omitempty"`
	Comment string    `json:"comment,omitempty"`
	ID      string    `json:"id,omitempty"`
}

// Reply is what the page script needs to redraw after an event.
type Reply struct {
	Outcome
	Fab        *dragsnap.Move         `json:"fab,omitempty"`
	Corner     dragsnap.Corner        `json:"corner,omitempty"`
	Annotation *annotation.Annotation `json:"annotation,omitempty"`
	Armed      bool                   `json:"armed,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Dispatch routes one page event to the matching handler.
func (c *Controller) Dispatch(ctx context.Context, ev Event) Reply {
	p := Pointer{X: ev.X, Y: ev.Y}
	page := func(fn func(Pointer) Outcome) Reply {
		if ev.Own {
			return Reply{Outcome: Outcome{Mode: c.Mode()}}
		}
		return Reply{Outcome: fn(p)}
	}

	switch ev.Type {
	case EventKeyDown, EventKeyUp:
		return Reply{Outcome: c.HandleKey(Key{
			Name: ev.Key, Up: ev.Type == EventKeyUp, Ctrl: ev.Ctrl, Shift: ev.Shift, Alt: ev.Alt,
		})}
	case EventBlur:
		c.HandleBlur()
	case EventPointerMove:
		if c.pressing() {
			return page(c.HandlePointerMove)
		}
		return page(c.HandleHover)
	case EventPointerDown:
		return page(c.HandlePointerDown)
	case EventPointerUp:
		return page(c.HandlePointerUp)
	case EventClick:
		return page(c.HandleClick)

	case EventFabDown:
		c.FabDown(ev.X, ev.Y)
	case EventFabMove:
		mv := c.FabMove(ev.X, ev.Y)
		return Reply{Outcome: Outcome{Mode: c.Mode()}, Fab: &mv}
	case EventFabUp:
		c.FabUp(ctx, ev.X, ev.Y)
		return Reply{Outcome: Outcome{Mode: c.Mode()}, Corner: c.Corner()}

	case EventCommit:
		a, err := c.Commit(ctx, ev.Comment)
		if err != nil {
			return c.replyErr(err)
		}
		return Reply{Outcome: Outcome{Mode: c.Mode()}, Annotation: &a}
	case EventCancel:
		c.CloseDraft()
	case EventExpand:
		c.rec.Expand(ev.ID)
	case EventCollapse:
		c.rec.Collapse()
	case EventShowBox:
		c.rec.ShowBox(ev.ID)
	case EventHideBox:
		c.rec.HideBox(ev.ID)
	case EventDelete:
		done, err := c.RequestDelete(ctx, ev.ID)
		if err != nil {
			return c.replyErr(err)
		}
		return Reply{Outcome: Outcome{Mode: c.Mode()}, Armed: !done}
	case EventClearAll:
		done := c.RequestClearAll(ctx)
		return Reply{Outcome: Outcome{Mode: c.Mode()}, Armed: !done}
	default:
		c.logger.Debug("annotator: unknown event", "type", ev.Type)
	}
	return Reply{Outcome: Outcome{Mode: c.Mode()}}
}

func (c *Controller) replyErr(err error) Reply {
	return Reply{Outcome: Outcome{Mode: c.Mode()}, Error: err.Error()}
}

func (c *Controller) pressing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.press != nil
}
