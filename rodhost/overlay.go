package rodhost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/annotator/annotator"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/internal/pagejs"
	"github.com/hazyhaar/annotator/kit"
	"github.com/hazyhaar/annotator/reconcile"
)

// Overlay draws reconcile frames into the page through the injected
// overlay script. It implements reconcile.Renderer.
type Overlay struct {
	page   *rod.Page
	logger *slog.Logger
}

// InstallOverlay injects the overlay script into the current document and
// every document the page navigates to.
func InstallOverlay(page *rod.Page, logger *slog.Logger) (*Overlay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := page.EvalOnNewDocument(pagejs.Overlay); err != nil {
		return nil, fmt.Errorf("rodhost: overlay on new document: %w", err)
	}
	if _, err := page.Eval("() => {" + pagejs.Overlay + "}"); err != nil {
		return nil, fmt.Errorf("rodhost: install overlay: %w", err)
	}
	return &Overlay{page: page, logger: logger}, nil
}

// Own returns the overlay root in h's document.
func (o *Overlay) Own(h *Host) dom.Element { return h.QueryFirst(pagejs.OwnRoot) }

func (o *Overlay) Render(f reconcile.Frame) {
	if _, err := o.page.Eval(pagejs.Render, f); err != nil {
		o.logger.Debug("rodhost: render failed", "seq", f.Seq, "error", err)
	}
}

func (o *Overlay) Clear() {
	if _, err := o.page.Eval(pagejs.Clear); err != nil {
		o.logger.Debug("rodhost: clear failed", "error", err)
	}
}

// Apply pushes a dispatch reply to the page.
func (o *Overlay) Apply(r annotator.Reply) {
	if _, err := o.page.Eval(pagejs.Apply, r); err != nil {
		o.logger.Debug("rodhost: apply failed", "error", err)
	}
}

// Bridge forwards page events from the kaiEvent binding to c and pushes
// each reply back through o. It returns when ctx is done.
func Bridge(ctx context.Context, page *rod.Page, c *annotator.Controller, o *Overlay, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := (proto.RuntimeEnable{}).Call(page); err != nil {
		return fmt.Errorf("rodhost: runtime enable: %w", err)
	}
	if err := (proto.RuntimeAddBinding{Name: pagejs.Binding}).Call(page); err != nil {
		return fmt.Errorf("rodhost: add binding: %w", err)
	}

	ctx = kit.WithTransport(ctx, "page")
	wait := page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != pagejs.Binding {
			return
		}
		var ev annotator.Event
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			logger.Debug("rodhost: bad event payload", "error", err)
			return
		}
		o.Apply(c.Dispatch(ctx, ev))
	})
	logger.Info("rodhost: event bridge attached")
	wait()
	return ctx.Err()
}
