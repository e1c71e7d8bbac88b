package pwhost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/hazyhaar/annotator/annotator"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/internal/pagejs"
	"github.com/hazyhaar/annotator/kit"
	"github.com/hazyhaar/annotator/reconcile"
)

// Overlay draws reconcile frames through the injected overlay script.
type Overlay struct {
	page   playwright.Page
	logger *slog.Logger
}

// InstallOverlay injects the overlay script now and on every navigation.
func InstallOverlay(page playwright.Page, logger *slog.Logger) (*Overlay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	src := pagejs.Overlay
	if err := page.AddInitScript(playwright.Script{Content: &src}); err != nil {
		return nil, fmt.Errorf("pwhost: init script: %w", err)
	}
	if _, err := page.Evaluate("() => {" + pagejs.Overlay + "}"); err != nil {
		return nil, fmt.Errorf("pwhost: install overlay: %w", err)
	}
	return &Overlay{page: page, logger: logger}, nil
}

// Own returns the overlay root in h's document.
func (o *Overlay) Own(h *Host) dom.Element { return h.QueryFirst(pagejs.OwnRoot) }

func (o *Overlay) Render(f reconcile.Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		o.logger.Debug("pwhost: encode frame", "error", err)
		return
	}
	if _, err := o.page.Evaluate(pagejs.RenderJSON, string(b)); err != nil {
		o.logger.Debug("pwhost: render failed", "seq", f.Seq, "error", err)
	}
}

func (o *Overlay) Clear() {
	if _, err := o.page.Evaluate(pagejs.Clear); err != nil {
		o.logger.Debug("pwhost: clear failed", "error", err)
	}
}

// Bridge exposes the kaiEvent function on the page. Each call is
// dispatched to c and the reply returned to the page script as JSON.
func Bridge(ctx context.Context, page playwright.Page, c *annotator.Controller, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = kit.WithTransport(ctx, "page")
	err := page.ExposeFunction(pagejs.Binding, func(args ...any) any {
		if len(args) == 0 {
			return nil
		}
		payload, _ := args[0].(string)
		var ev annotator.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			logger.Debug("pwhost: bad event payload", "error", err)
			return nil
		}
		b, err := json.Marshal(c.Dispatch(ctx, ev))
		if err != nil {
			return nil
		}
		return string(b)
	})
	if err != nil {
		return fmt.Errorf("pwhost: expose %s: %w", pagejs.Binding, err)
	}
	return nil
}
