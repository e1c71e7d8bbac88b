package rodhost

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/annotator/dom"
)

// OpenPage creates a tab sized to vp, navigates to pageURL and waits for
// the load event.
func (m *Manager) OpenPage(ctx context.Context, pageURL string, vp dom.Size) (*rod.Page, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("rodhost: no active browser")
	}

	var (
		page *rod.Page
		err  error
	)
	if m.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("rodhost: create tab: %w", err)
	}

	if vp.Width > 0 && vp.Height > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             int(vp.Width),
			Height:            int(vp.Height),
			DeviceScaleFactor: 1,
		})
		if err != nil {
			m.cfg.Logger.Warn("rodhost: set viewport failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("rodhost: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("rodhost: wait load timeout", "url", pageURL, "error", err)
	}
	return page.Context(ctx), nil
}
