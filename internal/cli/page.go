package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"github.com/playwright-community/playwright-go"

	"github.com/hazyhaar/annotator/annotator"
	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/memdom"
	"github.com/hazyhaar/annotator/pwhost"
	"github.com/hazyhaar/annotator/reconcile"
	"github.com/hazyhaar/annotator/rodhost"
)

// page is an opened document plus whatever the driver offers on top of
// the dom.Host: the in-page overlay, the event bridge and screenshots.
type page struct {
	host     dom.Host
	own      dom.Element
	renderer reconcile.Renderer
	bridge   func(ctx context.Context, c *annotator.Controller) error
	shot     func() ([]byte, error)
	close    func() error
}

func (p *page) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// openPage opens cfg.PageURL with the configured driver. With overlay set
// the overlay script is installed and the event bridge prepared.
func openPage(ctx context.Context, cfg *annotator.Config, overlay bool, logger *slog.Logger) (*page, error) {
	if cfg.PageURL == "" {
		return nil, errors.New("cli: no page url (page_url, --url or ANNOTATOR_PAGE_URL)")
	}
	switch cfg.Browser.Driver {
	case "memdom":
		return openMemdom(cfg)
	case "rod":
		return openRod(ctx, cfg, overlay, logger)
	case "playwright":
		return openPlaywright(cfg, overlay, logger)
	}
	return nil, fmt.Errorf("cli: unknown driver %q", cfg.Browser.Driver)
}

// openMemdom parses a local HTML file whose elements carry data-rect
// geometry. There is no live page: the bridge only waits for shutdown.
func openMemdom(cfg *annotator.Config) (*page, error) {
	doc, err := memdom.ParseFile(strings.TrimPrefix(cfg.PageURL, "file://"), cfg.Viewport.Size())
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	return &page{
		host: doc,
		bridge: func(ctx context.Context, _ *annotator.Controller) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, nil
}

func openRod(ctx context.Context, cfg *annotator.Config, overlay bool, logger *slog.Logger) (*page, error) {
	m := rodhost.NewManager(rodhost.Config{
		RemoteURL: cfg.Browser.Remote,
		Headless:  cfg.Browser.IsHeadless(),
		Stealth:   cfg.Browser.Stealth,
		Timeout:   cfg.Browser.Timeout,
		Logger:    logger,
	})
	if _, err := m.Start(ctx); err != nil {
		return nil, err
	}
	rp, err := m.OpenPage(ctx, cfg.PageURL, cfg.Viewport.Size())
	if err != nil {
		m.Close()
		return nil, err
	}
	h := rodhost.NewHost(rp, logger)
	p := &page{
		host:  h,
		close: m.Close,
		shot: func() ([]byte, error) {
			return rp.Screenshot(false, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
		},
	}
	if !overlay {
		return p, nil
	}
	o, err := rodhost.InstallOverlay(rp, logger)
	if err != nil {
		m.Close()
		return nil, err
	}
	p.own = o.Own(h)
	p.renderer = o
	p.bridge = func(ctx context.Context, c *annotator.Controller) error {
		return rodhost.Bridge(ctx, rp, c, o, logger)
	}
	return p, nil
}

func openPlaywright(cfg *annotator.Config, overlay bool, logger *slog.Logger) (*page, error) {
	s, err := pwhost.Open(cfg.PageURL, pwhost.Config{
		Engine:    cfg.Browser.Engine,
		Headless:  cfg.Browser.IsHeadless(),
		Viewport:  cfg.Viewport.Size(),
		TimeoutMs: float64(cfg.Browser.Timeout.Milliseconds()),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	h := pwhost.NewHost(s.Page, logger)
	p := &page{
		host:  h,
		close: s.Close,
		shot: func() ([]byte, error) {
			return s.Page.Screenshot(playwright.PageScreenshotOptions{Type: playwright.ScreenshotTypePng})
		},
	}
	if !overlay {
		return p, nil
	}
	o, err := pwhost.InstallOverlay(s.Page, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	p.own = o.Own(h)
	p.renderer = o
	p.bridge = func(ctx context.Context, c *annotator.Controller) error {
		if err := pwhost.Bridge(ctx, s.Page, c, logger); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	}
	return p, nil
}
