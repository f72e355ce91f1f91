package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// Tab is the browser tab showing the log page.
type Tab struct {
	Page     *rod.Page
	URL      string
	Attached bool // the tab existed before this process found it
	manager  *Manager
}

// OpenTab creates a stealth tab, applies resource blocking and navigates to
// pageURL.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	mgr.cfg.Logger.Info("browser: tab opened", "url", pageURL)
	return &Tab{Page: page, URL: pageURL, manager: mgr}, nil
}

// AttachTab finds an open tab whose URL matches target: same host, and the
// same path when target has one. It is how a search runs against the page
// a user already has open in a remote Chrome.
func AttachTab(ctx context.Context, mgr *Manager, target string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	want, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("browser: target url: %w", err)
	}

	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if sameTarget(want, info.URL) {
			mgr.cfg.Logger.Info("browser: attached to tab", "url", info.URL)
			return &Tab{Page: p, URL: info.URL, Attached: true, manager: mgr}, nil
		}
	}
	return nil, fmt.Errorf("%w matching %s", ErrNoTab, target)
}

func sameTarget(want *url.URL, candidate string) bool {
	got, err := url.Parse(candidate)
	if err != nil || got.Host == "" {
		return false
	}
	if !strings.EqualFold(got.Host, want.Host) {
		return false
	}
	p := strings.TrimSuffix(want.Path, "/")
	return p == "" || strings.HasPrefix(got.Path, p)
}

// Close closes a tab this process opened. Attached tabs are left open.
func (t *Tab) Close() error {
	if t.Page == nil || t.Attached {
		return nil
	}
	return t.Page.Close()
}
