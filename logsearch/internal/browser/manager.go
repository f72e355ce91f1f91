// Package browser drives the Chrome tab that shows the NetSuite log. It
// launches or connects to Chrome through Rod, opens or attaches to the log
// tab, and exposes that tab as the surface, pager widget and range source
// the search packages work against.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrNoTab is returned when no browser tab is available to work on.
var ErrNoTab = errors.New("browser: no tab")

// Mode selects how a local Chrome is run.
type Mode int

const (
	ModeHeadless Mode = iota // headless + stealth
	ModeHeadful              // visible window on an Xvfb display
)

// ParseMode maps the config names onto Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "headless":
		return ModeHeadless, nil
	case "headful":
		return ModeHeadful, nil
	}
	return 0, fmt.Errorf("browser: unknown mode %q", s)
}

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools URL of a running Chrome, either the
	// ws:// endpoint or the http://host:port the endpoint is resolved
	// from. Empty launches a local Chrome.
	RemoteURL string

	// UserDataDir is the profile a local Chrome starts with. Pointing it at
	// a profile that is logged in to NetSuite avoids a login step.
	UserDataDir string

	Mode             Mode
	XvfbDisplay      string   // default ":99"
	ResourceBlocking []string // images, fonts, media, stylesheets
	NavTimeout       time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the Chrome connection.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	cancel  context.CancelFunc // ends a remote connection without closing Chrome
	closed  bool
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance) and returns
// the Rod browser handle. Calling Start again returns the same handle.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, err := m.launch(ctx)
	if err != nil {
		m.cleanup()
		return nil, err
	}
	m.browser = b
	return b, nil
}

// Browser returns the current Rod browser handle, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Remote reports whether the manager is attached to a Chrome it did not
// start.
func (m *Manager) Remote() bool { return m.cfg.RemoteURL != "" }

// Close shuts down a launched Chrome and Xvfb. A remote Chrome is only
// disconnected: its tabs belong to the user.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) launch(ctx context.Context) (*rod.Browser, error) {
	log := m.cfg.Logger

	var wsURL string
	if m.Remote() {
		u, err := launcher.ResolveURL(m.cfg.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("browser: resolve %s: %w", m.cfg.RemoteURL, err)
		}
		wsURL = u
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		if m.cfg.Mode == ModeHeadful {
			if err := m.startXvfb(); err != nil {
				return nil, fmt.Errorf("browser: xvfb: %w", err)
			}
		}

		l := launcher.New()
		if m.cfg.Mode == ModeHeadful {
			l = l.Headless(false).Env("DISPLAY=" + m.cfg.XvfbDisplay)
		} else {
			l = l.Headless(true)
		}
		if m.cfg.UserDataDir != "" {
			l = l.UserDataDir(m.cfg.UserDataDir)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "mode", m.cfg.Mode, "profile", m.cfg.UserDataDir)
	}

	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b := rod.New().Context(connCtx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	m.cancel = cancel
	return b, nil
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil && !m.Remote() {
		err = m.browser.Close()
	}
	m.browser = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	if err != nil {
		return fmt.Errorf("browser: close: %w", err)
	}
	return nil
}
