// Package logsearch finds a term across every page of a NetSuite script
// execution log. The log shows one range of entries at a time behind a
// custom dropdown; a Finder scans the displayed range, pages through the
// rest by driving that dropdown, highlights every occurrence in place and
// returns the matches tagged with the page they were found on.
//
// A Finder runs against a live Chrome tab (New + Start) or against a saved
// copy of the page (NewOffline).
package logsearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hazyhaar/logsearch/logsearch/internal/browser"
	"github.com/hazyhaar/logsearch/logsearch/internal/config"
	"github.com/hazyhaar/logsearch/logsearch/internal/dom"
	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
	"github.com/hazyhaar/logsearch/logsearch/internal/message"
	"github.com/hazyhaar/logsearch/logsearch/internal/navigate"
	"github.com/hazyhaar/logsearch/logsearch/internal/pagination"
	"github.com/hazyhaar/logsearch/logsearch/internal/search"
	"github.com/hazyhaar/logsearch/logsearch/internal/sink"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

// ErrNotStarted is returned by operations on a live Finder before Start.
var ErrNotStarted = fmt.Errorf("logsearch: finder not started: %w", browser.ErrNoTab)

// host is what a Finder needs from the page it works on. Both the live
// tab and an in-memory document provide it.
type host interface {
	search.Surface
	pagination.Source
	Location(ctx context.Context) (url, title string, err error)
	BodyText(ctx context.Context) (string, error)
	ScrollTo(ctx context.Context, pos match.Position) error
}

// Paging is the pager state as read from the range control.
type Paging struct {
	HasPages    bool `json:"hasPages"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	PageSize    int  `json:"pageSize,omitempty"`
	Start       int  `json:"start,omitempty"`
	End         int  `json:"end,omitempty"`
	Total       int  `json:"total,omitempty"`
}

// PageInfo describes the page a Finder is attached to.
type PageInfo struct {
	IsLogPage  bool   `json:"isLogPage"`
	Pagination Paging `json:"pagination"`
	URL        string `json:"url"`
	Title      string `json:"title"`
}

// Finder is the top-level search engine. One search runs at a time.
type Finder struct {
	cfg    *config.Config
	logger *slog.Logger
	sinks  *sink.Router
	router *message.Router

	mgr *browser.Manager // nil for an offline Finder
	tab *browser.Tab

	mu    sync.RWMutex
	page  host
	insp  *pagination.Inspector
	orch  *search.Orchestrator
	ready bool
}

// New creates a live Finder from configuration. Call Start before
// searching.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) *Finder {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	mode, err := browser.ParseMode(cfg.Browser.Stealth)
	if err != nil {
		logger.Warn("logsearch: unknown browser mode, using headless", "mode", cfg.Browser.Stealth)
	}

	f := newFinder(cfg, logger, sinks)
	f.mgr = browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		UserDataDir:      cfg.Browser.UserDataDir,
		Mode:             mode,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		NavTimeout:       cfg.Browser.NavTimeout,
		Logger:           logger,
	})
	return f
}

// NewOffline creates a Finder over a saved page. There is no pager to
// drive: a search covers the saved range only.
func NewOffline(doc *dom.Document, cfg *Config, logger *slog.Logger, sinks ...Sink) *Finder {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := newFinder(cfg, logger, sinks)
	f.bind(doc, navigate.Stationary{})
	return f
}

func newFinder(cfg *config.Config, logger *slog.Logger, sinks []Sink) *Finder {
	f := &Finder{
		cfg:    cfg,
		logger: logger,
		sinks:  sink.NewRouter(logger, sinks...),
		router: message.NewRouter(logger, message.Recover(logger)),
	}
	f.registerHandlers()
	return f
}

// Start launches or connects to Chrome and opens the target page. With
// target.attach set, an already open tab on the target is reused.
func (f *Finder) Start(ctx context.Context) error {
	if f.mgr == nil {
		return nil
	}
	if f.cfg.Target.URL == "" {
		return fmt.Errorf("logsearch: no target url")
	}
	if _, err := f.mgr.Start(ctx); err != nil {
		return fmt.Errorf("logsearch: start browser: %w", err)
	}

	var (
		tab *browser.Tab
		err error
	)
	if f.cfg.Target.Attach {
		tab, err = browser.AttachTab(ctx, f.mgr, f.cfg.Target.URL)
	} else {
		tab, err = browser.OpenTab(ctx, f.mgr, f.cfg.Target.URL)
	}
	if err != nil {
		return fmt.Errorf("logsearch: %w", err)
	}
	f.tab = tab
	f.logger.Info("logsearch: tab ready", "url", tab.URL, "attached", tab.Attached, "remote", f.mgr.Remote())

	s := f.cfg.Selectors
	h := browser.NewHost(tab, browser.Selectors{
		Range:           s.RangeControl,
		RangeAttribute:  s.RangeAttribute,
		DropdownTrigger: s.DropdownTrigger,
		DropdownPanel:   s.DropdownPanel,
		DropdownOption:  s.DropdownOption,
		Content:         s.Content,
	}, f.logger)

	t := f.cfg.Timing
	driver := navigate.New(h, navigate.Config{
		LabelFormat:     f.cfg.Paging.LabelFormat,
		PollInterval:    t.PollInterval,
		OpenAttempts:    t.OpenAttempts,
		SettleDelay:     t.SettleDelay,
		ContentInterval: t.ContentInterval,
		ContentAttempts: t.ContentAttempts,
		Retries:         t.Retries,
		Logger:          f.logger,
	})
	f.bind(h, driver)

	f.logger.Info("logsearch: ready", "url", tab.URL, "attached", tab.Attached)
	return nil
}

func (f *Finder) bind(h host, pager search.Pager) {
	insp := pagination.NewInspector(h, pagination.InspectorConfig{
		Control:   f.cfg.Selectors.RangeControl,
		Attribute: f.cfg.Selectors.RangeAttribute,
		PageSize:  f.cfg.Paging.PageSize,
		Logger:    f.logger,
	})
	orch := search.New(h, insp, pager, search.Config{
		Containers:   f.cfg.Selectors.Containers,
		Marker:       f.marker(),
		SnippetLimit: f.cfg.Search.SnippetLimit,
		MaxPages:     f.cfg.Paging.MaxPages,
		Rewind:       f.cfg.Paging.Rewind,
		Restore:      f.cfg.Paging.Restore,
		Logger:       f.logger,
	})

	f.mu.Lock()
	f.page, f.insp, f.orch, f.ready = h, insp, orch, true
	f.mu.Unlock()
}

func (f *Finder) marker() highlight.Marker {
	return highlight.Marker{Class: f.cfg.Marker.Class, Style: f.cfg.Marker.Style}
}

func (f *Finder) bound() (host, *pagination.Inspector, *search.Orchestrator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.ready {
		return nil, nil, nil, ErrNotStarted
	}
	return f.page, f.insp, f.orch, nil
}

// Stop closes the tab (unless attached), the browser and the sinks.
func (f *Finder) Stop() {
	f.mu.Lock()
	f.ready = false
	f.mu.Unlock()

	if f.tab != nil {
		if err := f.tab.Close(); err != nil {
			f.logger.Warn("logsearch: close tab", "error", err)
		}
	}
	if f.mgr != nil {
		if err := f.mgr.Close(); err != nil {
			f.logger.Warn("logsearch: close browser", "error", err)
		}
	}
	if err := f.sinks.Close(); err != nil {
		f.logger.Warn("logsearch: close sinks", "error", err)
	}
}

// Search finds term on every page and highlights it. The result is sent to
// the sinks. Navigation problems never surface as an error: the result
// holds the matches found so far and says why the traversal stopped.
func (f *Finder) Search(ctx context.Context, term string) (match.Result, error) {
	_, _, orch, err := f.bound()
	if err != nil {
		return match.Result{}, err
	}
	return f.deliver(ctx, orch.SearchAllPages(ctx, term)), nil
}

// ScanOnce finds term on the displayed page only.
func (f *Finder) ScanOnce(ctx context.Context, term string) (match.Result, error) {
	_, _, orch, err := f.bound()
	if err != nil {
		return match.Result{}, err
	}
	return f.deliver(ctx, orch.ScanOnce(ctx, term)), nil
}

// SearchSelected is the quick search: scan the displayed page and scroll to
// the first match.
func (f *Finder) SearchSelected(ctx context.Context, term string) (match.Result, error) {
	res, err := f.ScanOnce(ctx, term)
	if err != nil || len(res.Matches) == 0 {
		return res, err
	}
	if err := f.ScrollTo(ctx, res.Matches[0].Position); err != nil {
		f.logger.Warn("logsearch: scroll to first match", "error", err)
	}
	return res, nil
}

func (f *Finder) deliver(ctx context.Context, res match.Result) match.Result {
	if res.Stop == match.StopBusy || res.Stop == match.StopEmptyTerm {
		return res
	}
	if err := f.sinks.Send(ctx, res); err != nil {
		f.logger.Warn("logsearch: deliver result", "id", res.ID, "error", err)
	}
	return res
}

// ClearHighlights removes every marker from the displayed page and returns
// how many were removed.
func (f *Finder) ClearHighlights(ctx context.Context) (int, error) {
	_, _, orch, err := f.bound()
	if err != nil {
		return 0, err
	}
	return orch.Clear(ctx)
}

// PageInfo reports where the Finder is and whether it looks like a log.
func (f *Finder) PageInfo(ctx context.Context) (PageInfo, error) {
	h, insp, _, err := f.bound()
	if err != nil {
		return PageInfo{}, err
	}
	url, title, err := h.Location(ctx)
	if err != nil {
		return PageInfo{}, err
	}
	body, err := h.BodyText(ctx)
	if err != nil {
		return PageInfo{}, err
	}
	st := insp.Inspect(ctx)
	return PageInfo{
		IsLogPage: isLogPage(title, body, f.cfg.Search.LogPageIndicators),
		Pagination: Paging{
			HasPages:    st.HasPages,
			CurrentPage: st.CurrentPage,
			TotalPages:  st.TotalPages,
			PageSize:    st.PageSize,
			Start:       st.Start,
			End:         st.End,
			Total:       st.Total,
		},
		URL:   url,
		Title: title,
	}, nil
}

func isLogPage(title, body string, indicators []string) bool {
	title, body = strings.ToLower(title), strings.ToLower(body)
	for _, ind := range indicators {
		ind = strings.ToLower(strings.TrimSpace(ind))
		if ind != "" && (strings.Contains(title, ind) || strings.Contains(body, ind)) {
			return true
		}
	}
	return false
}

// ScrollTo scrolls the viewport by a match position.
func (f *Finder) ScrollTo(ctx context.Context, pos match.Position) error {
	h, _, _, err := f.bound()
	if err != nil {
		return err
	}
	return h.ScrollTo(ctx, pos)
}
