// Package search runs a term across every page of the host's result set:
// scan the displayed page, advance the pager, repeat, then put the pager
// back where the user left it.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
	"github.com/hazyhaar/logsearch/logsearch/internal/pagination"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

// Hit is a marker created in the hosted document, with its position.
type Hit struct {
	Snippet  string
	Position match.Position
}

// Surface is the scannable hosted document.
type Surface interface {
	// Highlight wraps matches inside the containers selected by selectors
	// and returns them in document order.
	Highlight(ctx context.Context, selectors []string, m *highlight.Matcher) ([]Hit, error)
	// ClearHighlights removes every marker and returns how many there were.
	ClearHighlights(ctx context.Context, mk highlight.Marker) (int, error)
}

// Inspector reads the pager state.
type Inspector interface {
	Inspect(ctx context.Context) pagination.State
}

// Pager moves between result ranges.
type Pager interface {
	Advance(ctx context.Context, st pagination.State) bool
	Goto(ctx context.Context, r pagination.Range) bool
}

// Config controls a search.
type Config struct {
	Containers   []string
	Marker       highlight.Marker
	SnippetLimit int
	MaxPages     int  // hard cap on scanned pages; default 500
	Rewind       bool // start from the first range
	Restore      bool // return to the original range when done
	Logger       *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxPages <= 0 {
		c.MaxPages = 500
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator coordinates the surface, inspector and pager. One search
// runs at a time: markers live in the shared document, so an overlapping
// call is refused instead of interleaved.
type Orchestrator struct {
	surface   Surface
	inspector Inspector
	pager     Pager
	cfg       Config
	busy      sync.Mutex
	now       func() time.Time
}

// New creates an Orchestrator.
func New(surface Surface, inspector Inspector, pager Pager, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		surface:   surface,
		inspector: inspector,
		pager:     pager,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ScanOnce highlights term on the displayed page only.
func (o *Orchestrator) ScanOnce(ctx context.Context, term string) match.Result {
	res := o.newResult(term, match.ModeOnce)
	m := o.matcher(term)
	if m.Empty() {
		res.Stop = match.StopEmptyTerm
		return o.finish(res)
	}
	if !o.busy.TryLock() {
		res.Stop = match.StopBusy
		return o.finish(res)
	}
	defer o.busy.Unlock()

	st := o.inspector.Inspect(ctx)
	res.TotalPages = st.TotalPages

	recs, err := o.scan(ctx, m, st.CurrentPage)
	if err != nil {
		res.Stop = failStop(ctx)
		return o.finish(res)
	}
	res.Matches = recs
	res.PagesVisited = []int{st.CurrentPage}
	res.Stop = match.StopComplete
	return o.finish(res)
}

// Clear removes all markers from the displayed page.
func (o *Orchestrator) Clear(ctx context.Context) (int, error) {
	if !o.busy.TryLock() {
		return 0, ErrBusy
	}
	defer o.busy.Unlock()
	return o.surface.ClearHighlights(ctx, o.cfg.Marker)
}

func (o *Orchestrator) matcher(term string) *highlight.Matcher {
	return highlight.New(term, highlight.Options{
		Marker:       o.cfg.Marker,
		SnippetLimit: o.cfg.SnippetLimit,
	})
}

// scan clears stale markers, highlights the page and tags the hits.
func (o *Orchestrator) scan(ctx context.Context, m *highlight.Matcher, page int) ([]match.Record, error) {
	log := o.cfg.Logger
	if n, err := o.surface.ClearHighlights(ctx, m.Marker()); err != nil {
		log.Warn("search: clear before scan failed", "page", page, "error", err)
	} else if n > 0 {
		log.Debug("search: cleared stale markers", "page", page, "count", n)
	}

	hits, err := o.surface.Highlight(ctx, o.cfg.Containers, m)
	if err != nil {
		log.Warn("search: scan failed", "page", page, "error", err)
		return nil, err
	}

	recs := make([]match.Record, len(hits))
	for i, h := range hits {
		recs[i] = match.Record{Text: h.Snippet, Position: h.Position, Page: page}
	}
	log.Info("search: page scanned", "page", page, "matches", len(recs))
	return recs, nil
}

func (o *Orchestrator) newResult(term string, mode match.Mode) match.Result {
	return match.Result{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Term:    term,
		Mode:    mode,
		Matches: []match.Record{},
		Started: o.now(),
	}
}

func (o *Orchestrator) finish(res match.Result) match.Result {
	res.Elapsed = o.now().Sub(res.Started)
	if res.PagesVisited == nil {
		res.PagesVisited = []int{}
	}
	o.cfg.Logger.Info("search: done",
		"id", res.ID, "mode", res.Mode, "matches", len(res.Matches),
		"pages", len(res.PagesVisited), "stop", res.Stop, "elapsed", res.Elapsed)
	return res
}
