package search

import (
	"context"
	"errors"

	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
	"github.com/hazyhaar/logsearch/logsearch/internal/pagination"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

// ErrBusy is returned when an operation overlaps a running search.
var ErrBusy = errors.New("search: another search is running")

type phase int

const (
	phaseInit phase = iota
	phaseScan
	phaseAdvance
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseScan:
		return "scan"
	case phaseAdvance:
		return "advance"
	default:
		return "done"
	}
}

// traversal is the state of one SearchAllPages call. It is created per
// invocation and never shared.
type traversal struct {
	m       *highlight.Matcher
	phase   phase
	origin  pagination.State // state before the search touched the pager
	current pagination.State
	page    int // page being scanned, 1-based
	visited map[int]bool
	sizer   pagination.Sizer
	res     *match.Result
}

// SearchAllPages scans every reachable page for term and returns all
// matches in traversal order. It never fails: navigation problems end the
// traversal early and the matches gathered so far are returned.
func (o *Orchestrator) SearchAllPages(ctx context.Context, term string) match.Result {
	res := o.newResult(term, match.ModeAll)
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

	tr := &traversal{m: m, phase: phaseInit, visited: make(map[int]bool), res: &res}
	for tr.phase != phaseDone {
		o.cfg.Logger.Debug("search: phase", "phase", tr.phase, "page", tr.page)
		switch tr.phase {
		case phaseInit:
			o.init(ctx, tr)
		case phaseScan:
			o.scanPage(ctx, tr)
		case phaseAdvance:
			o.advance(ctx, tr)
		}
	}
	o.restore(ctx, tr)
	return o.finish(res)
}

func (o *Orchestrator) init(ctx context.Context, tr *traversal) {
	log := o.cfg.Logger
	tr.origin = o.inspect(ctx, tr)
	tr.current = tr.origin
	tr.res.TotalPages = tr.origin.TotalPages

	log.Info("search: starting", "id", tr.res.ID, "term", tr.m.Term(),
		"page", tr.origin.CurrentPage, "total_pages", tr.origin.TotalPages)

	if o.cfg.Rewind && tr.origin.HasPages && !tr.origin.IsFirst() {
		if o.pager.Goto(ctx, tr.origin.First()) {
			tr.current = o.inspect(ctx, tr)
		} else {
			log.Warn("search: rewind to first page failed, starting from current page",
				"page", tr.origin.CurrentPage)
		}
	}

	tr.page = pageOf(tr.current, 1)
	tr.phase = phaseScan
}

func (o *Orchestrator) scanPage(ctx context.Context, tr *traversal) {
	if ctx.Err() != nil {
		tr.res.Stop = match.StopCancelled
		tr.phase = phaseDone
		return
	}

	recs, err := o.scan(ctx, tr.m, tr.page)
	if err != nil {
		// Ends the traversal; earlier pages' matches are kept.
		tr.res.Stop = failStop(ctx)
		tr.phase = phaseDone
		return
	}
	tr.visited[tr.page] = true
	tr.res.PagesVisited = append(tr.res.PagesVisited, tr.page)
	tr.res.Matches = append(tr.res.Matches, recs...)

	switch {
	case len(tr.res.PagesVisited) >= o.cfg.MaxPages:
		o.cfg.Logger.Warn("search: page limit reached", "limit", o.cfg.MaxPages)
		tr.res.Stop = match.StopPageLimit
		tr.phase = phaseDone
	case tr.current.IsLast():
		tr.res.Stop = match.StopComplete
		tr.phase = phaseDone
	default:
		tr.phase = phaseAdvance
	}
}

func (o *Orchestrator) advance(ctx context.Context, tr *traversal) {
	if ctx.Err() != nil {
		tr.res.Stop = match.StopCancelled
		tr.phase = phaseDone
		return
	}

	if !o.pager.Advance(ctx, tr.current) {
		if ctx.Err() != nil {
			tr.res.Stop = match.StopCancelled
		} else {
			tr.res.Stop = match.StopNavigation
		}
		tr.phase = phaseDone
		return
	}

	prev := tr.page
	tr.current = o.inspect(ctx, tr)
	tr.page = pageOf(tr.current, prev+1)
	if tr.visited[tr.page] {
		o.cfg.Logger.Warn("search: pager returned to a scanned page", "page", tr.page)
		tr.res.Stop = match.StopRevisit
		tr.phase = phaseDone
		return
	}
	tr.phase = phaseScan
}

// restore puts the pager back on the original range. Best effort.
func (o *Orchestrator) restore(ctx context.Context, tr *traversal) {
	if !o.cfg.Restore || !tr.origin.HasPages {
		tr.res.Restored = true
		return
	}
	now := o.inspect(ctx, tr)
	if now.HasPages && now.Start == tr.origin.Start {
		tr.res.Restored = true
		return
	}
	if ctx.Err() != nil {
		o.cfg.Logger.Warn("search: not restoring original page, context ended")
		return
	}
	tr.res.Restored = o.pager.Goto(ctx, tr.origin.Range())
	if !tr.res.Restored {
		o.cfg.Logger.Warn("search: restore original page failed", "page", tr.origin.CurrentPage)
	}
}

// inspect reads the pager, sizing short final ranges with what this
// traversal has seen.
func (o *Orchestrator) inspect(ctx context.Context, tr *traversal) pagination.State {
	return tr.sizer.Apply(o.inspector.Inspect(ctx))
}

// pageOf returns the inspector's page number, or fallback when the pager
// gives none.
func pageOf(st pagination.State, fallback int) int {
	if st.HasPages && st.CurrentPage > 0 {
		return st.CurrentPage
	}
	return fallback
}

// failStop names the stop reason for a failed scan.
func failStop(ctx context.Context) match.StopReason {
	if ctx.Err() != nil {
		return match.StopCancelled
	}
	return match.StopScanFailed
}
