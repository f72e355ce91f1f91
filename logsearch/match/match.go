// Package match defines the records produced by a log search.
// These are the public API contract: sinks, the message router and any
// external consumer import this package to read search results.
package match

import (
	"fmt"
	"time"
)

// Position is the viewport-relative location of a marker at the time it
// was created.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Record is a single highlighted match.
type Record struct {
	Text     string   `json:"text"`     // context snippet, truncated
	Position Position `json:"position"` // viewport-relative at match time
	Page     int      `json:"page"`     // 1-based
}

// Mode distinguishes a full traversal from a single-page scan.
type Mode string

const (
	ModeAll  Mode = "all"
	ModeOnce Mode = "once"
)

// StopReason records why a traversal ended. Every reason is a normal
// outcome; partial results are expected.
type StopReason string

const (
	StopComplete   StopReason = "complete"   // inspector reported no further page
	StopNavigation StopReason = "navigation" // pager failed to advance
	StopRevisit    StopReason = "revisit"    // pager landed on a page already scanned
	StopPageLimit  StopReason = "page_limit" // MaxPages reached
	StopCancelled  StopReason = "cancelled"  // context ended
	StopBusy       StopReason = "busy"       // another search was in flight
	StopEmptyTerm  StopReason = "empty_term"
	StopScanFailed StopReason = "scan_failed" // host could not be read at all
)

// Result is the aggregate outcome of one search invocation.
type Result struct {
	ID           string        `json:"id"`
	Term         string        `json:"term"`
	Mode         Mode          `json:"mode"`
	Matches      []Record      `json:"matches"`
	PagesVisited []int         `json:"pages_visited"`
	TotalPages   int           `json:"total_pages"`
	Stop         StopReason    `json:"stop"`
	Restored     bool          `json:"restored"`
	Started      time.Time     `json:"started"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Count returns the number of matches.
func (r *Result) Count() int { return len(r.Matches) }

// PageCounts returns the number of matches per page in traversal order.
func (r *Result) PageCounts() map[int]int {
	counts := make(map[int]int, len(r.PagesVisited))
	for _, p := range r.PagesVisited {
		counts[p] = 0
	}
	for _, m := range r.Matches {
		counts[m.Page]++
	}
	return counts
}

// spread describes how the matches are distributed over the visited pages.
func (r *Result) spread() string {
	visited := len(r.PagesVisited)
	if len(r.Matches) == 0 {
		return fmt.Sprintf(" across %d pages", visited)
	}
	with := 0
	for _, n := range r.PageCounts() {
		if n > 0 {
			with++
		}
	}
	if with < visited {
		return fmt.Sprintf(" on %d of %d pages", with, visited)
	}
	return fmt.Sprintf(" across %d pages", visited)
}

// Status renders the end-user status line for the result.
func (r *Result) Status() string {
	switch r.Stop {
	case StopEmptyTerm:
		return "Please enter a search term"
	case StopBusy:
		return "A search is already running on this page"
	case StopScanFailed:
		return "Could not read the page"
	}

	var s string
	switch n := len(r.Matches); {
	case n == 0:
		s = fmt.Sprintf("No matches found for %q", r.Term)
	case n == 1:
		s = fmt.Sprintf("Found 1 match for %q", r.Term)
	default:
		s = fmt.Sprintf("Found %d matches for %q", n, r.Term)
	}
	if r.Mode == ModeAll && len(r.PagesVisited) > 1 {
		s += r.spread()
	}
	if r.Mode == ModeAll && r.Stop != StopComplete && r.TotalPages > len(r.PagesVisited) {
		s += fmt.Sprintf(" (stopped after %d of %d pages: %s)", len(r.PagesVisited), r.TotalPages, r.Stop)
	}
	return s
}
