// Package pagination reads the state of the host application's pager from
// its human-readable range descriptor ("26 to 50 of 120").
package pagination

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultLabelFormat renders a range the way the host's dropdown lists it.
const DefaultLabelFormat = "%d to %d of %d"

var rangeRe = regexp.MustCompile(`(?i)(\d[\d,]*)\s*to\s*(\d[\d,]*)\s*of\s*(\d[\d,]*)`)

// Range is a 1-based inclusive item range out of Total items.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Total int `json:"total"`
}

// Label renders the range with format, which takes start, end and total
// in that order. An empty format uses DefaultLabelFormat.
func (r Range) Label(format string) string {
	if format == "" {
		format = DefaultLabelFormat
	}
	return fmt.Sprintf(format, r.Start, r.End, r.Total)
}

// ParseRange extracts the first "<start> to <end> of <total>" in s.
// Thousands separators are accepted. Inconsistent ranges are rejected.
func ParseRange(s string) (Range, bool) {
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return Range{}, false
	}
	var n [3]int
	for i := range n {
		v, err := strconv.Atoi(strings.ReplaceAll(m[i+1], ",", ""))
		if err != nil {
			return Range{}, false
		}
		n[i] = v
	}
	r := Range{Start: n[0], End: n[1], Total: n[2]}
	if r.Start < 1 || r.End < r.Start || r.Total < r.End {
		return Range{}, false
	}
	return r, true
}

// State is a point-in-time reading of the pager. It is never cached across
// page transitions: the host may replace the underlying elements at will.
type State struct {
	HasPages    bool   `json:"has_pages"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	PageSize    int    `json:"page_size"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Total       int    `json:"total"`
	Control     string `json:"control,omitempty"` // selector of the range control, re-resolved on use
}

// Single is the state reported when no pager is present.
func Single() State {
	return State{CurrentPage: 1, TotalPages: 1}
}

// Derive computes the pager state for r. A pageSize of 0 derives the size
// from the range itself.
func Derive(r Range, pageSize int) State {
	if pageSize <= 0 {
		pageSize = r.End - r.Start + 1
	}
	return State{
		HasPages:    true,
		CurrentPage: ceilDiv(r.Start, pageSize),
		TotalPages:  max(ceilDiv(r.Total, pageSize), 1),
		PageSize:    pageSize,
		Start:       r.Start,
		End:         r.End,
		Total:       r.Total,
	}
}

// Range returns the range currently displayed.
func (s State) Range() Range {
	return Range{Start: s.Start, End: s.End, Total: s.Total}
}

// Next returns the range following the current one, or false when the
// current range is the last.
func (s State) Next() (Range, bool) {
	if !s.HasPages || s.PageSize <= 0 {
		return Range{}, false
	}
	start := s.Start + s.PageSize
	if start > s.Total {
		return Range{}, false
	}
	return Range{Start: start, End: min(start+s.PageSize-1, s.Total), Total: s.Total}, true
}

// First returns the first range of the result set.
func (s State) First() Range {
	if !s.HasPages || s.PageSize <= 0 {
		return Range{}
	}
	return Range{Start: 1, End: min(s.PageSize, s.Total), Total: s.Total}
}

// IsFirst reports whether the first range is displayed.
func (s State) IsFirst() bool { return !s.HasPages || s.Start == 1 }

// IsLast reports whether no further range exists.
func (s State) IsLast() bool {
	_, ok := s.Next()
	return !ok
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
