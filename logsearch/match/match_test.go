package match

import (
	"strings"
	"testing"
)

func TestStatus_NoMatches(t *testing.T) {
	r := &Result{Term: "boom", Mode: ModeOnce, Stop: StopComplete}
	if got, want := r.Status(), `No matches found for "boom"`; got != want {
		t.Errorf("Status: got %q, want %q", got, want)
	}
}

func TestStatus_AcrossPages(t *testing.T) {
	r := &Result{
		Term:         "error",
		Mode:         ModeAll,
		Matches:      []Record{{Page: 1}, {Page: 1}, {Page: 2}},
		PagesVisited: []int{1, 2},
		TotalPages:   2,
		Stop:         StopComplete,
	}
	if got, want := r.Status(), `Found 3 matches for "error" across 2 pages`; got != want {
		t.Errorf("Status: got %q, want %q", got, want)
	}
}

func TestStatus_Partial(t *testing.T) {
	r := &Result{
		Term:         "x",
		Mode:         ModeAll,
		Matches:      []Record{{Page: 1}},
		PagesVisited: []int{1, 2},
		TotalPages:   4,
		Stop:         StopNavigation,
	}
	got := r.Status()
	if !strings.Contains(got, "stopped after 2 of 4 pages: navigation") {
		t.Errorf("Status: got %q, want partial-stop suffix", got)
	}
}

func TestStatus_PagesWithoutMatches(t *testing.T) {
	r := &Result{
		Term:         "error",
		Mode:         ModeAll,
		Matches:      []Record{{Page: 1}, {Page: 3}},
		PagesVisited: []int{1, 2, 3},
		TotalPages:   3,
		Stop:         StopComplete,
	}
	if got, want := r.Status(), `Found 2 matches for "error" on 2 of 3 pages`; got != want {
		t.Errorf("Status: got %q, want %q", got, want)
	}
}

func TestPageCounts_IncludesEmptyPages(t *testing.T) {
	r := &Result{
		Matches:      []Record{{Page: 1}, {Page: 1}, {Page: 3}},
		PagesVisited: []int{1, 2, 3},
	}
	counts := r.PageCounts()
	if counts[1] != 2 || counts[2] != 0 || counts[3] != 1 {
		t.Errorf("PageCounts: got %v", counts)
	}
	if _, ok := counts[2]; !ok {
		t.Error("PageCounts: visited page without matches missing")
	}
}
