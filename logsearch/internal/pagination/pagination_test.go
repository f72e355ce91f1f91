package pagination

import (
	"context"
	"errors"
	"testing"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		in   string
		want Range
		ok   bool
	}{
		{"1 to 25 of 100", Range{1, 25, 100}, true},
		{"  76 TO 100 of 100 ", Range{76, 100, 100}, true},
		{"Showing 1,001 to 1,025 of 2,400 rows", Range{1001, 1025, 2400}, true},
		{"1to25of30", Range{1, 25, 30}, true},
		{"page 2 of 4", Range{}, false},
		{"0 to 25 of 100", Range{}, false},
		{"30 to 25 of 100", Range{}, false},
		{"1 to 25 of 10", Range{}, false},
		{"", Range{}, false},
	}
	for _, c := range cases {
		got, ok := ParseRange(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseRange(%q): got %+v,%v want %+v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestDerive_FirstPage(t *testing.T) {
	st := Derive(Range{1, 25, 100}, 0)
	if st.CurrentPage != 1 || st.TotalPages != 4 || st.PageSize != 25 {
		t.Errorf("Derive: got page=%d total=%d size=%d, want 1/4/25", st.CurrentPage, st.TotalPages, st.PageSize)
	}
	if !st.HasPages {
		t.Error("Derive: HasPages false")
	}
}

func TestDerive_LastPage(t *testing.T) {
	st := Derive(Range{76, 100, 100}, 0)
	if st.CurrentPage != 4 || st.TotalPages != 4 {
		t.Errorf("Derive: got page=%d total=%d, want 4/4", st.CurrentPage, st.TotalPages)
	}
	if _, ok := st.Next(); ok {
		t.Error("Next: want no range after the last page")
	}
	if !st.IsLast() {
		t.Error("IsLast: want true")
	}
}

func TestDerive_ConfiguredPageSize(t *testing.T) {
	// A short final page would derive a page size of 10; the configured
	// size keeps the page number right.
	st := Derive(Range{101, 110, 110}, 50)
	if st.CurrentPage != 3 || st.TotalPages != 3 {
		t.Errorf("Derive: got page=%d total=%d, want 3/3", st.CurrentPage, st.TotalPages)
	}
}

func TestNext(t *testing.T) {
	st := Derive(Range{26, 50, 60}, 0)
	next, ok := st.Next()
	if !ok {
		t.Fatal("Next: want a range")
	}
	if want := (Range{51, 60, 60}); next != want {
		t.Errorf("Next: got %+v, want %+v", next, want)
	}
	if got := next.Label(""); got != "51 to 60 of 60" {
		t.Errorf("Label: got %q", got)
	}
	if got := st.First(); got != (Range{1, 25, 60}) {
		t.Errorf("First: got %+v", got)
	}
}

func TestSingle_NoNext(t *testing.T) {
	st := Single()
	if st.HasPages || st.TotalPages != 1 || st.CurrentPage != 1 {
		t.Errorf("Single: got %+v", st)
	}
	if _, ok := st.Next(); ok {
		t.Error("Single: Next should be false")
	}
}

type fakeSource struct {
	val   string
	found bool
	err   error
	calls int
}

func (f *fakeSource) Attribute(_ context.Context, _, _ string) (string, bool, error) {
	f.calls++
	return f.val, f.found, f.err
}

func TestInspect(t *testing.T) {
	src := &fakeSource{val: "26 to 50 of 100", found: true}
	in := NewInspector(src, InspectorConfig{Control: `input[name="inpt_scriptnoterange"]`})

	st := in.Inspect(context.Background())
	if !st.HasPages || st.CurrentPage != 2 || st.TotalPages != 4 {
		t.Errorf("Inspect: got %+v", st)
	}
	if st.Control == "" {
		t.Error("Inspect: Control handle empty")
	}

	// Never cached: the second call re-reads.
	src.val = "51 to 75 of 100"
	if st := in.Inspect(context.Background()); st.CurrentPage != 3 {
		t.Errorf("Inspect after change: got page %d, want 3", st.CurrentPage)
	}
	if src.calls != 2 {
		t.Errorf("calls: got %d, want 2", src.calls)
	}
}

func TestInspect_Degrades(t *testing.T) {
	cases := map[string]*fakeSource{
		"absent":    {found: false},
		"malformed": {val: "page two", found: true},
		"error":     {err: errors.New("detached")},
	}
	for name, src := range cases {
		st := NewInspector(src, InspectorConfig{Control: "#x"}).Inspect(context.Background())
		if st.HasPages || st.TotalPages != 1 {
			t.Errorf("%s: got %+v, want single page", name, st)
		}
	}
}

func TestSizer_ShortLastPage(t *testing.T) {
	var z Sizer
	z.Apply(Derive(Range{Start: 26, End: 50, Total: 60}, 0))

	st := z.Apply(Derive(Range{Start: 51, End: 60, Total: 60}, 0))
	if st.CurrentPage != 3 || st.TotalPages != 3 || st.PageSize != 25 {
		t.Errorf("Apply: got page=%d total=%d size=%d, want 3/3/25", st.CurrentPage, st.TotalPages, st.PageSize)
	}
	if !st.IsLast() {
		t.Error("Apply: short last range no longer last")
	}
}

func TestSizer_FreshPerTraversal(t *testing.T) {
	var first Sizer
	first.Apply(Derive(Range{Start: 1, End: 25, Total: 60}, 0))

	// The host now shows 10 rows per page; a new traversal must not reuse
	// the 25 remembered by the previous one.
	var next Sizer
	st := next.Apply(Derive(Range{Start: 51, End: 60, Total: 60}, 0))
	if st.PageSize != 10 || st.CurrentPage != 6 {
		t.Errorf("Apply: got size=%d page=%d, want 10/6", st.PageSize, st.CurrentPage)
	}
}

func TestSizer_KeepsControl(t *testing.T) {
	var z Sizer
	z.Apply(Derive(Range{Start: 1, End: 25, Total: 30}, 0))
	last := Derive(Range{Start: 26, End: 30, Total: 30}, 0)
	last.Control = "#range"
	if got := z.Apply(last); got.Control != "#range" || got.CurrentPage != 2 {
		t.Errorf("Apply: got %+v", got)
	}
}

func TestInspect_NoMemoryAcrossCalls(t *testing.T) {
	src := &fakeSource{val: "26 to 50 of 60", found: true}
	in := NewInspector(src, InspectorConfig{Control: "#range"})
	in.Inspect(context.Background())

	src.val = "51 to 60 of 60"
	if st := in.Inspect(context.Background()); st.PageSize != 10 {
		t.Errorf("Inspect: got size %d, want 10 derived from the range alone", st.PageSize)
	}
}
