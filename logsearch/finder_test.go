package logsearch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/logsearch/logsearch/internal/dom"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

const logPage = `<html><head><title>Script Execution Log</title></head><body>
<input name="inpt_scriptnoterange" title="1 to 3 of 3">
<table id="scriptlog">
<tr><td>ERROR invalid ref</td></tr>
<tr><td>audit ok</td></tr>
<tr><td>error again and Error</td></tr>
</table></body></html>`

type collector struct {
	mu  sync.Mutex
	got []match.Result
}

func (c *collector) sink() Sink {
	return NewCallbackSink(func(_ context.Context, res match.Result) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.got = append(c.got, res)
		return nil
	})
}

func offlineFinder(t *testing.T, sinks ...Sink) *Finder {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(logPage), dom.WithURL("file:///tmp/log.html"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := NewOffline(doc, nil, nil, sinks...)
	t.Cleanup(f.Stop)
	return f
}

func TestFinder_Search(t *testing.T) {
	var c collector
	f := offlineFinder(t, c.sink())

	res, err := f.Search(context.Background(), "error")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Count() != 3 || res.Stop != match.StopComplete {
		t.Fatalf("Search: got %d matches, stop %s", res.Count(), res.Stop)
	}
	for _, m := range res.Matches {
		if m.Page != 1 {
			t.Errorf("page: got %d, want 1", m.Page)
		}
	}
	if res.Matches[0].Text != "ERROR invalid ref" {
		t.Errorf("first snippet: got %q", res.Matches[0].Text)
	}
	if len(c.got) != 1 || c.got[0].ID != res.ID {
		t.Errorf("sink: got %d results", len(c.got))
	}
}

func TestFinder_EmptyTermNotDelivered(t *testing.T) {
	var c collector
	f := offlineFinder(t, c.sink())
	res, err := f.Search(context.Background(), "")
	if err != nil || res.Stop != match.StopEmptyTerm {
		t.Fatalf("got %s, %v", res.Stop, err)
	}
	if len(c.got) != 0 {
		t.Errorf("sink received %d results for an empty term", len(c.got))
	}
}

func TestFinder_ScanOnceThenClear(t *testing.T) {
	f := offlineFinder(t)
	ctx := context.Background()

	res, err := f.ScanOnce(ctx, "audit")
	if err != nil || res.Count() != 1 || res.Mode != match.ModeOnce {
		t.Fatalf("ScanOnce: %+v, %v", res, err)
	}
	n, err := f.ClearHighlights(ctx)
	if err != nil || n != 1 {
		t.Errorf("ClearHighlights: got %d, %v", n, err)
	}
}

func TestFinder_SearchSelected(t *testing.T) {
	f := offlineFinder(t)
	res, err := f.SearchSelected(context.Background(), "invalid")
	if err != nil || res.Count() != 1 {
		t.Errorf("SearchSelected: %+v, %v", res, err)
	}
}

func TestFinder_PageInfo(t *testing.T) {
	f := offlineFinder(t)
	info, err := f.PageInfo(context.Background())
	if err != nil {
		t.Fatalf("PageInfo: %v", err)
	}
	if !info.IsLogPage || info.Title != "Script Execution Log" || info.URL != "file:///tmp/log.html" {
		t.Errorf("PageInfo: got %+v", info)
	}
	if !info.Pagination.HasPages || info.Pagination.TotalPages != 1 || info.Pagination.Total != 3 {
		t.Errorf("Pagination: got %+v", info.Pagination)
	}
}

func TestIsLogPage(t *testing.T) {
	ind := DefaultConfig().Search.LogPageIndicators
	cases := []struct {
		title, body string
		want        bool
	}{
		{"Script Execution Log", "", true},
		{"Customer", "View the SYSTEM NOTES below", true},
		{"Customer", "name, email, phone", false},
	}
	for _, c := range cases {
		if got := isLogPage(c.title, c.body, ind); got != c.want {
			t.Errorf("isLogPage(%q, %q): got %v", c.title, c.body, got)
		}
	}
}

func TestFinder_NotStarted(t *testing.T) {
	f := New(nil, nil)
	if _, err := f.Search(context.Background(), "x"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Search: got %v, want ErrNotStarted", err)
	}
	if _, err := f.PageInfo(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("PageInfo: got %v", err)
	}
	if err := f.Start(context.Background()); err == nil {
		t.Error("Start without target url: want error")
	}
}

func TestFinder_Dispatch(t *testing.T) {
	f := offlineFinder(t)
	ctx := context.Background()

	resp := f.Dispatch(ctx, Request{Action: ActionSearch, Payload: json.RawMessage(`{"searchTerm":"error"}`)})
	if resp.Error != "" {
		t.Fatalf("search: %s", resp.Error)
	}
	res, ok := resp.Result.(match.Result)
	if !ok || res.Count() != 3 {
		t.Fatalf("search result: got %#v", resp.Result)
	}

	resp = f.Dispatch(ctx, Request{Action: ActionClearHighlights})
	if cr, ok := resp.Result.(clearedResult); !ok || cr.Cleared != 3 {
		t.Errorf("clear: got %#v", resp)
	}

	resp = f.Dispatch(ctx, Request{Action: ActionScrollTo, Payload: json.RawMessage(`{"position":{"top":10,"left":0}}`)})
	if resp.Error != "" {
		t.Errorf("scroll: %s", resp.Error)
	}

	resp = f.Dispatch(ctx, Request{Action: "reload"})
	if resp.Error != ErrUnknownAction.Error() {
		t.Errorf("unknown: got %+v", resp)
	}
}

func TestSinksFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	sinks, err := SinksFromConfig(cfg, nil)
	if err != nil || len(sinks) != 1 {
		t.Fatalf("default: got %d, %v", len(sinks), err)
	}
	cfg.Sinks = []SinkConfig{{Type: "stdout"}, {Type: "webhook", URL: "http://localhost/x"}}
	if sinks, err := SinksFromConfig(cfg, nil); err != nil || len(sinks) != 2 {
		t.Errorf("two sinks: got %d, %v", len(sinks), err)
	}
	cfg.Sinks = []SinkConfig{{Type: "kafka"}}
	if _, err := SinksFromConfig(cfg, nil); err == nil {
		t.Error("unknown type: want error")
	}
}

// layoutLogPage wraps the log table and the pager in a layout table cell,
// as the live host page does.
const layoutLogPage = `<html><head><title>Script Execution Log</title></head><body>
<table id="main"><tr><td id="layout">Log errors
<input name="inpt_scriptnoterange" title="1 to 1 of 1">
<table id="scriptlog"><tr><td>ERROR invalid ref</td></tr></table>
</td></tr></table></body></html>`

func TestFinder_LayoutCellKeepsPager(t *testing.T) {
	doc, err := dom.Parse(strings.NewReader(layoutLogPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := NewOffline(doc, nil, nil)
	t.Cleanup(f.Stop)

	res, err := f.Search(context.Background(), "error")
	if err != nil || res.Count() != 1 || res.Matches[0].Text != "ERROR invalid ref" {
		t.Fatalf("Search: got %+v, %v", res.Matches, err)
	}
	var out strings.Builder
	if err := doc.Render(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `<td id="layout">Log errors`) {
		t.Error("layout cell text was highlighted")
	}
	if !strings.Contains(out.String(), `<input name="inpt_scriptnoterange" title="1 to 1 of 1"/>`) {
		t.Error("pager input changed")
	}
}
