package browser

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
	"github.com/hazyhaar/logsearch/logsearch/internal/navigate"
	"github.com/hazyhaar/logsearch/logsearch/internal/pagination"
	"github.com/hazyhaar/logsearch/logsearch/internal/search"
)

// Host must satisfy every interface the search stack drives.
var (
	_ search.Surface    = (*Host)(nil)
	_ pagination.Source = (*Host)(nil)
	_ navigate.Widget   = (*Host)(nil)
)

func TestPlan_SplitsMatchingTextNodes(t *testing.T) {
	m := highlight.New("error", highlight.Options{})
	texts := []string{"Record ", "error", " at line 3, ERROR again", "clean"}
	edits, hits := plan(texts, m)
	if len(edits) != 2 || edits[0].Index != 1 || edits[1].Index != 2 {
		t.Fatalf("edits: got %+v", edits)
	}
	if len(hits) != 2 || hits[0].Snippet != "error" || hits[1].Snippet != " at line 3, ERROR again" {
		t.Fatalf("hits: got %+v", hits)
	}
	var joined strings.Builder
	for _, seg := range edits[1].Segments {
		joined.WriteString(seg.Text)
	}
	if joined.String() != texts[2] {
		t.Errorf("segments do not rebuild the text node: %q", joined.String())
	}
}

func TestPlan_NoMatch(t *testing.T) {
	m := highlight.New("absent", highlight.Options{})
	if edits, hits := plan([]string{"odd   spacing & entities"}, m); edits != nil || hits != nil {
		t.Errorf("plan: got %+v %+v", edits, hits)
	}
}

func TestPlan_MatchAcrossNodesIsNotSplit(t *testing.T) {
	// "err" and "or" sit in different text nodes; neither holds the term.
	m := highlight.New("error", highlight.Options{})
	if edits, _ := plan([]string{"err", "or"}, m); len(edits) != 0 {
		t.Errorf("edits: got %+v", edits)
	}
}

func TestPlan_SnippetLimit(t *testing.T) {
	m := highlight.New("x", highlight.Options{SnippetLimit: 3})
	_, hits := plan([]string{"abcdx"}, m)
	if len(hits) != 1 || hits[0].Snippet != "abc..." {
		t.Errorf("hits: got %+v", hits)
	}
}

func TestEditJSON(t *testing.T) {
	m := highlight.New("b", highlight.Options{})
	edits, _ := plan([]string{"abc"}, m)
	raw, err := json.Marshal(edits)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"index":0,"segments":[{"text":"a","match":false},{"text":"b","match":true},{"text":"c","match":false}]}]`
	if string(raw) != want {
		t.Errorf("json:\n got %s\nwant %s", raw, want)
	}
}

func TestContainerScriptsKeepElements(t *testing.T) {
	// Highlighting must never replace markup wholesale: that would detach
	// the pager's listeners from the page.
	for name, js := range map[string]string{"jsTexts": jsTexts, "jsWrap": jsWrap} {
		if strings.Contains(js, "innerHTML") || strings.Contains(js, "outerHTML") {
			t.Errorf("%s rewrites markup", name)
		}
	}
}

func TestParsePositions(t *testing.T) {
	pos, err := parsePositions(`[{"top":120.5,"left":8},{"top":300,"left":16}]`)
	if err != nil {
		t.Fatalf("parsePositions: %v", err)
	}
	if len(pos) != 2 || pos[0].Top != 120.5 || pos[1].Left != 16 {
		t.Errorf("got %+v", pos)
	}
	if pos, err := parsePositions(""); err != nil || pos != nil {
		t.Errorf("empty: got %v, %v", pos, err)
	}
	if _, err := parsePositions("{"); err == nil {
		t.Error("malformed: want error")
	}
}

func TestChooseResult(t *testing.T) {
	if err := chooseResult("ok"); err != nil {
		t.Errorf("ok: %v", err)
	}
	if err := chooseResult("stale"); !errors.Is(err, navigate.ErrStaleOption) {
		t.Errorf("stale: got %v", err)
	}
	if err := chooseResult("missing"); err == nil {
		t.Error("missing: want error")
	}
}

func TestSameTarget(t *testing.T) {
	want, _ := url.Parse("https://1234.app.netsuite.com/app/common/scripting/script.nl")
	cases := map[string]bool{
		"https://1234.app.netsuite.com/app/common/scripting/script.nl?id=7&e=T": true,
		"https://1234.APP.netsuite.com/app/common/scripting/script.nl":          true,
		"https://1234.app.netsuite.com/app/center/card.nl":                      false,
		"https://5678.app.netsuite.com/app/common/scripting/script.nl":          false,
		"about:blank": false,
	}
	for u, ok := range cases {
		if got := sameTarget(want, u); got != ok {
			t.Errorf("sameTarget(%s): got %v, want %v", u, got, ok)
		}
	}

	hostOnly, _ := url.Parse("https://1234.app.netsuite.com")
	if !sameTarget(hostOnly, "https://1234.app.netsuite.com/anything") {
		t.Error("host-only target should match any path")
	}
}

func TestBlockSet(t *testing.T) {
	set := blockSet([]string{"Images", " fonts ", "media", ""})
	for _, k := range []string{"image", "font", "media"} {
		if !set[proto.NetworkResourceType(k)] {
			t.Errorf("%s not blocked", k)
		}
	}
	if len(set) != 3 {
		t.Errorf("size: got %d, want 3", len(set))
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("headful"); err != nil || m != ModeHeadful {
		t.Errorf("headful: %v %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeHeadless {
		t.Errorf("empty: %v %v", m, err)
	}
	if _, err := ParseMode("ghost"); err == nil {
		t.Error("unknown: want error")
	}
}
