package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Selectors.RangeControl != `input[name="inpt_scriptnoterange"]` {
		t.Errorf("RangeControl: got %q", c.Selectors.RangeControl)
	}
	if c.Selectors.DropdownTrigger != c.Selectors.RangeControl {
		t.Errorf("DropdownTrigger: got %q, want range control", c.Selectors.DropdownTrigger)
	}
	if len(c.Selectors.Containers) != 6 {
		t.Errorf("Containers: got %d, want 6", len(c.Selectors.Containers))
	}
	if !c.Paging.Rewind || !c.Paging.Restore {
		t.Error("Rewind/Restore: want both on by default")
	}
	if c.Timing.PollInterval != 200*time.Millisecond || c.Timing.OpenAttempts != 10 {
		t.Errorf("open poll: got %v x %d", c.Timing.PollInterval, c.Timing.OpenAttempts)
	}
	if c.Timing.ContentInterval != 500*time.Millisecond || c.Timing.ContentAttempts != 20 {
		t.Errorf("content poll: got %v x %d", c.Timing.ContentInterval, c.Timing.ContentAttempts)
	}
	if c.Timing.SettleDelay != 1500*time.Millisecond || c.Timing.Retries != 1 {
		t.Errorf("settle/retries: got %v/%d", c.Timing.SettleDelay, c.Timing.Retries)
	}
	if c.Marker.Class != "ns-search-highlight" || c.Search.SnippetLimit != 200 {
		t.Errorf("marker/snippet: got %q/%d", c.Marker.Class, c.Search.SnippetLimit)
	}
}

func TestParse_OverridesKeepOtherDefaults(t *testing.T) {
	c, err := Parse([]byte(`
target:
  url: https://1234.app.netsuite.com/app/common/scripting/script.nl?id=42
paging:
  page_size: 50
  restore: false
timing:
  settle_delay: 2s
selectors:
  containers: ["td.log"]
sinks:
  - type: webhook
    url: http://localhost:9000/hook
  - {}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Paging.PageSize != 50 || c.Paging.Restore || !c.Paging.Rewind {
		t.Errorf("paging: got %+v", c.Paging)
	}
	if c.Timing.SettleDelay != 2*time.Second || c.Timing.PollInterval != 200*time.Millisecond {
		t.Errorf("timing: got %+v", c.Timing)
	}
	if len(c.Selectors.Containers) != 1 || c.Selectors.Containers[0] != "td.log" {
		t.Errorf("containers: got %v", c.Selectors.Containers)
	}
	if c.Selectors.DropdownPanel != ".dropdownDiv" {
		t.Errorf("DropdownPanel: got %q", c.Selectors.DropdownPanel)
	}
	if c.Sinks[1].Type != "stdout" {
		t.Errorf("sink default type: got %q", c.Sinks[1].Type)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"stealth":   "browser:\n  stealth: invisible\n",
		"page size": "paging:\n  page_size: -5\n",
		"webhook":   "sinks:\n  - type: webhook\n",
		"sink type": "sinks:\n  - type: nats\n",
		"bad yaml":  "paging: [",
	}
	for name, in := range cases {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%s: want error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logsearch.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":8088\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.HTTP.Addr != ":8088" {
		t.Errorf("Addr: got %q", c.HTTP.Addr)
	}

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.HasPrefix(err.Error(), "config: read") {
		t.Errorf("missing file: got %v", err)
	}
}
