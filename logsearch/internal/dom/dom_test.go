package dom

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
)

const exportHTML = `<!DOCTYPE html>
<html><head><title>Script Execution Log</title><script>alert(1)</script></head>
<body>
<input name="inpt_scriptnoterange" id="inpt_scriptnoterange_3" title="1 to 25 of 60" onclick="steal()">
<table id="scriptlog"><tbody>
<tr><td>ERROR</td><td onmouseover="x()">Invalid record ref</td></tr>
<tr><td>DEBUG</td><td>Loaded 12 records</td></tr>
</tbody></table>
</body></html>`

func TestParse_Sanitize(t *testing.T) {
	d, err := Parse(strings.NewReader(exportHTML), WithSanitize(nil))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, bad := range []string{"<script", "onclick", "onmouseover", "alert(1)"} {
		if strings.Contains(out, bad) {
			t.Errorf("sanitised output contains %q", bad)
		}
	}

	v, ok, err := d.Attribute(context.Background(), `input[name="inpt_scriptnoterange"]`, "title")
	if err != nil || !ok || v != "1 to 25 of 60" {
		t.Errorf("Attribute: got %q,%v,%v", v, ok, err)
	}

	_, title, _ := d.Location(context.Background())
	if title != "Script Execution Log" {
		t.Errorf("title: got %q", title)
	}
}

func TestHighlight_RoundTrip(t *testing.T) {
	d, err := Parse(strings.NewReader(exportHTML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := context.Background()
	var before bytes.Buffer
	d.Render(&before)

	m := highlight.New("record", highlight.Options{})
	hits, err := d.Highlight(ctx, []string{"table tr td"}, m)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits: got %d, want 2", len(hits))
	}
	if hits[0].Snippet != "Invalid record ref" || hits[1].Snippet != "Loaded 12 records" {
		t.Errorf("snippets: got %q, %q", hits[0].Snippet, hits[1].Snippet)
	}

	n, err := d.ClearHighlights(ctx, m.Marker())
	if err != nil || n != 2 {
		t.Errorf("ClearHighlights: got %d,%v", n, err)
	}
	var after bytes.Buffer
	d.Render(&after)
	if before.String() != after.String() {
		t.Error("document differs after clear")
	}
}

func TestAttribute_Missing(t *testing.T) {
	d, _ := Parse(strings.NewReader(`<html><body><p>x</p></body></html>`))
	_, ok, err := d.Attribute(context.Background(), "#nope", "title")
	if ok || err != nil {
		t.Errorf("Attribute: got ok=%v err=%v", ok, err)
	}
}

func TestEmptyDocument(t *testing.T) {
	var d Document
	if _, err := d.Highlight(context.Background(), []string{"td"}, highlight.New("x", highlight.Options{})); err != ErrNoDocument {
		t.Errorf("Highlight: got %v, want ErrNoDocument", err)
	}
	if _, _, err := d.Attribute(context.Background(), "td", "title"); err != ErrNoDocument {
		t.Errorf("Attribute: got %v, want ErrNoDocument", err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "export.html")
	if err := os.WriteFile(src, []byte(exportHTML), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := ParseFile(src, WithSanitize(nil))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	u, _, _ := d.Location(context.Background())
	if !strings.HasPrefix(u, "file://") {
		t.Errorf("url: got %q", u)
	}

	d.Highlight(context.Background(), []string{"td"}, highlight.New("error", highlight.Options{}))
	out := filepath.Join(dir, "out.html")
	if err := d.WriteFile(out); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), `class="ns-search-highlight"`) {
		t.Error("output missing marker")
	}
}
