package logsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDocument_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.html")
	if err := os.WriteFile(path, []byte(logPage), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := OpenDocument(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	res, err := NewOffline(doc, nil, nil).Search(context.Background(), "error")
	if err != nil || res.Count() != 3 {
		t.Errorf("Search: got %d, %v", res.Count(), err)
	}
}

func TestOpenDocument_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(logPage))
	}))
	defer srv.Close()

	doc, err := OpenDocument(context.Background(), srv.URL+"/export", nil)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	url, title, _ := doc.Location(context.Background())
	if url != srv.URL+"/export" || title != "Script Execution Log" {
		t.Errorf("Location: got %q, %q", url, title)
	}
}

func TestOpenDocument_Missing(t *testing.T) {
	if _, err := OpenDocument(context.Background(), filepath.Join(t.TempDir(), "nope.html"), nil); err == nil {
		t.Error("want error")
	}
}
