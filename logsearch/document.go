package logsearch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/logsearch/logsearch/internal/dom"
	"github.com/hazyhaar/logsearch/logsearch/internal/fetcher"
)

// Document is a saved log page held in memory.
type Document = dom.Document

// OpenDocument loads a saved page from a file path or an http(s) URL.
// Saved pages are untrusted input and are sanitised on load.
func OpenDocument(ctx context.Context, src string, logger *slog.Logger) (*Document, error) {
	if !fetcher.IsURL(src) {
		doc, err := dom.ParseFile(src, dom.WithSanitize(nil))
		if err != nil {
			return nil, fmt.Errorf("logsearch: load %s: %w", src, err)
		}
		return doc, nil
	}

	if logger == nil {
		logger = slog.Default()
	}
	page, err := fetcher.New(fetcher.WithLogger(logger)).Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("logsearch: %w", err)
	}
	return dom.Parse(bytes.NewReader(page.Body), dom.WithURL(page.URL), dom.WithSanitize(nil))
}
