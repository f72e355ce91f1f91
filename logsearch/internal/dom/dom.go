// Package dom is an in-memory hosted document. It serves saved page
// exports and tests with the same operations the live browser tab offers.
// A Document has no layout engine: match positions are always zero.
package dom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
	"github.com/hazyhaar/logsearch/logsearch/internal/search"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

// ErrNoDocument is returned by operations on a Document with nothing loaded.
var ErrNoDocument = errors.New("dom: no document loaded")

type options struct {
	url      string
	sanitize *bluemonday.Policy
}

// Option configures Parse.
type Option func(*options)

// WithURL records the address the document was saved from.
func WithURL(u string) Option {
	return func(o *options) { o.url = u }
}

// WithSanitize strips active content with p before parsing. A nil policy
// uses SanitizePolicy.
func WithSanitize(p *bluemonday.Policy) Option {
	return func(o *options) {
		if p == nil {
			p = SanitizePolicy()
		}
		o.sanitize = p
	}
}

// SanitizePolicy keeps tables, text and the attributes that selectors and
// the range descriptor depend on, and drops scripts and event handlers.
func SanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("input", "form", "label")
	p.AllowAttrs("class", "name", "title", "value", "type").Globally()
	p.AllowDataAttributes()
	return p
}

// Document is a parsed HTML document guarded by a mutex.
type Document struct {
	mu    sync.Mutex
	root  *html.Node
	url   string
	title string
	opts  options
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	d := &Document{}
	for _, o := range opts {
		o(&d.opts)
	}
	d.url = d.opts.url
	if err := d.Load(r); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseFile reads an HTML document from path.
func ParseFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dom: open: %w", err)
	}
	defer f.Close()
	opts = append([]Option{WithURL("file://" + path)}, opts...)
	return Parse(f, opts...)
}

// Load replaces the document content, as a host page reload would.
func (d *Document) Load(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("dom: read: %w", err)
	}

	// The title is taken before sanitising, which drops <title>.
	title := ""
	if orig, err := html.Parse(bytes.NewReader(raw)); err == nil {
		title = strings.TrimSpace(goquery.NewDocumentFromNode(orig).Find("title").First().Text())
	}

	src := io.Reader(bytes.NewReader(raw))
	if d.opts.sanitize != nil {
		src = d.opts.sanitize.SanitizeReader(bytes.NewReader(raw))
	}
	root, err := html.Parse(src)
	if err != nil {
		return fmt.Errorf("dom: parse: %w", err)
	}

	d.mu.Lock()
	d.root = root
	d.title = title
	d.mu.Unlock()
	return nil
}

// Highlight implements search.Surface.
func (d *Document) Highlight(_ context.Context, selectors []string, m *highlight.Matcher) ([]search.Hit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return nil, ErrNoDocument
	}
	hits := m.Scan(d.root, selectors)
	out := make([]search.Hit, len(hits))
	for i, h := range hits {
		out[i] = search.Hit{Snippet: h.Snippet}
	}
	return out, nil
}

// ClearHighlights implements search.Surface.
func (d *Document) ClearHighlights(_ context.Context, mk highlight.Marker) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return 0, ErrNoDocument
	}
	return highlight.Clear(d.root, mk), nil
}

// Attribute implements pagination.Source.
func (d *Document) Attribute(_ context.Context, selector, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return "", false, ErrNoDocument
	}
	sel := goquery.NewDocumentFromNode(d.root).Find(selector).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	v, ok := sel.Attr(name)
	return v, ok, nil
}

// Location returns the document's URL and title.
func (d *Document) Location(context.Context) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return "", "", ErrNoDocument
	}
	return d.url, d.title, nil
}

// BodyText returns the text content of the body.
func (d *Document) BodyText(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return "", ErrNoDocument
	}
	return goquery.NewDocumentFromNode(d.root).Find("body").Text(), nil
}

// ScrollTo is a no-op: a Document has no viewport.
func (d *Document) ScrollTo(context.Context, match.Position) error { return nil }

// Render writes the current document, markers included.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		return ErrNoDocument
	}
	return html.Render(w, d.root)
}

// WriteFile renders the document to path.
func (d *Document) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("dom: write: %w", err)
	}
	return nil
}
