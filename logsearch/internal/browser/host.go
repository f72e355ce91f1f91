package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/logsearch/logsearch/internal/highlight"
	"github.com/hazyhaar/logsearch/logsearch/internal/navigate"
	"github.com/hazyhaar/logsearch/logsearch/internal/pagination"
	"github.com/hazyhaar/logsearch/logsearch/internal/search"
	"github.com/hazyhaar/logsearch/logsearch/match"
)

var (
	errNoTrigger = errors.New("browser: dropdown trigger not found")
	errNoOption  = errors.New("browser: option index out of range")
)

// Selectors locates the parts of the host page the Host touches.
type Selectors struct {
	Range           string // range control
	RangeAttribute  string // attribute of Range carrying the descriptor
	DropdownTrigger string
	DropdownPanel   string
	DropdownOption  string
	Content         string
}

// Host is the live log page. It satisfies search.Surface,
// pagination.Source and navigate.Widget. Every call resolves its elements
// afresh: the host application re-renders the table on each page change.
type Host struct {
	page *rod.Page
	sel  Selectors
	log  *slog.Logger
}

// NewHost wraps a tab.
func NewHost(t *Tab, sel Selectors, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{page: t.Page, sel: sel, log: logger}
}

// Highlight implements search.Surface. The tab lists each container's
// text nodes, the matcher splits them here, and the tab swaps in the
// pieces for the text nodes that hold a match. Elements are never
// recreated, so the host's listeners and the pager stay live. A container
// whose text changed between the two calls is skipped.
func (h *Host) Highlight(ctx context.Context, selectors []string, m *highlight.Matcher) ([]search.Hit, error) {
	if m.Empty() || len(selectors) == 0 {
		return nil, nil
	}
	els, err := h.page.Context(ctx).ElementsByJS(rod.Eval(jsContainers, selectors))
	if err != nil {
		return nil, fmt.Errorf("browser: select containers: %w", err)
	}

	var hits []search.Hit
	for _, el := range els {
		if ctx.Err() != nil {
			return hits, ctx.Err()
		}
		got, err := h.highlightOne(ctx, el, m)
		if err != nil {
			h.log.Warn("browser: container skipped", "error", err)
			continue
		}
		hits = append(hits, got...)
	}
	return hits, nil
}

func (h *Host) highlightOne(ctx context.Context, el *rod.Element, m *highlight.Matcher) ([]search.Hit, error) {
	mk := m.Marker()
	el = el.Context(ctx)
	res, err := el.Eval(jsTexts, mk.Selector())
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if res.Value.Nil() {
		return nil, nil
	}
	arr := res.Value.Arr()
	texts := make([]string, len(arr))
	for i, v := range arr {
		texts[i] = v.Str()
	}

	edits, hits := plan(texts, m)
	if len(edits) == 0 {
		return nil, nil
	}

	res, err = el.Eval(jsWrap, texts, edits, mk.Tag, mk.Class, mk.Style)
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if res.Value.Nil() {
		h.log.Warn("browser: container changed during scan")
		return nil, nil
	}
	pos, err := parsePositions(res.Value.Str())
	if err != nil {
		return nil, err
	}
	for i := range hits {
		if i < len(pos) {
			hits[i].Position = pos[i]
		}
	}
	return hits, nil
}

// textEdit replaces the text node at Index of a container.
type textEdit struct {
	Index    int                 `json:"index"`
	Segments []highlight.Segment `json:"segments"`
}

// plan splits a container's text nodes, given in document order. Hits
// come out in the order the tab creates markers.
func plan(texts []string, m *highlight.Matcher) ([]textEdit, []search.Hit) {
	if !m.Matches(strings.Join(texts, "")) {
		return nil, nil
	}
	var (
		edits []textEdit
		hits  []search.Hit
	)
	for i, t := range texts {
		segs := m.Split(t)
		if segs == nil {
			continue
		}
		edits = append(edits, textEdit{Index: i, Segments: segs})
		snippet := highlight.Snippet(t, m.SnippetLimit())
		for _, seg := range segs {
			if seg.Match {
				hits = append(hits, search.Hit{Snippet: snippet})
			}
		}
	}
	return edits, hits
}

func parsePositions(s string) ([]match.Position, error) {
	var pos []match.Position
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &pos); err != nil {
		return nil, fmt.Errorf("browser: positions: %w", err)
	}
	return pos, nil
}

// ClearHighlights implements search.Surface.
func (h *Host) ClearHighlights(ctx context.Context, mk highlight.Marker) (int, error) {
	res, err := h.page.Context(ctx).Eval(jsClear, mk.Selector())
	if err != nil {
		return 0, fmt.Errorf("browser: clear: %w", err)
	}
	return res.Value.Int(), nil
}

// Attribute implements pagination.Source.
func (h *Host) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	res, err := h.page.Context(ctx).Eval(jsAttribute, selector, name)
	if err != nil {
		return "", false, fmt.Errorf("browser: attribute: %w", err)
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

// Open implements navigate.Widget.
func (h *Host) Open(ctx context.Context) error {
	res, err := h.page.Context(ctx).Eval(jsOpen, h.sel.DropdownTrigger)
	if err != nil {
		return fmt.Errorf("browser: open dropdown: %w", err)
	}
	if !res.Value.Bool() {
		return errNoTrigger
	}
	return nil
}

// PanelVisible implements navigate.Widget.
func (h *Host) PanelVisible(ctx context.Context) (bool, error) {
	res, err := h.page.Context(ctx).Eval(jsVisible, h.sel.DropdownPanel)
	if err != nil {
		return false, fmt.Errorf("browser: panel visibility: %w", err)
	}
	return res.Value.Bool(), nil
}

// Options implements navigate.Widget.
func (h *Host) Options(ctx context.Context) ([]string, error) {
	res, err := h.page.Context(ctx).Eval(jsOptions, h.sel.DropdownPanel, h.sel.DropdownOption)
	if err != nil {
		return nil, fmt.Errorf("browser: options: %w", err)
	}
	arr := res.Value.Arr()
	labels := make([]string, len(arr))
	for i, v := range arr {
		labels[i] = v.Str()
	}
	return labels, nil
}

// Choose implements navigate.Widget.
func (h *Host) Choose(ctx context.Context, index int, label string) error {
	res, err := h.page.Context(ctx).Eval(jsChoose, h.sel.DropdownPanel, h.sel.DropdownOption, index, label)
	if err != nil {
		return fmt.Errorf("browser: choose: %w", err)
	}
	return chooseResult(res.Value.Str())
}

func chooseResult(s string) error {
	switch s {
	case "ok":
		return nil
	case "stale":
		return navigate.ErrStaleOption
	default:
		return errNoOption
	}
}

// ContentReady implements navigate.Widget.
func (h *Host) ContentReady(ctx context.Context) (bool, error) {
	ok, _, err := h.page.Context(ctx).Has(h.sel.Content)
	if err != nil {
		return false, fmt.Errorf("browser: content: %w", err)
	}
	return ok, nil
}

// Current implements navigate.Widget.
func (h *Host) Current(ctx context.Context) (pagination.Range, bool, error) {
	desc, found, err := h.Attribute(ctx, h.sel.Range, h.sel.RangeAttribute)
	if err != nil || !found {
		return pagination.Range{}, false, err
	}
	r, ok := pagination.ParseRange(desc)
	return r, ok, nil
}

// Location returns the tab's URL and title.
func (h *Host) Location(ctx context.Context) (string, string, error) {
	info, err := h.page.Context(ctx).Info()
	if err != nil {
		return "", "", fmt.Errorf("browser: page info: %w", err)
	}
	return info.URL, info.Title, nil
}

// BodyText returns the rendered text of the body.
func (h *Host) BodyText(ctx context.Context) (string, error) {
	res, err := h.page.Context(ctx).Eval(jsBodyText)
	if err != nil {
		return "", fmt.Errorf("browser: body text: %w", err)
	}
	return res.Value.Str(), nil
}

// ScrollTo scrolls so that a match position recorded earlier is brought
// to the top of the viewport.
func (h *Host) ScrollTo(ctx context.Context, pos match.Position) error {
	if _, err := h.page.Context(ctx).Eval(jsScroll, pos.Top, pos.Left); err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}
