// Package highlight finds literal, case-insensitive occurrences of a search
// term in the text of an HTML tree and wraps each one in a marker element.
//
// The rewrite is text-node local: only the text nodes that contain a match
// are replaced, so element structure, attributes and unrelated text are left
// exactly as they were. Clear reverses the rewrite without residue.
package highlight

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultSnippetLimit is the maximum snippet length in runes.
const DefaultSnippetLimit = 200

// Marker is the signature of the elements this package creates. Only
// elements carrying Class are ever treated as markers.
type Marker struct {
	Tag   string // default "span"
	Class string // default "ns-search-highlight"
	Style string // inline style, may be empty
}

// DefaultMarker mirrors the highlight used by the NetSuite log extension.
var DefaultMarker = Marker{
	Tag:   "span",
	Class: "ns-search-highlight",
	Style: "background-color: #ffff99; font-weight: bold",
}

func (mk Marker) withDefaults() Marker {
	if mk.Tag == "" {
		mk.Tag = DefaultMarker.Tag
	}
	if mk.Class == "" {
		mk.Class = DefaultMarker.Class
	}
	return mk
}

// Selector returns a CSS selector matching every marker.
func (mk Marker) Selector() string {
	mk = mk.withDefaults()
	return mk.Tag + "." + mk.Class
}

// Options configures a Matcher.
type Options struct {
	Marker       Marker
	SnippetLimit int // runes; default DefaultSnippetLimit
}

// Hit is one wrapped occurrence.
type Hit struct {
	// Snippet is the full text of the text node the match was found in,
	// truncated to the snippet limit.
	Snippet string
	// Node is the marker element wrapping the match.
	Node *html.Node
}

// Matcher wraps occurrences of one search term. A Matcher is not safe for
// concurrent use on the same tree.
type Matcher struct {
	term   string
	re     *regexp.Regexp
	marker Marker
	limit  int
}

// New builds a Matcher for term. The term is literal text: characters with
// regexp meaning are escaped. A blank term yields an empty Matcher that
// never matches.
func New(term string, opts Options) *Matcher {
	m := &Matcher{
		term:   term,
		marker: opts.Marker.withDefaults(),
		limit:  opts.SnippetLimit,
	}
	if m.limit <= 0 {
		m.limit = DefaultSnippetLimit
	}
	if strings.TrimSpace(term) != "" {
		m.re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	}
	return m
}

// Empty reports whether the matcher can never match.
func (m *Matcher) Empty() bool { return m.re == nil }

// Term returns the search term as given.
func (m *Matcher) Term() string { return m.term }

// Marker returns the marker signature used by this matcher.
func (m *Matcher) Marker() Marker { return m.marker }

// SnippetLimit returns the snippet length in runes.
func (m *Matcher) SnippetLimit() int { return m.limit }

// Matches reports whether s contains the term.
func (m *Matcher) Matches(s string) bool {
	return m.re != nil && m.re.MatchString(s)
}

// Segment is a piece of a text node after splitting at match boundaries.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Split cuts text at match boundaries. It returns nil when text holds no
// match; otherwise the segments concatenate back to text.
func (m *Matcher) Split(text string) []Segment {
	if m.re == nil {
		return nil
	}
	locs := m.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	segs := make([]Segment, 0, 2*len(locs)+1)
	pos := 0
	for _, loc := range locs {
		if loc[0] > pos {
			segs = append(segs, Segment{Text: text[pos:loc[0]]})
		}
		segs = append(segs, Segment{Text: text[loc[0]:loc[1]], Match: true})
		pos = loc[1]
	}
	if pos < len(text) {
		segs = append(segs, Segment{Text: text[pos:]})
	}
	return segs
}

// Scan wraps matches inside the containers of root chosen by Select.
// Hits are returned in document order.
func (m *Matcher) Scan(root *html.Node, selectors []string) []Hit {
	if m.Empty() || root == nil || len(selectors) == 0 {
		return nil
	}

	var hits []Hit
	for _, el := range Select(root, selectors) {
		hits = append(hits, m.Apply(el)...)
	}
	return hits
}

// Apply wraps matches in the text of a single container. Containers that
// already hold a marker, or that are part of one, are left alone so that a
// repeated scan without an intervening Clear never nests markers.
func (m *Matcher) Apply(container *html.Node) []Hit {
	if m.Empty() || container == nil {
		return nil
	}
	if insideMarker(container, m.marker) || ContainsMarker(container, m.marker) {
		return nil
	}
	if !m.re.MatchString(TextContent(container)) {
		return nil
	}

	// Collect first: wrapping mutates the sibling chain being walked.
	var texts []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				texts = append(texts, c)
			case html.ElementNode:
				if !skipped(c) {
					walk(c)
				}
			}
		}
	}
	walk(container)

	var hits []Hit
	for _, t := range texts {
		hits = append(hits, m.wrap(t)...)
	}
	return hits
}

// wrap splits one text node at match boundaries.
func (m *Matcher) wrap(t *html.Node) []Hit {
	segs := m.Split(t.Data)
	if segs == nil || t.Parent == nil {
		return nil
	}

	parent := t.Parent
	snippet := Snippet(t.Data, m.limit)
	var hits []Hit
	for _, seg := range segs {
		if !seg.Match {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: seg.Text}, t)
			continue
		}
		mk := m.newMarker(seg.Text)
		parent.InsertBefore(mk, t)
		hits = append(hits, Hit{Snippet: snippet, Node: mk})
	}
	parent.RemoveChild(t)
	return hits
}

func (m *Matcher) newMarker(text string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     m.marker.Tag,
		DataAtom: atom.Lookup([]byte(m.marker.Tag)),
		Attr:     []html.Attribute{{Key: "class", Val: m.marker.Class}},
	}
	if m.marker.Style != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: m.marker.Style})
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

// Select returns the containers under root: the elements matching any
// selector that hold no other matching element, in document order.
// Generic selectors such as "table tr td" also match page layout cells
// that wrap the log table and the pager; only the innermost cells are
// containers. Invalid selectors match nothing.
func Select(root *html.Node, selectors []string) []*html.Node {
	if root == nil {
		return nil
	}
	doc := goquery.NewDocumentFromNode(root)
	picked := make(map[*html.Node]bool)
	for _, sel := range selectors {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		for _, n := range doc.Find(sel).Nodes {
			picked[n] = true
		}
	}
	if len(picked) == 0 {
		return nil
	}
	outer := make(map[*html.Node]bool)
	for n := range picked {
		for p := n.Parent; p != nil; p = p.Parent {
			if picked[p] {
				outer[p] = true
			}
		}
	}

	out := make([]*html.Node, 0, len(picked)-len(outer))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if picked[n] && !outer[n] {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// Snippet truncates text to limit runes, appending "..." when cut.
func Snippet(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	i := 0
	for n := 0; n < limit; n++ {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return text[:i] + "..."
}

// TextContent concatenates the text of n and all its descendants, like the
// DOM property of the same name.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			} else if c.Type == html.ElementNode {
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}

// skipped reports elements whose text is never page content.
func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Textarea, atom.Template:
		return true
	}
	return false
}
