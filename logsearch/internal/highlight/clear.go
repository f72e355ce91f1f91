package highlight

import (
	"strings"

	"golang.org/x/net/html"
)

// IsMarker reports whether n is an element carrying the marker class.
func IsMarker(n *html.Node, mk Marker) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	mk = mk.withDefaults()
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == mk.Class {
					return true
				}
			}
		}
	}
	return false
}

// ContainsMarker reports whether any descendant of n is a marker.
func ContainsMarker(n *html.Node, mk Marker) bool {
	if n == nil {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsMarker(c, mk) || ContainsMarker(c, mk) {
			return true
		}
	}
	return false
}

func insideMarker(n *html.Node, mk Marker) bool {
	for p := n; p != nil; p = p.Parent {
		if IsMarker(p, mk) {
			return true
		}
	}
	return false
}

// Clear unwraps every marker under root, replacing each with its text and
// merging the text nodes left adjacent. It returns the number of markers
// removed. After Clear, rendering root yields the same HTML as before the
// scan that created the markers.
func Clear(root *html.Node, mk Marker) int {
	if root == nil {
		return 0
	}

	var markers []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if IsMarker(c, mk) {
				markers = append(markers, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)

	parents := make(map[*html.Node]bool)
	var order []*html.Node
	for _, m := range markers {
		parent := m.Parent
		if parent == nil {
			continue
		}
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: TextContent(m)}, m)
		parent.RemoveChild(m)
		if !parents[parent] {
			parents[parent] = true
			order = append(order, parent)
		}
	}
	for _, p := range order {
		normalize(p)
	}
	return len(markers)
}

// normalize merges adjacent text children of n and drops empty ones.
func normalize(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type != html.TextNode {
			c = next
			continue
		}
		for next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			after := next.NextSibling
			n.RemoveChild(next)
			next = after
		}
		if c.Data == "" {
			n.RemoveChild(c)
		}
		c = next
	}
}
