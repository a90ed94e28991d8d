// Package harvest scrapes the PartSelect catalog: part listings, repair
// symptom guides, and blog articles. Pages are rendered in headless Chromium
// and picked apart with DOM walks keyed on the site's stable class names.
package harvest

import (
	"strings"

	"golang.org/x/net/html"
)

func parseHTML(raw string) (*html.Node, error) {
	return html.Parse(strings.NewReader(raw))
}

type nodePredicate func(*html.Node) bool

// findAll walks the tree in document order and collects matching elements.
func findAll(root *html.Node, pred nodePredicate) []*html.Node {
	var matches []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			matches = append(matches, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return matches
}

func findFirst(root *html.Node, pred nodePredicate) *html.Node {
	matches := findAll(root, pred)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func byTag(tag string) nodePredicate {
	return func(n *html.Node) bool { return n.Data == tag }
}

func byClass(classes ...string) nodePredicate {
	return func(n *html.Node) bool {
		for _, class := range classes {
			if !hasClass(n, class) {
				return false
			}
		}
		return true
	}
}

func byTagAndAttr(tag, key, value string) nodePredicate {
	return func(n *html.Node) bool { return n.Data == tag && attrVal(n, key) == value }
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrVal(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// nodeText collects all text beneath n with whitespace collapsed.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// followingSibling returns the next element in document order after ref that
// matches pred, searching the whole tree.
func followingSibling(root, ref *html.Node, pred nodePredicate) *html.Node {
	var match *html.Node
	seen := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match != nil {
			return
		}
		if n == ref {
			seen = true
		} else if seen && n.Type == html.ElementNode && pred(n) {
			match = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return match
}
