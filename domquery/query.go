// Package domquery implements read-only DOM traversal helpers:
// tag/id/class/attribute lookups, inner text, and the canonical DOM
// serialization used as a test oracle.
//
// All traversals are pre-order and therefore stable across runs.
package domquery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dpotapov/staticweb/dom"
)

// walk visits every node in n's subtree (including n) in pre-order.
func walk(n *dom.Node, visit func(*dom.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// ByTag returns every Element in doc's subtree with the given lowercase tag
// name, in document order.
func ByTag(root *dom.Node, tag string) []*dom.Node {
	var out []*dom.Node
	walk(root, func(n *dom.Node) {
		if n.Kind == dom.Element && n.Tag == tag {
			out = append(out, n)
		}
	})
	return out
}

// ByID returns the first Element in root's subtree whose id attribute
// equals id exactly, or nil.
func ByID(root *dom.Node, id string) *dom.Node {
	var found *dom.Node
	walk(root, func(n *dom.Node) {
		if found != nil || n.Kind != dom.Element {
			return
		}
		if v, ok := n.Attribute("id"); ok && v == id {
			found = n
		}
	})
	return found
}

// ByClass returns every Element in root's subtree whose class attribute
// contains class as a whitespace-separated token.
func ByClass(root *dom.Node, class string) []*dom.Node {
	var out []*dom.Node
	walk(root, func(n *dom.Node) {
		if n.Kind == dom.Element && n.HasClass(class) {
			out = append(out, n)
		}
	})
	return out
}

// ByAttribute returns every Element in root's subtree whose named attribute
// equals value exactly.
func ByAttribute(root *dom.Node, key, value string) []*dom.Node {
	var out []*dom.Node
	walk(root, func(n *dom.Node) {
		if n.Kind != dom.Element {
			return
		}
		if v, ok := n.Attribute(key); ok && v == value {
			out = append(out, n)
		}
	})
	return out
}

// ByAttributeToken returns every Element in root's subtree whose named
// attribute, split on whitespace, contains token.
func ByAttributeToken(root *dom.Node, key, token string) []*dom.Node {
	var out []*dom.Node
	walk(root, func(n *dom.Node) {
		if n.Kind != dom.Element {
			return
		}
		v, ok := n.Attribute(key)
		if !ok {
			return
		}
		for _, f := range strings.Fields(v) {
			if f == token {
				out = append(out, n)
				return
			}
		}
	})
	return out
}

// ByTextContains returns every Element in root's subtree whose recursive
// InnerText contains substr.
func ByTextContains(root *dom.Node, substr string) []*dom.Node {
	var out []*dom.Node
	walk(root, func(n *dom.Node) {
		if n.Kind == dom.Element && strings.Contains(InnerText(n), substr) {
			out = append(out, n)
		}
	})
	return out
}

// InnerText returns the concatenation of all descendant Text nodes' content,
// in document order.
func InnerText(n *dom.Node) string {
	return n.InnerText()
}

// Serialize produces the canonical DOM serialization used as the oracle
// for "same input produces the same DOM":
//
//	#document[child]...                  for Document
//	<tag k1="v1" k2="v2">[child]...</tag> for elements, attrs key-sorted
//	TEXT("...")                           for text
func Serialize(n *dom.Node) string {
	var b strings.Builder
	serializeInto(&b, n)
	return b.String()
}

func serializeInto(b *strings.Builder, n *dom.Node) {
	switch n.Kind {
	case dom.Document:
		b.WriteString("#document")
	case dom.Text:
		fmt.Fprintf(b, "TEXT(%q)", n.Text)
		return
	case dom.Element:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		keys := make([]string, len(n.Attr))
		vals := make(map[string]string, len(n.Attr))
		for i, a := range n.Attr {
			keys[i] = a.Key
			vals[a.Key] = a.Val
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%q", k, vals[k])
		}
		b.WriteByte('>')
	}
	b.WriteByte('[')
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		serializeInto(b, c)
	}
	b.WriteByte(']')
	if n.Kind == dom.Element {
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
}
