// Package srcsnippet renders a small indented XML dump of a DOM subtree
// for use inside a diagnostic message (e.g. the <script> element whose
// statement failed), built on beevik/etree.
package srcsnippet

import (
	"github.com/beevik/etree"

	"github.com/dpotapov/staticweb/dom"
)

// Render produces an indented XML-ish snippet of node's subtree (attributes
// and direct text only, depth-limited) for inclusion in a diagnostic
// message. It never fails: any etree error degrades to an empty string.
func Render(node *dom.Node, maxDepth int) string {
	doc := etree.NewDocument()
	root := toEtree(doc, node, maxDepth)
	if root == nil {
		return ""
	}
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func toEtree(parent etreeParent, node *dom.Node, depthRemaining int) *etree.Element {
	if node.Kind != dom.Element {
		return nil
	}
	el := parent.CreateElement(node.Tag)
	for _, a := range node.Attr {
		el.CreateAttr(a.Key, a.Val)
	}
	if depthRemaining <= 0 {
		return el
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		switch c.Kind {
		case dom.Text:
			if c.IsWhitespace() {
				continue
			}
			el.CreateText(c.Text)
		case dom.Element:
			toEtree(el, c, depthRemaining-1)
		}
	}
	return el
}

// etreeParent is satisfied by both *etree.Document and *etree.Element,
// letting toEtree attach the root element to either.
type etreeParent interface {
	CreateElement(tag string) *etree.Element
}
