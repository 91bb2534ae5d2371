// Package dom implements the node tree produced by the HTML parser: a
// Document root with Element and Text nodes linked by parent/child and
// sibling pointers.
//
// Modeled on golang.org/x/net/html's Node: a doubly linked
// FirstChild/LastChild/PrevSibling/NextSibling structure with an explicit
// Parent back-reference, rather than an arena of integer handles. The
// back-reference is non-owning; the owning references are the child links.
package dom

import "strings"

// Kind identifies which of the three node variants a Node holds.
type Kind int

const (
	Document Kind = iota
	Element
	Text
)

func (k Kind) String() string {
	switch k {
	case Document:
		return "document"
	case Element:
		return "element"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Attribute is a single lowercase-keyed attribute with its raw string value.
type Attribute struct {
	Key string
	Val string
}

// Node is a single entry in the DOM tree. Only the fields relevant to Kind
// are meaningful: Document nodes carry no Tag/Attr/Text; Text nodes carry
// only Text; Element nodes carry Tag, Attr and children.
type Node struct {
	Kind Kind

	// Tag is the lowercase tag name. Only set on Element nodes.
	Tag string

	// Attr holds this element's attributes in first-seen order, with
	// duplicate keys resolved so the last occurrence wins (see dom parser).
	Attr []Attribute

	// Text is the text content. Only set on Text nodes.
	Text string

	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// NewDocument returns a new, childless Document root.
func NewDocument() *Node {
	return &Node{Kind: Document}
}

// NewElement returns a new, childless Element node with the given lowercase
// tag name.
func NewElement(tag string) *Node {
	return &Node{Kind: Element, Tag: tag}
}

// NewText returns a new Text node.
func NewText(text string) *Node {
	return &Node{Kind: Text, Text: text}
}

// AppendChild adds c as the last child of n. It panics if c already has a
// parent or siblings, matching golang.org/x/net/html's contract.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil || c.PrevSibling != nil || c.NextSibling != nil {
		panic("dom: AppendChild called for an attached child Node")
	}
	last := n.LastChild
	if last != nil {
		last.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
	c.Parent = n
	c.PrevSibling = last
}

// RemoveChild detaches c from n. It panics if c's parent is not n.
func (n *Node) RemoveChild(c *Node) {
	if c.Parent != n {
		panic("dom: RemoveChild called for a non-child Node")
	}
	if n.FirstChild == c {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	}
	if n.LastChild == c {
		n.LastChild = c.PrevSibling
	}
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
}

// Children returns the element's direct children as a slice, in document
// order. The slice is a fresh copy; mutating it does not affect the tree.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ElementChildren returns only the Element children, in document order.
func (n *Node) ElementChildren() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Kind == Element {
			out = append(out, c)
		}
	}
	return out
}

// Attribute returns the value of the named attribute and whether it was
// present. The key must already be lowercase.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttributeOr returns the named attribute's value, or fallback if absent.
func (n *Node) AttributeOr(key, fallback string) string {
	if v, ok := n.Attribute(key); ok {
		return v
	}
	return fallback
}

// SetAttribute sets (or replaces) the named attribute. key must already be
// lowercase; this matches the parser's invariant that attribute names are
// always stored lowercased.
func (n *Node) SetAttribute(key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// RemoveAttribute deletes the named attribute, if present.
func (n *Node) RemoveAttribute(key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the element's class attribute contains the given
// whitespace-separated token.
func (n *Node) HasClass(class string) bool {
	v, ok := n.Attribute("class")
	if !ok {
		return false
	}
	for _, tok := range strings.Fields(v) {
		if tok == class {
			return true
		}
	}
	return false
}

// ReplaceChildrenWithText removes all existing children and appends a
// single Text node with the given content. Used by the script interpreter's
// .innerText/.textContent assignment.
func (n *Node) ReplaceChildrenWithText(text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(NewText(text))
}

// IsWhitespace reports whether a Text node's content is entirely ASCII
// whitespace (used by the layout engine to drop whitespace-only text
// children).
func (n *Node) IsWhitespace() bool {
	return n.Kind == Text && strings.TrimSpace(n.Text) == ""
}

// InnerText returns the concatenation of all descendant Text nodes' content,
// in document order.
func (n *Node) InnerText() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Kind == Text {
			b.WriteString(cur.Text)
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Ancestors returns n's ancestors starting with its immediate parent and
// ending at the Document root, in that order.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// PrecedingSiblings returns n's element siblings that occur earlier among
// the same parent, nearest first.
func (n *Node) PrecedingSiblings() []*Node {
	var out []*Node
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Kind == Element {
			out = append(out, s)
		}
	}
	return out
}
