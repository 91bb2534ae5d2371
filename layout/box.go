// Package layout implements the layout-tree build and block/text layout
// algorithm: a recursive DOM-to-box conversion followed by a single-pass
// block layout and greedy text wrapping, with Serialize as the byte-equal
// test oracle. The conversion is side-effect-free, threading computed
// style down rather than mutating the DOM.
package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dpotapov/staticweb/cascade"
	"github.com/dpotapov/staticweb/css"
	"github.com/dpotapov/staticweb/dom"
)

// Box is one node of the layout tree.
type Box struct {
	X, Y, Width, Height int
	Tag                 string
	Text                string
	Style               map[string]string
	Children            []*Box
}

// edges is a four-sided length set in CSS order: top, right, bottom, left.
type edges struct {
	Top, Right, Bottom, Left int
}

// Build converts root's document subtree into a layout tree rooted at its
// first Element child (conventionally <html>), computing style for every
// element against sheet and dropping display:none children and
// empty-after-trim text children. Text leaves
// carry their nearest enclosing element's computed style, since text
// layout (font-size, line-height, text-align, text-transform) reads from
// it and text nodes have no style of their own. Returns nil if root has no
// Element child.
func Build(root *dom.Node, sheet *css.Stylesheet) *Box {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Kind == dom.Element {
			return build(c, sheet, map[string]string{})
		}
	}
	return nil
}

func build(n *dom.Node, sheet *css.Stylesheet, inherited map[string]string) *Box {
	switch n.Kind {
	case dom.Text:
		return &Box{Text: n.Text, Style: inherited}
	case dom.Element:
		style := cascade.ComputeStyleForNode(n, sheet)
		b := &Box{Tag: n.Tag, Style: style}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := buildFiltered(c, sheet, style); child != nil {
				b.Children = append(b.Children, child)
			}
		}
		return b
	}
	return nil
}

// buildFiltered applies the child-drop rules: display:none elements and
// whitespace-only text nodes are omitted entirely.
func buildFiltered(n *dom.Node, sheet *css.Stylesheet, inherited map[string]string) *Box {
	if n.Kind == dom.Text {
		if strings.TrimSpace(n.Text) == "" {
			return nil
		}
		return &Box{Text: n.Text, Style: inherited}
	}
	if n.Kind == dom.Element {
		style := cascade.ComputeStyleForNode(n, sheet)
		if strings.EqualFold(strings.TrimSpace(style["display"]), "none") {
			return nil
		}
		b := &Box{Tag: n.Tag, Style: style}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := buildFiltered(c, sheet, style); child != nil {
				b.Children = append(b.Children, child)
			}
		}
		return b
	}
	return nil
}

// parseLength parses a signed integer or decimal (rounded to nearest int),
// optionally suffixed "px". Unknown units or malformed values return
// (fallback, false).
func parseLength(raw string, fallback int) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback, false
	}
	if strings.HasSuffix(s, "px") {
		s = strings.TrimSuffix(s, "px")
	} else if hasUnitSuffix(s) {
		return fallback, false
	}
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback, false
	}
	return int(math.Round(f)), true
}

func hasUnitSuffix(s string) bool {
	for _, unit := range []string{"em", "rem", "%", "vh", "vw", "pt", "cm", "mm", "in"} {
		if strings.HasSuffix(s, unit) {
			return true
		}
	}
	return false
}

// parseEdges parses a CSS shorthand (1-4 values, top/right/bottom/left)
// overridden by individually-named longhands.
func parseEdges(style map[string]string, shorthand string, top, right, bottom, left string) edges {
	e := edges{}
	if v, ok := style[shorthand]; ok {
		parts := strings.Fields(v)
		vals := make([]int, len(parts))
		valid := true
		for i, p := range parts {
			n, ok := parseLength(p, 0)
			if !ok {
				valid = false
				break
			}
			vals[i] = n
		}
		if valid {
			switch len(vals) {
			case 1:
				e = edges{vals[0], vals[0], vals[0], vals[0]}
			case 2:
				e = edges{vals[0], vals[1], vals[0], vals[1]}
			case 3:
				e = edges{vals[0], vals[1], vals[2], vals[1]}
			case 4:
				e = edges{vals[0], vals[1], vals[2], vals[3]}
			}
		}
	}
	if v, ok := style[top]; ok {
		if n, ok := parseLength(v, e.Top); ok {
			e.Top = n
		}
	}
	if v, ok := style[right]; ok {
		if n, ok := parseLength(v, e.Right); ok {
			e.Right = n
		}
	}
	if v, ok := style[bottom]; ok {
		if n, ok := parseLength(v, e.Bottom); ok {
			e.Bottom = n
		}
	}
	if v, ok := style[left]; ok {
		if n, ok := parseLength(v, e.Left); ok {
			e.Left = n
		}
	}
	return e
}

func padding(style map[string]string) edges {
	return parseEdges(style, "padding", "padding-top", "padding-right", "padding-bottom", "padding-left")
}

func margin(style map[string]string) edges {
	return parseEdges(style, "margin", "margin-top", "margin-right", "margin-bottom", "margin-left")
}

// Serialize produces the byte-equal test oracle for layout trees:
//
//	{tag:<tag>|text:"<text>" x:<x> y:<y> w:<w> h:<h><child>…}
func Serialize(b *Box) string {
	var sb strings.Builder
	serializeInto(&sb, b)
	return sb.String()
}

func serializeInto(sb *strings.Builder, b *Box) {
	sb.WriteByte('{')
	if b.Tag != "" {
		fmt.Fprintf(sb, "tag:%s", b.Tag)
	} else {
		fmt.Fprintf(sb, "text:%q", b.Text)
	}
	fmt.Fprintf(sb, " x:%d y:%d w:%d h:%d", b.X, b.Y, b.Width, b.Height)
	for _, c := range b.Children {
		serializeInto(sb, c)
	}
	sb.WriteByte('}')
}
