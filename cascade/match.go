package cascade

import (
	"strings"

	"github.com/dpotapov/staticweb/css"
	"github.com/dpotapov/staticweb/dom"
)

// Matches reports whether sel matches node: node must be an Element, its
// rightmost compound must match node, and combinators are walked
// right-to-left against ancestors/siblings.
func Matches(sel *css.Selector, node *dom.Node) bool {
	if node.Kind != dom.Element || len(sel.Steps) == 0 {
		return false
	}
	return matchSteps(sel.Steps, len(sel.Steps)-1, node)
}

func matchSteps(steps []css.Step, idx int, node *dom.Node) bool {
	st := steps[idx]
	if !matchCompound(&st.Compound, node) {
		return false
	}
	if idx == 0 {
		return true
	}
	switch st.Combinator {
	case css.Descendant:
		for anc := node.Parent; anc != nil; anc = anc.Parent {
			if anc.Kind == dom.Element && matchSteps(steps, idx-1, anc) {
				return true
			}
		}
		return false
	case css.Child:
		p := node.Parent
		if p == nil || p.Kind != dom.Element {
			return false
		}
		return matchSteps(steps, idx-1, p)
	case css.AdjacentSibling:
		for s := node.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Kind == dom.Element {
				return matchSteps(steps, idx-1, s)
			}
		}
		return false
	case css.GeneralSibling:
		for s := node.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Kind == dom.Element && matchSteps(steps, idx-1, s) {
				return true
			}
		}
		return false
	}
	return false
}

func matchCompound(c *css.Compound, node *dom.Node) bool {
	if !c.HasUniversal && c.Tag != "" && c.Tag != node.Tag {
		return false
	}
	for _, id := range c.IDs {
		v, ok := node.Attribute("id")
		if !ok || v != id {
			return false
		}
	}
	for _, cl := range c.Classes {
		if !node.HasClass(cl) {
			return false
		}
	}
	for _, a := range c.Attrs {
		if !matchAttr(a, node) {
			return false
		}
	}
	for _, p := range c.Pseudos {
		if !matchPseudo(p, node) {
			return false
		}
	}
	return true
}

func matchAttr(a css.AttrSelector, node *dom.Node) bool {
	v, ok := node.Attribute(a.Name)
	switch a.Op {
	case css.AttrExists:
		return ok
	case css.AttrExact:
		return ok && v == a.Value
	case css.AttrClassContainsToken:
		if !ok {
			return false
		}
		for _, tok := range strings.Fields(v) {
			if tok == a.Value {
				return true
			}
		}
		return false
	case css.AttrPrefix:
		return ok && strings.HasPrefix(v, a.Value)
	case css.AttrSuffix:
		return ok && strings.HasSuffix(v, a.Value)
	case css.AttrContainsSubstring:
		return ok && strings.Contains(v, a.Value)
	default:
		return false
	}
}

func matchPseudo(p css.Pseudo, node *dom.Node) bool {
	switch p.Kind {
	case css.PseudoRoot:
		return node.Parent == nil || node.Parent.Kind == dom.Document
	case css.PseudoEmpty:
		return isEmpty(node)
	case css.PseudoFirstChild:
		siblings := elementSiblings(node)
		return len(siblings) > 0 && siblings[0] == node
	case css.PseudoLastChild:
		siblings := elementSiblings(node)
		return len(siblings) > 0 && siblings[len(siblings)-1] == node
	case css.PseudoOnlyChild:
		siblings := elementSiblings(node)
		return len(siblings) == 1 && siblings[0] == node
	case css.PseudoFirstOfType:
		siblings := elementSiblingsOfType(node)
		return len(siblings) > 0 && siblings[0] == node
	case css.PseudoLastOfType:
		siblings := elementSiblingsOfType(node)
		return len(siblings) > 0 && siblings[len(siblings)-1] == node
	case css.PseudoNthChild:
		return matchNth(p.Nth, indexAmong(elementSiblings(node), node))
	case css.PseudoNthLastChild:
		sibs := elementSiblings(node)
		return matchNth(p.Nth, len(sibs)-1-indexAmong(sibs, node))
	case css.PseudoNthOfType:
		return matchNth(p.Nth, indexAmong(elementSiblingsOfType(node), node))
	case css.PseudoNthLastOfType:
		sibs := elementSiblingsOfType(node)
		return matchNth(p.Nth, len(sibs)-1-indexAmong(sibs, node))
	case css.PseudoNot:
		if p.Not == nil {
			return false
		}
		return !matchCompound(p.Not, node)
	default:
		return false
	}
}

func elementSiblings(node *dom.Node) []*dom.Node {
	if node.Parent == nil {
		return []*dom.Node{node}
	}
	return node.Parent.ElementChildren()
}

func elementSiblingsOfType(node *dom.Node) []*dom.Node {
	all := elementSiblings(node)
	var out []*dom.Node
	for _, n := range all {
		if n.Tag == node.Tag {
			out = append(out, n)
		}
	}
	return out
}

func indexAmong(list []*dom.Node, node *dom.Node) int {
	for i, n := range list {
		if n == node {
			return i
		}
	}
	return -1
}

// matchNth reports whether the 0-based position satisfies An+B for some
// non-negative integer n (CSS counts siblings from 1, so we add 1 here).
func matchNth(arg css.NthArg, zeroBasedPos int) bool {
	if zeroBasedPos < 0 {
		return false
	}
	pos := zeroBasedPos + 1
	if arg.A == 0 {
		return pos == arg.B
	}
	diff := pos - arg.B
	if diff%arg.A != 0 {
		return false
	}
	return diff/arg.A >= 0
}

func isEmpty(node *dom.Node) bool {
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Kind == dom.Element {
			return false
		}
		if c.Kind == dom.Text && strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}
