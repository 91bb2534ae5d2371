// Package css implements the CSS parser and selector AST:
// rule/declaration extraction, @import pre-pass stripping, selector parsing
// into compounds + combinators, and specificity computation.
package css

import "fmt"

// AttrOp is the operator an attribute selector uses.
type AttrOp int

const (
	AttrExists AttrOp = iota
	AttrExact
	AttrClassContainsToken
	AttrPrefix
	AttrSuffix
	AttrContainsSubstring
)

// AttrSelector is a single `[attr...]` clause within a compound selector.
type AttrSelector struct {
	Name  string
	Op    AttrOp
	Value string
}

// NthArg describes the argument to an :nth-* pseudo-class: either a keyword
// (odd/even) or an (a, b) linear formula an+b, expressed here as A, B with
// A == 0 meaning a plain integer N (B holds it).
type NthArg struct {
	A, B int
}

// PseudoKind enumerates the supported pseudo-classes.
type PseudoKind int

const (
	PseudoFirstChild PseudoKind = iota
	PseudoLastChild
	PseudoFirstOfType
	PseudoLastOfType
	PseudoOnlyChild
	PseudoRoot
	PseudoEmpty
	PseudoNthChild
	PseudoNthOfType
	PseudoNthLastChild
	PseudoNthLastOfType
	PseudoNot
)

// Pseudo is a single `:pseudo` or `:pseudo(arg)` clause.
type Pseudo struct {
	Kind PseudoKind
	Nth  NthArg    // valid when Kind is one of the Nth* kinds
	Not  *Compound // valid when Kind == PseudoNot
}

// Compound is one `{tag|*}#id.class[attr]:pseudo...` unit.
type Compound struct {
	HasUniversal bool
	Tag          string
	IDs          []string
	Classes      []string
	Attrs        []AttrSelector
	Pseudos      []Pseudo
}

// Combinator joins two compounds within a selector.
type Combinator int

const (
	Descendant Combinator = iota
	Child
	AdjacentSibling
	GeneralSibling
)

// Step pairs a compound with the combinator that precedes it. The first
// step in a Selector always has Combinator == Descendant and that value is
// ignored (there is nothing to its left).
type Step struct {
	Combinator Combinator
	Compound   Compound
}

// Selector is a parsed sequence of compounds joined by combinators, stored
// left-to-right in source order (so Selector.Steps[len-1] is the rightmost,
// "key" compound matching rules anchor on).
type Selector struct {
	Raw   string
	Steps []Step
}

// Specificity computes the integer specificity of a selector:
// ids*100 + (classes+attrs)*10 + pseudos*10 + (tag!="" ? 1 : 0), summed
// over every compound.
func (s *Selector) Specificity() int {
	total := 0
	for _, st := range s.Steps {
		c := st.Compound
		total += len(c.IDs) * 100
		total += (len(c.Classes) + len(c.Attrs)) * 10
		total += len(c.Pseudos) * 10
		if c.Tag != "" {
			total++
		}
	}
	return total
}

// InlineStyleSpecificity is the fixed specificity inline `style`
// attributes carry in the cascade.
const InlineStyleSpecificity = 1000

// Declaration is a single `property: value;` pair.
type Declaration struct {
	Property string
	Value    string
}

// Rule is one parsed `selector-list { declarations }` block, already split
// per individual selector: each selector in a comma-separated list becomes
// its own Rule sharing the declaration list and source order.
type Rule struct {
	SelectorText string
	Selector     *Selector
	Specificity  int
	Declarations []Declaration
}

// Stylesheet is an ordered sequence of rules.
type Stylesheet struct {
	Rules []Rule
	// Imports are the @import URLs stripped from the source before rule
	// parsing; resolving/expanding them is the resource orchestrator's
	// job, not this package's.
	Imports []ImportRef
}

// ImportRef is one recognized top-level @import statement.
type ImportRef struct {
	URL   string
	Media string
}

// Warning is a recoverable selector/declaration parse problem: the rule is
// dropped, never the whole stylesheet.
type Warning struct {
	Message  string
	Selector string
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s (selector: %q)", w.Message, w.Selector)
}
