package cascade

import (
	"github.com/dpotapov/staticweb/css"
	"github.com/dpotapov/staticweb/dom"
)

// parseSelector forwards to css.ParseSelector for use by this package's tests.
func parseSelector(s string) (*css.Selector, error) {
	return css.ParseSelector(s)
}

type winner struct {
	specificity int
	sourceOrder int
	value       string
}

// ComputeStyleForNode produces node's computed property map by iterating
// sheet's rules in source order with (specificity, source-order)
// tie-breaking, then overlaying the inline `style` attribute at an elevated
// specificity. Non-element nodes get the empty map.
func ComputeStyleForNode(node *dom.Node, sheet *css.Stylesheet) map[string]string {
	result := make(map[string]string)
	if node.Kind != dom.Element {
		return result
	}

	winners := make(map[string]winner)
	sourceOrder := 0
	for _, rule := range sheet.Rules {
		matched := rule.Selector != nil && Matches(rule.Selector, node)
		for _, decl := range rule.Declarations {
			if decl.Property == "" {
				sourceOrder++
				continue
			}
			if matched {
				cur, ok := winners[decl.Property]
				if !ok || rule.Specificity > cur.specificity ||
					(rule.Specificity == cur.specificity && sourceOrder >= cur.sourceOrder) {
					winners[decl.Property] = winner{
						specificity: rule.Specificity,
						sourceOrder: sourceOrder,
						value:       decl.Value,
					}
				}
			}
			sourceOrder++
		}
	}

	if styleAttr, ok := node.Attribute("style"); ok {
		inline := ParseInlineStyle(styleAttr)
		for _, k := range inline.Keys() {
			v, _ := inline.Get(k)
			sourceOrder++
			winners[k] = winner{
				specificity: css.InlineStyleSpecificity,
				sourceOrder: sourceOrder,
				value:       v,
			}
		}
	}

	for prop, w := range winners {
		result[prop] = w.value
	}
	return result
}
