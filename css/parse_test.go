package css

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSS_BasicRule(t *testing.T) {
	sheet := ParseCSS(`p.intro, #main { color: red; background-color: blue }`)
	require.Len(t, sheet.Rules, 2)
	assert.Equal(t, "p.intro", sheet.Rules[0].SelectorText)
	assert.Equal(t, "#main", sheet.Rules[1].SelectorText)
	assert.Equal(t, []Declaration{
		{Property: "color", Value: "red"},
		{Property: "background-color", Value: "blue"},
	}, sheet.Rules[0].Declarations)
}

func TestParseCSS_DiscardsUnparsableSelectorWithWarning(t *testing.T) {
	sheet, warnings := ParseCSSWithDiagnostics(`[href] { color: red } p { color: blue }`)
	require.Len(t, warnings, 1)
	assert.Equal(t, "[href]", warnings[0].Selector)
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, "p", sheet.Rules[0].SelectorText)
}

func TestParseCSS_CommaInsideParensDoesNotSplitSelector(t *testing.T) {
	// The comma inside :not(...) stays part of one selector; :not accepts a
	// single compound, so that one selector is rejected as a whole.
	sheet, warnings := ParseCSSWithDiagnostics(`a:not(.x, .y) { color: red }`)
	require.Len(t, warnings, 1)
	assert.Equal(t, "a:not(.x, .y)", warnings[0].Selector)
	assert.Empty(t, sheet.Rules)
}

func TestStripImportsPrePass_RemovesTopLevelImportsOnly(t *testing.T) {
	text := `@import "reset.css"; @import url(theme.css) screen; body { content: "@import fake"; }`
	cleaned, imports := StripImportsPrePass(text)
	require.Len(t, imports, 2)
	assert.Equal(t, "reset.css", imports[0].URL)
	assert.Equal(t, "theme.css", imports[1].URL)
	assert.Equal(t, "screen", imports[1].Media)
	assert.Contains(t, cleaned, `"@import fake"`)
	assert.NotContains(t, cleaned, `@import "reset.css"`)
}

func TestStripImportsPrePass_IgnoresImportInsideComment(t *testing.T) {
	text := `/* @import "ignored.css"; */ body { color: red }`
	_, imports := StripImportsPrePass(text)
	assert.Empty(t, imports)
}

func TestParseSelector_CombinatorsAndAttrs(t *testing.T) {
	sheet := ParseCSS(`div > p.lead[data-x="1"] { color: red }`)
	require.Len(t, sheet.Rules, 1)
	steps := sheet.Rules[0].Selector.Steps
	require.Len(t, steps, 2)
	assert.Equal(t, "div", steps[0].Compound.Tag)
	assert.Equal(t, Child, steps[1].Combinator)
	assert.Equal(t, "p", steps[1].Compound.Tag)
	assert.Equal(t, []string{"lead"}, steps[1].Compound.Classes)
	require.Len(t, steps[1].Compound.Attrs, 1)
	assert.Equal(t, AttrExact, steps[1].Compound.Attrs[0].Op)
}

func TestParseSelector_BareAttrMustBeIDOrClass(t *testing.T) {
	_, err := parseSelector(`[disabled]`)
	assert.Error(t, err)
	_, err = parseSelector(`[id]`)
	assert.NoError(t, err)
}

func TestParseNth_OddEvenAndFormula(t *testing.T) {
	n, err := parseNth("odd")
	require.NoError(t, err)
	assert.Equal(t, NthArg{A: 2, B: 1}, n)

	n, err = parseNth("2n+1")
	require.NoError(t, err)
	assert.Equal(t, NthArg{A: 2, B: 1}, n)

	n, err = parseNth("3")
	require.NoError(t, err)
	assert.Equal(t, NthArg{A: 0, B: 3}, n)
}

func TestParseCSS_SelectorListSplit(t *testing.T) {
	sheet := ParseCSS(`h1,h2 { color: red }`)
	require.Len(t, sheet.Rules, 2)
	assert.Equal(t, "h1", sheet.Rules[0].SelectorText)
	assert.Equal(t, "h2", sheet.Rules[1].SelectorText)
	assert.Equal(t, 1, sheet.Rules[0].Specificity)
	assert.Equal(t, 1, sheet.Rules[1].Specificity)
	if diff := cmp.Diff(sheet.Rules[0].Declarations, sheet.Rules[1].Declarations); diff != "" {
		t.Errorf("rules split from one selector list should share declarations (-first +second):\n%s", diff)
	}
	assert.Equal(t, []Declaration{{Property: "color", Value: "red"}}, sheet.Rules[0].Declarations)
}

func TestSpecificity_Weights(t *testing.T) {
	for _, tc := range []struct {
		selector string
		want     int
	}{
		{"#id", 100},
		{".c", 10},
		{"t", 1},
		{"div#main.card[data-x=1]:first-child", 1 + 100 + 10 + 10 + 10},
		{"ul > li", 2},
	} {
		sel, err := parseSelector(tc.selector)
		require.NoError(t, err, tc.selector)
		assert.Equal(t, tc.want, sel.Specificity(), tc.selector)
	}
}

func TestParseCSS_EmptyInputGivesEmptyStylesheet(t *testing.T) {
	sheet := ParseCSS("")
	assert.Empty(t, sheet.Rules)
	assert.Empty(t, sheet.Imports)
}

func TestParseCSS_UnclosedBraceStopsFurtherRules(t *testing.T) {
	sheet := ParseCSS(`p { color: red } div { color: blue`)
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, "p", sheet.Rules[0].SelectorText)
}

func TestExpandImports_ReportsMalformedStatement(t *testing.T) {
	var snippets []string
	out := ExpandImports(`@import ; p { color: red }`, func(ImportRef) string { return "" }, func(s string) {
		snippets = append(snippets, s)
	})
	require.Len(t, snippets, 1)
	assert.Contains(t, out, "p { color: red }")
}
