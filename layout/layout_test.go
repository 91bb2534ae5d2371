package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/staticweb/css"
	"github.com/dpotapov/staticweb/dom"
)

func TestBuild_DropsDisplayNoneAndWhitespaceText(t *testing.T) {
	doc := dom.ParseHTML(`<html><body>
		<div style="display:none">hidden</div>
		<p>kept</p>
	</body></html>`)
	sheet := css.ParseCSS(``)
	tree := Build(doc, sheet)
	require.NotNil(t, tree)
	assert.Equal(t, "html", tree.Tag)
	body := tree.Children[0]
	assert.Equal(t, "body", body.Tag)
	require.Len(t, body.Children, 1)
	assert.Equal(t, "p", body.Children[0].Tag)
}

func TestParseLength_PxAndUnitless(t *testing.T) {
	n, ok := parseLength("12px", 0)
	require.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = parseLength("7", 0)
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = parseLength("2em", 0)
	assert.False(t, ok)
}

func TestParseEdges_ShorthandCSSOrder(t *testing.T) {
	style := map[string]string{"padding": "1px 2px 3px 4px"}
	e := padding(style)
	assert.Equal(t, edges{Top: 1, Right: 2, Bottom: 3, Left: 4}, e)

	style2 := map[string]string{"padding": "5px"}
	assert.Equal(t, edges{5, 5, 5, 5}, padding(style2))

	style3 := map[string]string{"padding": "5px 10px"}
	assert.Equal(t, edges{5, 10, 5, 10}, padding(style3))
}

func TestParseEdges_LonghandOverridesShorthand(t *testing.T) {
	style := map[string]string{"padding": "5px", "padding-left": "20px"}
	assert.Equal(t, edges{5, 5, 5, 20}, padding(style))
}

func TestLayout_BlockStacksChildrenVertically(t *testing.T) {
	doc := dom.ParseHTML(`<html><body><div style="height:10px">a</div><div style="height:20px">b</div></body></html>`)
	sheet := css.ParseCSS(``)
	tree := Build(doc, sheet)
	Layout(tree, 800)

	body := tree.Children[0]
	require.Len(t, body.Children, 2)
	first, second := body.Children[0], body.Children[1]
	assert.Equal(t, 10, first.Height)
	assert.Equal(t, 20, second.Height)
	assert.Equal(t, first.Y+first.Height, second.Y)
}

func TestLayout_RootForcedToViewport(t *testing.T) {
	doc := dom.ParseHTML(`<html><body>x</body></html>`)
	sheet := css.ParseCSS(``)
	tree := Build(doc, sheet)
	Layout(tree, 1024)
	assert.Equal(t, 0, tree.X)
	assert.Equal(t, 0, tree.Y)
	assert.Equal(t, 1024, tree.Width)
}

func TestWrapParagraph_GreedyWrapAndHardBreak(t *testing.T) {
	lines := wrapParagraph("the quick brown fox", 9)
	assert.Equal(t, []string{"the quick", "brown fox"}, lines)

	lines = wrapParagraph("supercalifragilistic", 5)
	assert.Equal(t, []string{"super", "calif", "ragil", "istic"}, lines)
}

func TestWrapParagraph_HardBreakExactlyAtBoundaryLeavesNoEmptyLine(t *testing.T) {
	lines := wrapParagraph("abcde", 5)
	assert.Equal(t, []string{"abcde"}, lines)
}

func TestSplitParagraphs_NormalizesLineEndings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitParagraphs("a\r\nb\nc"))
}

func TestApplyTextTransform(t *testing.T) {
	assert.Equal(t, "HELLO", applyTextTransform("Hello", "uppercase"))
	assert.Equal(t, "hello", applyTextTransform("Hello", "lowercase"))
	assert.Equal(t, "Hello World", capitalize("hello world"))
}

func TestSerialize_Format(t *testing.T) {
	b := &Box{Tag: "div", X: 1, Y: 2, Width: 3, Height: 4, Children: []*Box{
		{Text: "hi", X: 1, Y: 2, Width: 2, Height: 1},
	}}
	got := Serialize(b)
	assert.Equal(t, `{tag:div x:1 y:2 w:3 h:4{text:"hi" x:1 y:2 w:2 h:1}}`, got)
}

func TestLayout_ZeroViewportIsDeterministic(t *testing.T) {
	doc := dom.ParseHTML(`<html><body><p>word wrapping at zero</p></body></html>`)
	sheet := css.ParseCSS(``)

	render := func() string {
		tree := Build(doc, sheet)
		Layout(tree, 0)
		return Serialize(tree)
	}
	first := render()
	assert.Equal(t, first, render())
	assert.Contains(t, first, `w:0`)
}

func TestLayoutText_CenterAlignment(t *testing.T) {
	doc := dom.ParseHTML(`<html><body><p style="text-align:center; font-size:16px">hi</p></body></html>`)
	sheet := css.ParseCSS(``)
	tree := Build(doc, sheet)
	Layout(tree, 100)

	p := tree.Children[0].Children[0]
	require.Len(t, p.Children, 1)
	text := p.Children[0]
	require.Len(t, text.Children, 1)
	line := text.Children[0]
	// char_width = 8, "hi" is 16px wide; centered in 100px leaves offset 42.
	assert.Equal(t, 16, line.Width)
	assert.Equal(t, 42, line.X)
}

func TestLayoutText_TransformUppercaseAppliesBeforeWrap(t *testing.T) {
	doc := dom.ParseHTML(`<html><body><p style="text-transform:uppercase">abc</p></body></html>`)
	sheet := css.ParseCSS(``)
	tree := Build(doc, sheet)
	Layout(tree, 200)
	line := tree.Children[0].Children[0].Children[0].Children[0]
	assert.Equal(t, "ABC", line.Text)
	assert.Equal(t, "#line", line.Tag)
}

func TestLayout_MinMaxHeightClamps(t *testing.T) {
	doc := dom.ParseHTML(`<html><body><div style="height:10px; min-height:20px"></div><div style="height:50px; max-height:30px"></div></body></html>`)
	sheet := css.ParseCSS(``)
	tree := Build(doc, sheet)
	Layout(tree, 100)
	body := tree.Children[0]
	assert.Equal(t, 20, body.Children[0].Height)
	assert.Equal(t, 30, body.Children[1].Height)
}
