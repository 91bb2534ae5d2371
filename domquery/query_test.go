package domquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/staticweb/dom"
)

func sampleDoc() *dom.Node {
	return dom.ParseHTML(`<html><body>
		<div id="main" class="card wide"><p>Hello</p></div>
		<div class="card"><span data-role="x">World</span></div>
	</body></html>`)
}

func TestByTag(t *testing.T) {
	doc := sampleDoc()
	divs := ByTag(doc, "div")
	assert.Len(t, divs, 2)
}

func TestByID(t *testing.T) {
	doc := sampleDoc()
	n := ByID(doc, "main")
	require.NotNil(t, n)
	assert.Equal(t, "div", n.Tag)
	assert.Nil(t, ByID(doc, "missing"))
}

func TestByClass(t *testing.T) {
	doc := sampleDoc()
	cards := ByClass(doc, "card")
	assert.Len(t, cards, 2)
	wide := ByClass(doc, "wide")
	assert.Len(t, wide, 1)
}

func TestByAttributeToken(t *testing.T) {
	doc := sampleDoc()
	found := ByAttributeToken(doc, "data-role", "x")
	require.Len(t, found, 1)
	assert.Equal(t, "span", found[0].Tag)
}

func TestByTextContains(t *testing.T) {
	doc := sampleDoc()
	found := ByTextContains(doc, "World")
	require.NotEmpty(t, found)
}

func TestSerialize_KeysSortedAndDeterministic(t *testing.T) {
	doc := dom.ParseHTML(`<div b="2" a="1">hi</div>`)
	got := Serialize(doc.FirstChild)
	assert.Equal(t, `<div a="1" b="2">[TEXT("hi")]</div>`, got)
}

func TestSerialize_StableAcrossRepeatedParses(t *testing.T) {
	const input = `<div><p>Hello<span>World</div>`
	first := Serialize(dom.ParseHTML(input))
	second := Serialize(dom.ParseHTML(input))
	assert.Equal(t, first, second)
	assert.Contains(t, first, "<span>")
}

func TestSerialize_AttributesKeySorted(t *testing.T) {
	doc := dom.ParseHTML(`<p id="x" class="a">t</p>`)
	got := Serialize(doc)
	assert.Equal(t, `#document[<p class="a" id="x">[TEXT("t")]</p>]`, got)
}
