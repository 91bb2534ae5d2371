package paint

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/staticweb/canvas"
	"github.com/dpotapov/staticweb/css"
	"github.com/dpotapov/staticweb/dom"
	"github.com/dpotapov/staticweb/domquery"
	"github.com/dpotapov/staticweb/layout"
	"github.com/dpotapov/staticweb/script"
)

// Script mutation followed by layout and paint: the mutated inline style
// must show up in the painted pixels.
func TestScriptMutationThenPaint(t *testing.T) {
	doc := dom.ParseHTML(`<html><body><h1 id="t">Hi</h1></body></html>`)
	errs := script.Run(doc, `document.getElementById("t").style.backgroundColor = "red";`, &bytes.Buffer{})
	require.Empty(t, errs)

	h1 := domquery.ByID(doc, "t")
	require.NotNil(t, h1)
	style, ok := h1.Attribute("style")
	require.True(t, ok)
	assert.Contains(t, style, "background-color: red;")

	sheet := css.ParseCSS("")
	tree := layout.Build(doc, sheet)
	require.NotNil(t, tree)
	layout.Layout(tree, 200)

	box := findFirstTag(tree, "h1")
	require.NotNil(t, box)
	require.Greater(t, box.Height, 0)

	c := Paint(tree, 200, 100)
	assert.Equal(t, canvas.RGB{R: 255, G: 0, B: 0}, c.At(box.X, box.Y))
	assert.Equal(t, canvas.RGB{R: 255, G: 0, B: 0}, c.At(box.X+box.Width-1, box.Y+box.Height-1))
}

// Two paints of the same tree must produce byte-equal pixel buffers.
func TestPaintIsDeterministic(t *testing.T) {
	doc := dom.ParseHTML(`<html><body style="background: navy"><p>Some wrapped text content here</p></body></html>`)
	sheet := css.ParseCSS(`p { color: gold; font-size: 14px }`)

	render := func() *canvas.Canvas {
		tree := layout.Build(doc, sheet)
		layout.Layout(tree, 120)
		return Paint(tree, 120, 80)
	}
	a, b := render(), render()
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			require.Equal(t, a.At(x, y), b.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}
