package script

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/staticweb/dom"
	"github.com/dpotapov/staticweb/domquery"
)

func TestRun_DocumentTitleAssignment(t *testing.T) {
	doc := dom.ParseHTML(`<html><head></head><body></body></html>`)
	errs := Run(doc, `document.title = "Hello"`, &bytes.Buffer{})
	assert.Empty(t, errs)
	titles := domquery.ByTag(doc, "title")
	require.Len(t, titles, 1)
	assert.Equal(t, "Hello", titles[0].InnerText())
}

func TestRun_BodyInnerTextAndStyle(t *testing.T) {
	doc := dom.ParseHTML(`<html><body></body></html>`)
	errs := Run(doc, `document.body.innerText = "hi"; document.body.style.backgroundColor = "red"`, &bytes.Buffer{})
	assert.Empty(t, errs)
	body := domquery.ByTag(doc, "body")[0]
	assert.Equal(t, "hi", body.InnerText())
	style, ok := body.Attribute("style")
	require.True(t, ok)
	assert.Contains(t, style, "background-color: red")
}

func TestRun_GetElementByIDSetAttribute(t *testing.T) {
	doc := dom.ParseHTML(`<div id="x"></div>`)
	errs := Run(doc, `document.getElementById("x").setAttribute("data-role", "card")`, &bytes.Buffer{})
	assert.Empty(t, errs)
	el := domquery.ByID(doc, "x")
	require.NotNil(t, el)
	v, ok := el.Attribute("data-role")
	require.True(t, ok)
	assert.Equal(t, "card", v)
}

func TestRun_QuerySelectorRequiresIDForm(t *testing.T) {
	doc := dom.ParseHTML(`<div id="x" class="y"></div>`)
	errs := Run(doc, `document.querySelector(".y").className = "z"`, &bytes.Buffer{})
	require.Len(t, errs, 1)
}

func TestRun_QuerySelectorByID(t *testing.T) {
	doc := dom.ParseHTML(`<div id="x"></div>`)
	errs := Run(doc, `document.querySelector("#x").className = "z"`, &bytes.Buffer{})
	assert.Empty(t, errs)
	el := domquery.ByID(doc, "x")
	v, _ := el.Attribute("class")
	assert.Equal(t, "z", v)
}

func TestRun_ConsoleLogWritesToStderr(t *testing.T) {
	doc := dom.ParseHTML(`<div></div>`)
	var buf bytes.Buffer
	errs := Run(doc, `console.log("hello world")`, &buf)
	assert.Empty(t, errs)
	assert.Equal(t, "hello world\n", buf.String())
}

func TestRun_UnsupportedShapeCollectsShapeError(t *testing.T) {
	doc := dom.ParseHTML(`<div></div>`)
	errs := Run(doc, `window.alert("nope")`, &bytes.Buffer{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "Unsupported script statement")
}

func TestRun_ContinuesAfterFailedStatement(t *testing.T) {
	doc := dom.ParseHTML(`<html><body></body></html>`)
	errs := Run(doc, `bogus.shape(); document.title = "ok"`, &bytes.Buffer{})
	require.Len(t, errs, 1)
	titles := domquery.ByTag(doc, "title")
	require.Len(t, titles, 1)
	assert.Equal(t, "ok", titles[0].InnerText())
}

func TestNormalizeStyleProperty_AllowListAndCamelCaseFallback(t *testing.T) {
	assert.Equal(t, "background-color", normalizeStyleProperty("backgroundColor"))
	assert.Equal(t, "font-weight", normalizeStyleProperty("fontWeight"))
}

func TestScanStringLiteral_QuoteAndBackslashEscapes(t *testing.T) {
	val, next, ok := scanStringLiteral(`"a\"b\\c"`, 0)
	require.True(t, ok)
	assert.Equal(t, `a"b\c`, val)
	assert.Equal(t, len(`"a\"b\\c"`), next)
}
