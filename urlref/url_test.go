package urlref

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, FileURL, Classify("file:///tmp/x.html"))
	assert.Equal(t, DataURL, Classify("data:text/plain,hello"))
	assert.Equal(t, DataURL, Classify("DATA:text/plain,hello"))
	assert.Equal(t, HTTPURL, Classify("https://example.com/page"))
	assert.Equal(t, Unknown, Classify("not a url and not a path either \x00"))
}

func TestClassify_LocalPath(t *testing.T) {
	f := t.TempDir() + "/exists.html"
	require.NoError(t, os.WriteFile(f, []byte("<html></html>"), 0o644))
	assert.Equal(t, LocalPath, Classify(f))
}

func TestCanonicalize_HTTPURLPassesThrough(t *testing.T) {
	got, err := Canonicalize("https://example.com/a/b?q=1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a/b?q=1", got)
}

func TestCanonicalize_DataURLUnchanged(t *testing.T) {
	got, err := Canonicalize("data:text/plain,hi")
	require.NoError(t, err)
	assert.Equal(t, "data:text/plain,hi", got)
}

func TestCanonicalize_UnrecognizedErrors(t *testing.T) {
	_, err := Canonicalize("bogus-\x00-input")
	assert.Error(t, err)
}

func TestFileURLRoundTrip(t *testing.T) {
	path := t.TempDir() + "/page.html"
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))
	u, err := Canonicalize(path)
	require.NoError(t, err)
	assert.True(t, IsFileURL(u))

	p, err := FileURLToPath(u)
	require.NoError(t, err)
	assert.Equal(t, path, p)
}

func TestResolve_EmptyReferenceReturnsBase(t *testing.T) {
	got, err := Resolve("https://example.com/base/", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/base/", got)
}

func TestResolve_RelativeJoinsAgainstBase(t *testing.T) {
	got, err := Resolve("https://example.com/dir/page.html", "style.css")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dir/style.css", got)
}

func TestResolve_AbsoluteReferenceIgnoresBase(t *testing.T) {
	got, err := Resolve("https://example.com/dir/page.html", "https://other.com/x.css")
	require.NoError(t, err)
	assert.Equal(t, "https://other.com/x.css", got)
}

func TestParseDataURL_PlainText(t *testing.T) {
	d, err := ParseDataURL("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", d.MediaType)
	assert.False(t, d.Base64)
	assert.Equal(t, "hello world", string(d.Payload))
}

func TestParseDataURL_Base64(t *testing.T) {
	d, err := ParseDataURL("data:text/css;base64,Ym9keXtjb2xvcjpyZWR9")
	require.NoError(t, err)
	assert.True(t, d.Base64)
	assert.Equal(t, "body{color:red}", string(d.Payload))
}

func TestParseDataURL_UnsupportedMediaType(t *testing.T) {
	_, err := ParseDataURL("data:image/png;base64,aGk=")
	assert.Error(t, err)
}

func TestParseDataURL_MalformedNoComma(t *testing.T) {
	_, err := ParseDataURL("data:text/plain")
	assert.Error(t, err)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	local := t.TempDir() + "/page.html"
	require.NoError(t, os.WriteFile(local, []byte("<html></html>"), 0o644))
	for _, raw := range []string{
		"https://example.com/a/b?q=1",
		"data:text/plain,hi",
		local,
	} {
		once, err := Canonicalize(raw)
		require.NoError(t, err, raw)
		twice, err := Canonicalize(once)
		require.NoError(t, err, raw)
		assert.Equal(t, once, twice, raw)
	}
}

func TestParseDataURL_MalformedPercentEscape(t *testing.T) {
	_, err := ParseDataURL("data:text/plain,bad%zz")
	assert.Error(t, err)
}

func TestParseDataURL_MalformedBase64(t *testing.T) {
	_, err := ParseDataURL("data:text/css;base64,not-base64!!!")
	assert.Error(t, err)
}
