package resource

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/staticweb/urlref"
)

type stubFetcher struct {
	resp FetchResponse
	err  error
	n    int
}

func (s *stubFetcher) Fetch(url string) (FetchResponse, error) {
	s.n++
	return s.resp, s.err
}

func TestLoadText_File(t *testing.T) {
	path := t.TempDir() + "/page.html"
	require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0o644))
	u, err := urlref.Canonicalize(path)
	require.NoError(t, err)

	l := NewLoader(nil)
	res := l.LoadText(u)
	require.True(t, res.OK)
	assert.Equal(t, "<p>hi</p>", res.Text)
}

func TestLoadText_Data(t *testing.T) {
	l := NewLoader(nil)
	res := l.LoadText("data:text/plain,hello")
	require.True(t, res.OK)
	assert.Equal(t, "hello", res.Text)
}

func TestLoadText_HTTPSuccessAndCaches(t *testing.T) {
	f := &stubFetcher{resp: FetchResponse{StatusCode: 200, Body: "ok", FinalURL: "https://example.com/"}}
	l := NewLoader(f)
	res := l.LoadText("https://example.com/")
	require.True(t, res.OK)
	assert.Equal(t, "ok", res.Text)

	res2 := l.LoadText("https://example.com/")
	assert.True(t, res2.OK)
	assert.Equal(t, 1, f.n, "second load should hit the cache, not the fetcher")
}

func TestLoadText_HTTPErrorStatusIsRetryableFor5xx(t *testing.T) {
	f := &stubFetcher{resp: FetchResponse{StatusCode: 503, Reason: "Service Unavailable"}}
	l := NewLoader(f)
	res := l.LoadText("https://example.com/")
	assert.False(t, res.OK)
	assert.True(t, res.Retryable)
}

func TestLoadText_HTTPErrorStatusNotRetryableFor4xx(t *testing.T) {
	f := &stubFetcher{resp: FetchResponse{StatusCode: 404, Reason: "Not Found"}}
	l := NewLoader(f)
	res := l.LoadText("https://example.com/")
	assert.False(t, res.OK)
	assert.False(t, res.Retryable)
}

func TestLoadText_NoFetcherConfigured(t *testing.T) {
	l := NewLoader(nil)
	res := l.LoadText("https://example.com/")
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "No fetcher")
}

func TestLoadText_NetworkErrorUsesErrString(t *testing.T) {
	f := &stubFetcher{err: errors.New("connection refused")}
	l := NewLoader(f)
	res := l.LoadText("https://example.com/")
	assert.False(t, res.OK)
	assert.Equal(t, "connection refused", res.Error)
}

func TestFormatFetchDiagnostic(t *testing.T) {
	assert.Equal(t, "", FormatFetchDiagnostic("u", 0.5, false))
	assert.Contains(t, FormatFetchDiagnostic("u", 2.5, false), "Slow HTTP fetch (2.5s)")
	assert.Contains(t, FormatFetchDiagnostic("u", 5, true), "timed out after 5s")
}
