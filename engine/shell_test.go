package engine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/staticweb/resource"
)

type stubFetcher struct {
	resp resource.FetchResponse
	err  error
}

func (s stubFetcher) Fetch(url string) (resource.FetchResponse, error) {
	return s.resp, s.err
}

func writeTempHTML(t *testing.T, body string) string {
	t.Helper()
	path := t.TempDir() + "/page.html"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNavigate_SuccessReachesComplete(t *testing.T) {
	path := writeTempHTML(t, `<html><body><p>hello</p></body></html>`)
	out := t.TempDir() + "/out.ppm"

	s := &Shell{}
	result := s.Navigate(
		NavigationInput{URL: path, Width: 100, Height: 100},
		NavigationOptions{OutputPath: out},
	)
	require.True(t, result.OK, result.Message)
	assert.Equal(t, Complete, result.Session.Stage)
	assert.NoError(t, Verify(result.Session))

	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestNavigate_EmptyURLFails(t *testing.T) {
	s := &Shell{}
	result := s.Navigate(NavigationInput{URL: ""}, NavigationOptions{})
	assert.False(t, result.OK)
	assert.Equal(t, StageError, result.Session.Stage)
}

func TestNavigate_LoadFailureIsRetryableFor5xx(t *testing.T) {
	s := &Shell{Fetcher: stubFetcher{resp: resource.FetchResponse{StatusCode: 503}}}
	result := s.Navigate(NavigationInput{URL: "https://example.com/"}, NavigationOptions{OutputPath: t.TempDir() + "/o.ppm"})
	assert.False(t, result.OK)
	assert.True(t, result.Retryable)
}

func TestShellMode_ProducesTextInsteadOfPPM(t *testing.T) {
	path := writeTempHTML(t, `<html><body><p>hello</p></body></html>`)
	s := &Shell{}
	result := s.Navigate(
		NavigationInput{URL: path, Width: 100, Height: 100},
		NavigationOptions{ShellMode: true},
	)
	require.True(t, result.OK)
	assert.Contains(t, result.ShellText, "body")
}

func TestRetry_PreservesPriorDiagnostics(t *testing.T) {
	path := writeTempHTML(t, `<html><body>ok</body></html>`)
	s := &Shell{}
	first := s.Navigate(NavigationInput{URL: path, Width: 50, Height: 50}, NavigationOptions{OutputPath: t.TempDir() + "/a.ppm"})
	require.True(t, first.OK)

	second := s.Retry()
	require.True(t, second.OK)
	assert.Greater(t, len(second.Session.Diagnostics), len(first.Session.Diagnostics))
}

func TestCancelFlag_SetAndGet(t *testing.T) {
	var c cancelFlag
	assert.False(t, c.get())
	c.set(true)
	assert.True(t, c.get())
	c.set(false)
	assert.False(t, c.get())
}

func TestNavigate_ResetsCancelFlagAtStart(t *testing.T) {
	path := writeTempHTML(t, `<html><body>x</body></html>`)
	s := &Shell{}
	s.Cancel()
	result := s.Navigate(NavigationInput{URL: path, Width: 10, Height: 10}, NavigationOptions{OutputPath: t.TempDir() + "/c.ppm"})
	require.True(t, result.OK, result.Message)
	assert.False(t, s.cancel.get())
}

func TestNavigate_WritesPPMHeaderAndBody(t *testing.T) {
	path := writeTempHTML(t, `<html><body><p>pixels</p></body></html>`)
	out := t.TempDir() + "/out.ppm"

	s := &Shell{}
	result := s.Navigate(NavigationInput{URL: path, Width: 64, Height: 48}, NavigationOptions{OutputPath: out})
	require.True(t, result.OK, result.Message)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	header := "P6\n64 48\n255\n"
	require.Greater(t, len(data), len(header))
	assert.Equal(t, header, string(data[:len(header)]))
	assert.Equal(t, len(header)+64*48*3, len(data))
}

func TestNavigate_SuccessMessageNamesURLAndOutput(t *testing.T) {
	path := writeTempHTML(t, `<html><body>ok</body></html>`)
	out := t.TempDir() + "/page.ppm"
	s := &Shell{}
	result := s.Navigate(NavigationInput{URL: path, Width: 32, Height: 32}, NavigationOptions{OutputPath: out})
	require.True(t, result.OK)
	assert.Contains(t, result.Message, "Rendered ")
	assert.Contains(t, result.Message, out)
}

func TestNavigate_WarningSummaryAppendedToMessage(t *testing.T) {
	path := writeTempHTML(t, `<html><body><div><p>never closed`)
	s := &Shell{}
	result := s.Navigate(NavigationInput{URL: path, Width: 32, Height: 32}, NavigationOptions{ShellMode: true})
	require.True(t, result.OK)
	assert.Contains(t, result.Message, "Warning summary:")
	assert.Contains(t, result.Message, "Warnings: ")
}

func TestCancel_TransitionsSessionAndEmitsDiagnostic(t *testing.T) {
	path := writeTempHTML(t, `<html><body>x</body></html>`)
	s := &Shell{}
	result := s.Navigate(NavigationInput{URL: path, Width: 16, Height: 16}, NavigationOptions{ShellMode: true})
	require.True(t, result.OK)

	s.Cancel()
	assert.Equal(t, Cancelled, result.Session.Stage)
	found := false
	for _, d := range result.Session.Diagnostics {
		if d.Message == "Cancel requested" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestVerify_RejectsNonTerminalStage(t *testing.T) {
	sess := &Session{Stage: Fetching, Trace: []TraceEntry{{Stage: Fetching}}}
	assert.Error(t, Verify(sess))
}

func TestDiagnosticTimestampsMonotonic(t *testing.T) {
	path := writeTempHTML(t, `<html><body><p>t</p></body></html>`)
	s := &Shell{}
	result := s.Navigate(NavigationInput{URL: path, Width: 16, Height: 16}, NavigationOptions{ShellMode: true})
	require.True(t, result.OK)
	diags := result.Session.Diagnostics
	for i := 1; i < len(diags); i++ {
		assert.False(t, diags[i].Timestamp.Before(diags[i-1].Timestamp))
	}
	for _, d := range diags {
		assert.Equal(t, "nav-1", d.CorrelationID)
	}
}
