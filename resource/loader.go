// Package resource implements the resource loader: loading text for a
// canonicalized URL through a pluggable Fetcher, a per-navigation cache,
// and fetch-diagnostic accounting.
//
// The orchestration layer never talks to net/http directly; it is handed a
// Fetcher collaborator that already knows how to make the call. The
// concrete HTTP client lives with the CLI, outside the core pipeline.
package resource

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dpotapov/staticweb/urlref"
)

// FetchResponse is what the external Fetcher collaborator returns for an
// http(s) request.
type FetchResponse struct {
	StatusCode           int
	Reason               string
	Body                 string
	Error                string
	FinalURL             string
	TotalDurationSeconds float64
	TimedOut             bool
}

// Fetcher is the pluggable HTTP collaborator. It is the only blocking,
// network-touching dependency in the whole pipeline.
type Fetcher interface {
	Fetch(url string) (FetchResponse, error)
}

// LoadResult is the outcome of Loader.LoadText.
type LoadResult struct {
	OK                   bool
	Text                 string
	FinalURL             string
	Error                string
	TotalDurationSeconds float64
	TimedOut             bool
	// FetchDiagnostic is independent of OK — see FormatFetchDiagnostic.
	FetchDiagnostic string
	// Retryable is set on failure: whether a retry stands a reasonable
	// chance of succeeding (timeouts and 5xx are, 4xx and malformed input
	// are not).
	Retryable bool
}

// Loader loads text for canonical URLs, caching results for the lifetime
// of one navigation.
type Loader struct {
	fetcher Fetcher

	mu    sync.Mutex
	cache map[string]LoadResult
}

// NewLoader returns a Loader backed by fetcher. fetcher may be nil if the
// navigation never touches http(s) resources.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher, cache: make(map[string]LoadResult)}
}

// LoadText loads text for canonicalURL, consulting and populating the
// per-Loader cache.
func (l *Loader) LoadText(canonicalURL string) LoadResult {
	l.mu.Lock()
	if cached, ok := l.cache[canonicalURL]; ok {
		l.mu.Unlock()
		return cached
	}
	l.mu.Unlock()

	res := l.load(canonicalURL)

	l.mu.Lock()
	l.cache[canonicalURL] = res
	l.mu.Unlock()
	return res
}

func (l *Loader) load(canonicalURL string) LoadResult {
	switch {
	case urlref.IsFileURL(canonicalURL):
		return l.loadFile(canonicalURL)
	case strings.HasPrefix(strings.ToLower(canonicalURL), "data:"):
		return l.loadData(canonicalURL)
	default:
		return l.loadHTTP(canonicalURL)
	}
}

func (l *Loader) loadFile(canonicalURL string) LoadResult {
	p, err := urlref.FileURLToPath(canonicalURL)
	if err != nil {
		return LoadResult{Error: fmt.Sprintf("Unable to open file: %s", err)}
	}
	f, err := os.Open(p)
	if err != nil {
		return LoadResult{Error: fmt.Sprintf("Unable to open file: %s", err)}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return LoadResult{Error: fmt.Sprintf("Failed to read file: %s", err)}
	}
	return LoadResult{OK: true, Text: string(data), FinalURL: canonicalURL}
}

func (l *Loader) loadData(canonicalURL string) LoadResult {
	d, err := urlref.ParseDataURL(canonicalURL)
	if err != nil {
		return LoadResult{Error: err.Error()}
	}
	return LoadResult{OK: true, Text: string(d.Payload), FinalURL: canonicalURL}
}

func (l *Loader) loadHTTP(canonicalURL string) LoadResult {
	if l.fetcher == nil {
		return LoadResult{Error: "No fetcher configured for http(s) resource"}
	}
	resp, err := l.fetcher.Fetch(canonicalURL)
	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = canonicalURL
	}
	diag := FormatFetchDiagnostic(canonicalURL, resp.TotalDurationSeconds, resp.TimedOut)

	failed := err != nil || resp.Error != "" || resp.StatusCode < 200 || resp.StatusCode > 299
	if failed {
		msg := resp.Error
		if msg == "" && err != nil {
			msg = err.Error()
		}
		if msg == "" {
			msg = fmt.Sprintf("HTTP status %d %s", resp.StatusCode, resp.Reason)
		}
		return LoadResult{
			Error:                msg,
			FinalURL:             finalURL,
			TotalDurationSeconds: resp.TotalDurationSeconds,
			TimedOut:             resp.TimedOut,
			FetchDiagnostic:      diag,
			Retryable:            resp.TimedOut || resp.StatusCode >= 500,
		}
	}
	return LoadResult{
		OK:                   true,
		Text:                 resp.Body,
		FinalURL:             finalURL,
		TotalDurationSeconds: resp.TotalDurationSeconds,
		TimedOut:             resp.TimedOut,
		FetchDiagnostic:      diag,
	}
}

// slowFetchThresholdSeconds is an orchestration-level constant, not a
// property of the fetcher itself.
const slowFetchThresholdSeconds = 2.0

// FormatFetchDiagnostic produces the fetch-diagnostic string, independent
// of load success: non-empty when the fetch timed out or was slow, empty
// otherwise.
func FormatFetchDiagnostic(url string, totalDurationSeconds float64, timedOut bool) string {
	if timedOut {
		return fmt.Sprintf("HTTP fetch timed out after %ss: %s", formatDuration(totalDurationSeconds), url)
	}
	if totalDurationSeconds >= slowFetchThresholdSeconds {
		return fmt.Sprintf("Slow HTTP fetch (%ss): %s", formatDuration(totalDurationSeconds), url)
	}
	return ""
}

// formatDuration renders seconds as an integer when the value is a whole
// number of seconds, otherwise as S.fff with trailing zeros trimmed:
// "2" not "2.000", "2.5" not "2.500".
func formatDuration(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	if ms%1000 == 0 {
		return strconv.FormatInt(ms/1000, 10)
	}
	s := strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
