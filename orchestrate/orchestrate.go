// Package orchestrate implements the resource orchestrator: base-href
// resolution, script collection/execution, stylesheet collection, and
// transitive @import expansion, producing the concatenated CSS text the
// css package parses. A single exported entry point walks the DOM once,
// threading a *slog.Logger and a warnings sink through each stage.
package orchestrate

import (
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dpotapov/staticweb/css"
	"github.com/dpotapov/staticweb/dom"
	"github.com/dpotapov/staticweb/domquery"
	"github.com/dpotapov/staticweb/internal/srcsnippet"
	"github.com/dpotapov/staticweb/resource"
	"github.com/dpotapov/staticweb/script"
	"github.com/dpotapov/staticweb/urlref"
)

// Result is everything downstream stages (cascade, layout) need.
type Result struct {
	BaseURL    string
	Stylesheet *css.Stylesheet
	CSSText    string
	Warnings   []string
}

// Orchestrate resolves the base URL, executes scripts and collects
// stylesheets for doc, whose document URL is docURL, using loader for
// every resolved resource.
func Orchestrate(doc *dom.Node, docURL string, loader *resource.Loader, logger *slog.Logger) Result {
	logger = orDiscard(logger)

	var res Result
	res.BaseURL, res.Warnings = resolveBaseURL(doc, docURL)

	execScripts(doc, res.BaseURL, loader, logger, &res.Warnings)

	cssTexts := collectStylesheets(doc, res.BaseURL, loader, &res.Warnings)

	var expanded strings.Builder
	visited := make(map[string]bool)
	for _, ct := range cssTexts {
		expanded.WriteString(expandImports(ct.text, ct.baseURL, loader, visited, &res.Warnings))
		expanded.WriteByte('\n')
	}
	res.CSSText = expanded.String()
	res.Stylesheet, _ = css.ParseCSSWithDiagnostics(res.CSSText)

	return res
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resolveBaseURL picks the resource base: the first usable <base href>,
// else the document URL.
func resolveBaseURL(doc *dom.Node, docURL string) (string, []string) {
	var warnings []string
	for _, base := range domquery.ByTag(doc, "base") {
		href, ok := base.Attribute("href")
		if !ok {
			continue
		}
		resolved, err := urlref.Resolve(docURL, href)
		if err != nil {
			warnings = append(warnings, "Base href ignored for resource resolution")
			return docURL, warnings
		}
		switch urlref.Classify(resolved) {
		case urlref.FileURL, urlref.HTTPURL:
			return resolved, warnings
		default:
			warnings = append(warnings, "Base href ignored for resource resolution")
			return docURL, warnings
		}
	}
	return docURL, warnings
}

var allowedScriptTypes = map[string]bool{
	"":                       true,
	"text/javascript":        true,
	"application/javascript": true,
	"module":                 true,
}

// execScripts runs every eligible <script> against the DOM in document
// order.
func execScripts(doc *dom.Node, baseURL string, loader *resource.Loader, logger *slog.Logger, warnings *[]string) {
	for _, el := range domquery.ByTag(doc, "script") {
		typ := strings.ToLower(el.AttributeOr("type", ""))
		if !allowedScriptTypes[typ] {
			continue
		}
		var text string
		if src, ok := el.Attribute("src"); ok && src != "" {
			resolved, err := urlref.Resolve(baseURL, src)
			if err != nil {
				*warnings = append(*warnings, fmt.Sprintf("Unable to resolve script src %q: %s", src, err))
				continue
			}
			lr := loader.LoadText(resolved)
			if !lr.OK {
				*warnings = append(*warnings, fmt.Sprintf("Script load failed (%s): %s", resolved, lr.Error))
				continue
			}
			text = lr.Text
		} else {
			text = el.InnerText()
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, err := range script.Run(doc, text, os.Stderr) {
			msg := fmt.Sprintf("Script execution failed: %s", err)
			if snippet := srcsnippet.Render(el, 1); snippet != "" {
				msg = fmt.Sprintf("%s\n%s", msg, snippet)
			}
			*warnings = append(*warnings, msg)
			logger.Warn("script execution failed", "error", err, "snippet", el.Tag)
		}
	}
}

type cssSource struct {
	text    string
	baseURL string
}

var mediaAllowList = []string{"all", "screen"}

// collectStylesheets gathers <style> blocks and <link rel="stylesheet">
// contents in document order, applying the type and media filters.
func collectStylesheets(doc *dom.Node, baseURL string, loader *resource.Loader, warnings *[]string) []cssSource {
	var out []cssSource
	styleIdx := 0
	for _, el := range domAllInOrder(doc) {
		if el.Kind != dom.Element {
			continue
		}
		switch el.Tag {
		case "style":
			idx := styleIdx
			styleIdx++
			typ := strings.ToLower(el.AttributeOr("type", ""))
			if typ != "" && typ != "text/css" {
				*warnings = append(*warnings, fmt.Sprintf("Stylesheet skipped (inline block %d): unsupported type %q", idx, typ))
				continue
			}
			if !mediaAllowed(el.AttributeOr("media", "")) {
				*warnings = append(*warnings, fmt.Sprintf("Stylesheet skipped (inline block %d): media does not match", idx))
				continue
			}
			out = append(out, cssSource{text: el.InnerText(), baseURL: baseURL})
		case "link":
			rel := el.AttributeOr("rel", "")
			if !hasRelToken(rel, "stylesheet") {
				continue
			}
			href, ok := el.Attribute("href")
			if !ok || href == "" {
				continue
			}
			typ := strings.ToLower(el.AttributeOr("type", ""))
			if typ != "" && typ != "text/css" {
				*warnings = append(*warnings, fmt.Sprintf("Stylesheet skipped (%s): unsupported type %q", href, typ))
				continue
			}
			if !mediaAllowed(el.AttributeOr("media", "")) {
				*warnings = append(*warnings, fmt.Sprintf("Stylesheet skipped (%s): media does not match", href))
				continue
			}
			resolved, err := urlref.Resolve(baseURL, href)
			if err != nil {
				*warnings = append(*warnings, fmt.Sprintf("Stylesheet skipped (%s): %s", href, err))
				continue
			}
			lr := loader.LoadText(resolved)
			if !lr.OK {
				*warnings = append(*warnings, fmt.Sprintf("Stylesheet load failed (%s): %s", resolved, lr.Error))
				continue
			}
			out = append(out, cssSource{text: lr.Text, baseURL: resolved})
		}
	}
	return out
}

func mediaAllowed(media string) bool {
	media = strings.TrimSpace(media)
	if media == "" {
		return true
	}
	for _, tok := range tokenizeWord(media) {
		for _, allow := range mediaAllowList {
			if strings.EqualFold(tok, allow) {
				return true
			}
		}
	}
	return false
}

// tokenizeWord splits s on runs of characters outside [A-Za-z0-9_-].
func tokenizeWord(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func hasRelToken(rel, want string) bool {
	for _, part := range strings.FieldsFunc(rel, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		if strings.EqualFold(part, want) {
			return true
		}
	}
	return false
}

// domAllInOrder returns every node in root's subtree in document order.
func domAllInOrder(root *dom.Node) []*dom.Node {
	var out []*dom.Node
	var walk func(*dom.Node)
	walk = func(n *dom.Node) {
		out = append(out, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// expandImports recursively expands @import rules with cycle detection via
// two visited-key schemes (URL and content hash), splicing each import's
// expansion at the position of its @import rule rather than collecting
// imports up front and reordering them around the host text.
func expandImports(text, baseURL string, loader *resource.Loader, visited map[string]bool, warnings *[]string) string {
	contentKey := contentVisitKey(text)
	if visited[contentKey] {
		*warnings = append(*warnings, "CSS @import skipped: cyclic content already visited")
		return ""
	}
	visited[contentKey] = true

	malformed := func(snippet string) {
		*warnings = append(*warnings, fmt.Sprintf("Malformed @import in %s skipped: %s", baseURL, snippet))
	}
	return css.ExpandImports(text, func(imp css.ImportRef) string {
		resolved, err := urlref.Resolve(baseURL, imp.URL)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("CSS @import load failed: unable to resolve %q: %s", imp.URL, err))
			return ""
		}
		urlKey := "css-url:" + resolved
		if visited[urlKey] {
			*warnings = append(*warnings, fmt.Sprintf("CSS @import skipped: cyclic reference to %s", resolved))
			return ""
		}
		visited[urlKey] = true

		lr := loader.LoadText(resolved)
		if !lr.OK {
			*warnings = append(*warnings, fmt.Sprintf("CSS @import load failed: %s", resolved))
			if lr.FetchDiagnostic != "" {
				*warnings = append(*warnings, lr.FetchDiagnostic)
			}
			return ""
		}
		return expandImports(lr.Text, resolved, loader, visited, warnings) + "\n"
	}, malformed)
}

// contentVisitKey forms the "css-content:<len>:<fnv1a-64-hash>" visited
// key that expandImports checks for every stylesheet text it expands.
func contentVisitKey(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("css-content:%d:%x", len(text), h.Sum64())
}
