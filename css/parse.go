package css

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSS parses text into a Stylesheet, silently discarding any rule
// whose selector fails to parse.
func ParseCSS(text string) *Stylesheet {
	sheet, _ := ParseCSSWithDiagnostics(text)
	return sheet
}

// ParseCSSWithDiagnostics parses text into a Stylesheet and also returns a
// Warning for every selector that failed to parse and was discarded.
func ParseCSSWithDiagnostics(text string) (*Stylesheet, []Warning) {
	stripped, imports := stripImportsPrePass(text)

	sheet := &Stylesheet{Imports: imports}
	var warnings []Warning

	pos := 0
	for pos < len(stripped) {
		open := strings.IndexByte(stripped[pos:], '{')
		if open < 0 {
			break // Unclosed brace at EOF: stop parsing further rules.
		}
		open += pos
		selectorText := strings.TrimSpace(stripped[pos:open])
		closeRel := findMatchingBrace(stripped, open)
		if closeRel < 0 {
			break
		}
		declText := stripped[open+1 : closeRel]
		pos = closeRel + 1

		if selectorText == "" {
			continue
		}
		decls := parseDeclarations(declText)

		for _, selStr := range splitTopLevel(selectorText, ',') {
			selStr = strings.TrimSpace(selStr)
			if selStr == "" {
				continue
			}
			sel, err := parseSelector(selStr)
			if err != nil {
				warnings = append(warnings, Warning{Message: err.Error(), Selector: selStr})
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				SelectorText: selStr,
				Selector:     sel,
				Specificity:  sel.Specificity(),
				Declarations: decls,
			})
		}
	}
	return sheet, warnings
}

// findMatchingBrace returns the index of the '}' matching the '{' at
// stripped[openIdx], or -1 if there is none (unclosed at EOF).
func findMatchingBrace(s string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseDeclarations(text string) []Declaration {
	var out []Declaration
	for _, piece := range splitTopLevel(text, ';') {
		idx := strings.IndexByte(piece, ':')
		if idx < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(piece[:idx]))
		val := strings.TrimSpace(piece[idx+1:])
		if prop == "" {
			continue
		}
		out = append(out, Declaration{Property: prop, Value: val})
	}
	return out
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside (...)
// or [...].
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depthParen, depthBracket := 0, 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depthParen++
		case ')':
			if depthParen > 0 {
				depthParen--
			}
		case '[':
			depthBracket++
		case ']':
			if depthBracket > 0 {
				depthBracket--
			}
		default:
			if s[i] == sep && depthParen == 0 && depthBracket == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// --- @import pre-pass -------------------------------------------------

// StripImportsPrePass removes every top-level @import statement from text,
// returning the cleaned text and the recognized imports in source order.
// Comments and string literals are skipped correctly so an "@import"
// appearing inside either is never mistaken for a real rule.
//
// Exported for the resource orchestrator, which re-runs this same pre-pass
// on every transitively imported stylesheet.
func StripImportsPrePass(text string) (string, []ImportRef) {
	return stripImportsPrePass(text)
}

func stripImportsPrePass(text string) (string, []ImportRef) {
	var imports []ImportRef
	cleaned := scanImports(text, func(ref ImportRef) string {
		imports = append(imports, ref)
		return ""
	}, nil)
	return cleaned, imports
}

// ExpandImports walks text exactly as the @import pre-pass does, but
// instead of dropping each recognized @import it calls expand and splices
// its return value in directly, preserving CSS source order around the
// splice point. expand is responsible for URL resolution,
// loading and cycle detection; it returns "" for an import it declines to
// inline (already visited, failed to load, etc). malformed, if non-nil, is
// called with a short snippet of each @import statement that could not be
// parsed (missing URL, missing ';', unrecognized form) so the caller can
// warn about it; the statement's "@import" token is dropped either way.
//
// Exported for the resource orchestrator.
func ExpandImports(text string, expand func(ImportRef) string, malformed func(snippet string)) string {
	return scanImports(text, expand, malformed)
}

// scanImports is the shared top-level-@import scanner behind both
// stripImportsPrePass and ExpandImports: it walks text once, skipping
// comments and string literals and tracking brace depth so only top-level
// @import statements are recognized, and calls onImport with each one,
// splicing its return value into the output at the @import's position.
// Malformed @import statements are left for the rule parser to choke on,
// except for the literal "@import" token itself, which is always dropped
// (a lone "@import" with no parsable body can never be a valid rule
// anyway, and leaving it in just pollutes the selector text).
func scanImports(text string, onImport func(ImportRef) string, onMalformed func(snippet string)) string {
	var out strings.Builder
	depthBrace := 0
	i := 0
	n := len(text)
	for i < n {
		if strings.HasPrefix(text[i:], "/*") {
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				out.WriteString(text[i:])
				break
			}
			out.WriteString(text[i : i+2+end+2])
			i += 2 + end + 2
			continue
		}
		c := text[i]
		if c == '"' || c == '\'' {
			end := findStringEnd(text, i, c)
			out.WriteString(text[i:end])
			i = end
			continue
		}
		if c == '{' {
			depthBrace++
			out.WriteByte(c)
			i++
			continue
		}
		if c == '}' {
			if depthBrace > 0 {
				depthBrace--
			}
			out.WriteByte(c)
			i++
			continue
		}
		if depthBrace == 0 && strings.HasPrefix(text[i:], "@import") {
			ref, consumed, ok := parseImportStatement(text, i)
			if ok {
				out.WriteString(onImport(ref))
				i += consumed
				continue
			}
			// Malformed @import: report it, then drop only the literal token,
			// leaving the rest for the rule parser to deal with (it will
			// likely fail too, but that's its prerogative).
			if onMalformed != nil {
				onMalformed(importSnippet(text[i:]))
			}
			i += len("@import")
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

// importSnippet trims a malformed @import statement down to a short,
// single-line excerpt for a diagnostic message.
func importSnippet(s string) string {
	if idx := strings.IndexAny(s, ";\n"); idx >= 0 {
		s = s[:idx]
	}
	const maxLen = 48
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.TrimSpace(s)
}

// findStringEnd returns the index just past the closing quote matching
// text[start] == quote, honoring backslash escapes. If no closing quote is
// found, it returns len(text).
func findStringEnd(text string, start int, quote byte) int {
	i := start + 1
	for i < len(text) {
		if text[i] == '\\' {
			i += 2
			continue
		}
		if text[i] == quote {
			return i + 1
		}
		i++
	}
	return len(text)
}

// parseImportStatement parses a single @import statement starting at
// text[i] == '@' (the literal "@import"). It returns the parsed reference,
// how many bytes were consumed (up to and including the terminating ';'),
// and whether the statement was well-formed.
func parseImportStatement(text string, i int) (ImportRef, int, bool) {
	j := i + len("@import")
	n := len(text)
	for j < n && isCSSSpace(text[j]) {
		j++
	}
	if j >= n {
		return ImportRef{}, 0, false
	}

	var url string
	if text[j] == '"' || text[j] == '\'' {
		end := findStringEnd(text, j, text[j])
		if end > len(text) || end == j+1 {
			return ImportRef{}, 0, false
		}
		url = text[j+1 : end-1]
		j = end
	} else if strings.HasPrefix(text[j:], "url(") {
		j += len("url(")
		close := strings.IndexByte(text[j:], ')')
		if close < 0 {
			return ImportRef{}, 0, false
		}
		raw := strings.TrimSpace(text[j : j+close])
		if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
			raw = raw[1 : len(raw)-1]
		}
		url = raw
		j += close + 1
	} else {
		return ImportRef{}, 0, false
	}

	semi := strings.IndexByte(text[j:], ';')
	if semi < 0 {
		return ImportRef{}, 0, false
	}
	media := strings.TrimSpace(text[j : j+semi])
	j += semi + 1

	return ImportRef{URL: url, Media: media}, j - i, true
}

func isCSSSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// --- selector parsing ---------------------------------------------------

// ParseSelector parses a single selector string, exposing the internal
// selector parser for use by other packages (e.g. cascade's tests).
func ParseSelector(s string) (*Selector, error) {
	return parseSelector(s)
}

func parseSelector(s string) (*Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty selector")
	}
	tokens, err := tokenizeSelector(s)
	if err != nil {
		return nil, err
	}
	sel := &Selector{Raw: s}
	combinator := Descendant
	sawCompound := false
	for _, tok := range tokens {
		switch tok.kind {
		case tokCombinator:
			combinator = tok.combinator
		case tokCompound:
			c, err := parseCompound(tok.text)
			if err != nil {
				return nil, err
			}
			sel.Steps = append(sel.Steps, Step{Combinator: combinator, Compound: *c})
			combinator = Descendant
			sawCompound = true
		}
	}
	if !sawCompound {
		return nil, fmt.Errorf("invalid selector: no compound found in %q", s)
	}
	return sel, nil
}

type selTokenKind int

const (
	tokCompound selTokenKind = iota
	tokCombinator
)

type selToken struct {
	kind       selTokenKind
	text       string
	combinator Combinator
}

// tokenizeSelector splits a single selector (no top-level commas) into an
// alternating sequence of compound-text tokens and explicit/implicit
// combinator tokens.
func tokenizeSelector(s string) ([]selToken, error) {
	var toks []selToken
	i := 0
	n := len(s)
	pendingWhitespace := false
	for i < n {
		c := s[i]
		if isCSSSpace(c) {
			pendingWhitespace = true
			i++
			continue
		}
		if c == '>' || c == '+' || c == '~' {
			var comb Combinator
			switch c {
			case '>':
				comb = Child
			case '+':
				comb = AdjacentSibling
			case '~':
				comb = GeneralSibling
			}
			toks = append(toks, selToken{kind: tokCombinator, combinator: comb})
			i++
			pendingWhitespace = false
			for i < n && isCSSSpace(s[i]) {
				i++
			}
			continue
		}
		if pendingWhitespace && len(toks) > 0 {
			toks = append(toks, selToken{kind: tokCombinator, combinator: Descendant})
		}
		pendingWhitespace = false
		start := i
		for i < n && !isCSSSpace(s[i]) && s[i] != '>' && s[i] != '+' && s[i] != '~' {
			if s[i] == '[' {
				close := matchingBracket(s, i, '[', ']')
				if close < 0 {
					return nil, fmt.Errorf("unterminated attribute selector in %q", s)
				}
				i = close + 1
				continue
			}
			if s[i] == '(' {
				close := matchingBracket(s, i, '(', ')')
				if close < 0 {
					return nil, fmt.Errorf("unterminated pseudo-class argument in %q", s)
				}
				i = close + 1
				continue
			}
			i++
		}
		if i == start {
			return nil, fmt.Errorf("invalid selector token in %q", s)
		}
		toks = append(toks, selToken{kind: tokCompound, text: s[start:i]})
	}
	return toks, nil
}

func matchingBracket(s string, openIdx int, open, close byte) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// allowedBareAttrs is the conservative accept list for attribute selectors
// written without an explicit operator.
var allowedBareAttrs = map[string]bool{"id": true, "class": true}

func parseCompound(text string) (*Compound, error) {
	if text == "" {
		return nil, fmt.Errorf("empty compound selector")
	}
	c := &Compound{}
	i := 0
	n := len(text)

	if text[0] == '*' {
		c.HasUniversal = true
		i = 1
	} else if isIdentStart(text[0]) {
		start := i
		for i < n && isIdentChar(text[i]) {
			i++
		}
		c.Tag = strings.ToLower(text[start:i])
	}

	for i < n {
		switch text[i] {
		case '#':
			i++
			start := i
			for i < n && isIdentChar(text[i]) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("invalid id selector in %q", text)
			}
			c.IDs = append(c.IDs, text[start:i])
		case '.':
			i++
			start := i
			for i < n && isIdentChar(text[i]) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("invalid class selector in %q", text)
			}
			c.Classes = append(c.Classes, text[start:i])
		case '[':
			close := matchingBracket(text, i, '[', ']')
			if close < 0 {
				return nil, fmt.Errorf("unterminated attribute selector in %q", text)
			}
			attr, err := parseAttrSelector(text[i+1 : close])
			if err != nil {
				return nil, err
			}
			c.Attrs = append(c.Attrs, *attr)
			i = close + 1
		case ':':
			i++
			start := i
			for i < n && isIdentChar(text[i]) {
				i++
			}
			name := text[start:i]
			if name == "" {
				return nil, fmt.Errorf("invalid pseudo-class in %q", text)
			}
			arg := ""
			if i < n && text[i] == '(' {
				close := matchingBracket(text, i, '(', ')')
				if close < 0 {
					return nil, fmt.Errorf("unterminated pseudo-class argument in %q", text)
				}
				arg = text[i+1 : close]
				i = close + 1
			}
			p, err := parsePseudo(name, arg)
			if err != nil {
				return nil, err
			}
			c.Pseudos = append(c.Pseudos, *p)
		default:
			return nil, fmt.Errorf("unsupported selector syntax at %q", text[i:])
		}
	}

	if !c.HasUniversal && c.Tag == "" && len(c.IDs) == 0 && len(c.Classes) == 0 && len(c.Attrs) == 0 && len(c.Pseudos) == 0 {
		return nil, fmt.Errorf("empty compound selector")
	}
	return c, nil
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func parseAttrSelector(body string) (*AttrSelector, error) {
	body = strings.TrimSpace(body)
	ops := []struct {
		token string
		op    AttrOp
	}{
		{"~=", AttrClassContainsToken},
		{"^=", AttrPrefix},
		{"$=", AttrSuffix},
		{"*=", AttrContainsSubstring},
		{"=", AttrExact},
	}
	for _, o := range ops {
		if idx := strings.Index(body, o.token); idx >= 0 {
			name := strings.ToLower(strings.TrimSpace(body[:idx]))
			val := strings.TrimSpace(body[idx+len(o.token):])
			val = unquote(val)
			if name == "" {
				return nil, fmt.Errorf("invalid attribute selector [%s]", body)
			}
			return &AttrSelector{Name: name, Op: o.op, Value: val}, nil
		}
	}
	name := strings.ToLower(strings.TrimSpace(body))
	if name == "" {
		return nil, fmt.Errorf("invalid attribute selector []")
	}
	if !allowedBareAttrs[name] {
		return nil, fmt.Errorf("unsupported bare attribute selector [%s]", name)
	}
	return &AttrSelector{Name: name, Op: AttrExists}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func parsePseudo(name, arg string) (*Pseudo, error) {
	switch strings.ToLower(name) {
	case "first-child":
		return &Pseudo{Kind: PseudoFirstChild}, nil
	case "last-child":
		return &Pseudo{Kind: PseudoLastChild}, nil
	case "first-of-type":
		return &Pseudo{Kind: PseudoFirstOfType}, nil
	case "last-of-type":
		return &Pseudo{Kind: PseudoLastOfType}, nil
	case "only-child":
		return &Pseudo{Kind: PseudoOnlyChild}, nil
	case "root":
		return &Pseudo{Kind: PseudoRoot}, nil
	case "empty":
		return &Pseudo{Kind: PseudoEmpty}, nil
	case "nth-child":
		n, err := parseNth(arg)
		if err != nil {
			return nil, err
		}
		return &Pseudo{Kind: PseudoNthChild, Nth: n}, nil
	case "nth-of-type":
		n, err := parseNth(arg)
		if err != nil {
			return nil, err
		}
		return &Pseudo{Kind: PseudoNthOfType, Nth: n}, nil
	case "nth-last-child":
		n, err := parseNth(arg)
		if err != nil {
			return nil, err
		}
		return &Pseudo{Kind: PseudoNthLastChild, Nth: n}, nil
	case "nth-last-of-type":
		n, err := parseNth(arg)
		if err != nil {
			return nil, err
		}
		return &Pseudo{Kind: PseudoNthLastOfType, Nth: n}, nil
	case "not":
		inner, err := parseCompound(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid :not argument: %w", err)
		}
		return &Pseudo{Kind: PseudoNot, Not: inner}, nil
	default:
		return nil, fmt.Errorf("unsupported pseudo-class :%s", name)
	}
}

// parseNth parses an :nth-* argument: "odd", "even", a plain integer N
// (A=0, B=N), or the general "An+B" formula.
func parseNth(arg string) (NthArg, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	switch arg {
	case "odd":
		return NthArg{A: 2, B: 1}, nil
	case "even":
		return NthArg{A: 2, B: 0}, nil
	}
	if !strings.Contains(arg, "n") {
		v, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return NthArg{}, fmt.Errorf("invalid nth argument %q", arg)
		}
		return NthArg{A: 0, B: v}, nil
	}
	arg = strings.ReplaceAll(arg, " ", "")
	nIdx := strings.Index(arg, "n")
	aPart := arg[:nIdx]
	a := 1
	switch aPart {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(aPart)
		if err != nil {
			return NthArg{}, fmt.Errorf("invalid nth coefficient in %q", arg)
		}
		a = v
	}
	b := 0
	rest := arg[nIdx+1:]
	if rest != "" {
		v, err := strconv.Atoi(rest)
		if err != nil {
			return NthArg{}, fmt.Errorf("invalid nth offset in %q", arg)
		}
		b = v
	}
	return NthArg{A: a, B: b}, nil
}
