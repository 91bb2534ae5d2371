package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements auto-close without requiring a matching end tag.
// isVoidElement checks the table below first, then the same set of tags
// by atom.Lookup.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func isVoidElement(tag string) bool {
	if voidElements[tag] {
		return true
	}
	// Not in the table: classify by atom.Lookup, which covers the same
	// void tags.
	switch atom.Lookup([]byte(tag)) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr,
		atom.Img, atom.Input, atom.Link, atom.Meta, atom.Param,
		atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// namedEntities is the fixed set of named references the parser decodes.
// Anything not in this table (or not a well-formed numeric reference)
// passes through literally, undecoded. This is deliberately narrower than
// golang.org/x/net/html's own unescape table: we drive html.Tokenizer for
// tag/comment/raw-text structural scanning below but always decode entities
// ourselves, so that text and attribute values only ever see this
// restricted set rather than the full HTML5 named-character-reference
// table.
var namedEntities = map[string]rune{
	"amp": '&', "lt": '<', "gt": '>', "quot": '"', "apos": '\'',
	"nbsp": ' ', "cent": '¢', "pound": '£', "yen": '¥',
	"sect": '§', "deg": '°', "euro": '€', "copy": '©',
	"reg": '®', "trade": '™', "ndash": '–', "mdash": '—',
}

// decodeEntities expands named and numeric entity references. Unknown
// names and malformed numeric references are left untouched in the
// output.
func decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if r, adv, ok := decodeEntityAt(s, i); ok {
			b.WriteRune(r)
			i += adv
			continue
		}
		b.WriteByte('&')
		i++
	}
	return b.String()
}

// decodeEntityAt attempts to decode a single entity reference starting at
// s[i] == '&'. It returns the decoded rune, how many bytes it consumed
// (including the leading '&' and trailing ';'), and whether decoding
// succeeded.
func decodeEntityAt(s string, i int) (rune, int, bool) {
	j := i + 1
	if j < len(s) && s[j] == '#' {
		k := j + 1
		hex := false
		if k < len(s) && (s[k] == 'x' || s[k] == 'X') {
			hex = true
			k++
		}
		start := k
		for k < len(s) && isEntityDigit(s[k], hex) {
			k++
		}
		if k > start && k < len(s) && s[k] == ';' {
			base := 10
			if hex {
				base = 16
			}
			val, err := strconv.ParseInt(s[start:k], base, 64)
			if err == nil && val >= 0 && val <= 0x10FFFF && !(val >= 0xD800 && val <= 0xDFFF) {
				return rune(val), k + 1 - i, true
			}
		}
		return 0, 0, false
	}
	k := j
	for k < len(s) && isAlphaNumASCII(s[k]) {
		k++
	}
	if k > j && k < len(s) && s[k] == ';' {
		if r, ok := namedEntities[s[j:k]]; ok {
			return r, k + 1 - i, true
		}
	}
	return 0, 0, false
}

func isEntityDigit(c byte, hex bool) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if !hex {
		return false
	}
	return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlphaNumASCII(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isTagNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == ':'
}

func isHTMLSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// ParseResult is the return value of ParseHTMLWithDiagnostics.
type ParseResult struct {
	Document *Node
	Warnings []string
}

// ParseHTML parses text into a DOM tree, discarding recovery diagnostics.
func ParseHTML(text string) *Node {
	return ParseHTMLWithDiagnostics(text).Document
}

// ParseHTMLWithDiagnostics runs a single left-to-right recovery pass over
// text and also returns the ordered warning list it produced along the way.
//
// We drive golang.org/x/net/html's Tokenizer ourselves rather than calling
// html.Parse: the tokenizer owns tag/comment/doctype/raw-text-element
// boundary detection (so `<script>`/`<style>`/`<textarea>` bodies containing
// stray `<`/`>` don't get mis-scanned as markup), while the tree-building
// and recovery semantics on top stay a simple open-element-stack pass, not
// the full HTML5 insertion-mode state machine. Entity decoding never uses
// the tokenizer's own unescape step: tag and attribute text is pulled from
// Tokenizer.Raw() (undecoded) and run through decodeEntities above, so only
// the restricted entity set is ever expanded.
func ParseHTMLWithDiagnostics(text string) *ParseResult {
	p := &htmlParser{doc: NewDocument()}
	p.stack = []*Node{p.doc}
	p.run(text)
	return &ParseResult{Document: p.doc, Warnings: p.warnings}
}

type htmlParser struct {
	doc      *Node
	stack    []*Node
	warnings []string
}

func (p *htmlParser) warn(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *htmlParser) top() *Node {
	return p.stack[len(p.stack)-1]
}

func (p *htmlParser) push(n *Node) {
	p.stack = append(p.stack, n)
}

func (p *htmlParser) pop() *Node {
	n := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	return n
}

// appendText appends decoded text to the current parent, coalescing with a
// trailing text sibling.
func (p *htmlParser) appendText(raw string) {
	if raw == "" {
		return
	}
	decoded := decodeEntities(raw)
	parent := p.top()
	if last := parent.LastChild; last != nil && last.Kind == Text {
		last.Text += decoded
		return
	}
	parent.AppendChild(NewText(decoded))
}

func (p *htmlParser) run(text string) {
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		raw := string(z.Raw())
		switch tt {
		case html.ErrorToken:
			goto eof
		case html.TextToken:
			p.consumeText(raw)
		case html.CommentToken:
			p.consumeComment(raw)
		case html.DoctypeToken:
			// Declarations are skipped outright (rule 3).
		case html.StartTagToken, html.SelfClosingTagToken:
			p.consumeStartTag(z, raw, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			p.consumeEndTag(z)
		}
	}
eof:
	// EOF: every non-root element left on the stack is unclosed.
	for i := len(p.stack) - 1; i >= 1; i-- {
		p.warn("Unclosed element: <%s>", p.stack[i].Tag)
	}
}

// consumeText appends text, emitting one diagnostic per literal '<' the
// tokenizer folded into this run because it wasn't followed by a
// recognizable tag start (a bare '<', '<3', '< 1', and so on).
func (p *htmlParser) consumeText(raw string) {
	if n := strings.Count(raw, "<"); n > 0 {
		for i := 0; i < n; i++ {
			p.warn("Bare '<' treated as text")
		}
	}
	p.appendText(raw)
}

// consumeComment skips comments. Bogus comments (the tokenizer's catch-all
// for `<!...>` junk that isn't a real `<!--...-->` or a recognized doctype)
// are skipped silently like any other declaration; only a genuine `<!--`
// left unterminated at EOF warns.
func (p *htmlParser) consumeComment(raw string) {
	if strings.HasPrefix(raw, "<!--") && !strings.HasSuffix(raw, "-->") {
		p.warn("Unterminated comment")
	}
}

func (p *htmlParser) consumeEndTag(z *html.Tokenizer) {
	nameBytes, _ := z.TagName()
	name := string(nameBytes)

	if strings.TrimSpace(name) == "" {
		if len(p.stack) == 1 {
			p.warn("orphan end tag")
		} else {
			p.warn("unmatched end tag")
		}
		return
	}

	idx := -1
	for k := len(p.stack) - 1; k >= 1; k-- {
		if p.stack[k].Tag == name {
			idx = k
			break
		}
	}
	if idx < 0 {
		p.warn("unmatched end tag: </%s>", name)
		return
	}
	for k := len(p.stack) - 1; k > idx; k-- {
		p.warn("implicitly closed: <%s>", p.stack[k].Tag)
		p.pop()
	}
	p.pop()
}

// consumeStartTag builds the element from the tokenizer's tag name but
// ignores its TagAttr() values (pre-unescaped with the full HTML5 named-
// character-reference table); attributes are re-scanned from the tag's own
// raw source via scanRawAttrs so values only ever see the restricted entity
// set.
func (p *htmlParser) consumeStartTag(z *html.Tokenizer, raw string, selfClosing bool) {
	nameBytes, _ := z.TagName()
	tag := string(nameBytes)

	el := NewElement(tag)
	for _, a := range scanRawAttrs(raw) {
		el.SetAttribute(a.key, decodeEntities(a.val))
	}

	p.top().AppendChild(el)
	if !selfClosing && !isVoidElement(tag) {
		p.push(el)
	}
}

type rawAttr struct{ key, val string }

// scanRawAttrs re-scans a start tag's raw source text (e.g. `<a href="x">`)
// for its attributes: names lowercased, unquoted/single/double-quoted
// values, duplicate keys resolved last-wins by the caller's use of
// SetAttribute. It intentionally ignores golang.org/x/net/html's own
// attribute decoding (which expands the full named-character-reference
// table) so values keep the narrower entity set intact.
func scanRawAttrs(raw string) []rawAttr {
	var attrs []rawAttr
	j := 1 // skip leading '<'
	for j < len(raw) && isTagNameChar(raw[j]) {
		j++
	}
	for j < len(raw) {
		for j < len(raw) && isHTMLSpace(raw[j]) {
			j++
		}
		if j >= len(raw) || raw[j] == '>' {
			break
		}
		if raw[j] == '/' {
			j++
			continue
		}
		keyStart := j
		for j < len(raw) && !isHTMLSpace(raw[j]) && raw[j] != '=' && raw[j] != '>' && raw[j] != '/' {
			j++
		}
		key := strings.ToLower(raw[keyStart:j])
		if key == "" {
			j++
			continue
		}
		for j < len(raw) && isHTMLSpace(raw[j]) {
			j++
		}
		val := ""
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isHTMLSpace(raw[j]) {
				j++
			}
			if j < len(raw) && (raw[j] == '"' || raw[j] == '\'') {
				quote := raw[j]
				j++
				valStart := j
				for j < len(raw) && raw[j] != quote {
					j++
				}
				val = raw[valStart:j]
				if j < len(raw) {
					j++ // closing quote
				}
			} else {
				valStart := j
				for j < len(raw) {
					if isHTMLSpace(raw[j]) || raw[j] == '>' {
						break
					}
					if raw[j] == '/' && j+1 < len(raw) && raw[j+1] == '>' {
						break
					}
					j++
				}
				val = raw[valStart:j]
			}
		}
		attrs = append(attrs, rawAttr{key: key, val: val})
	}
	return attrs
}
