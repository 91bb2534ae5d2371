// Package script implements the restricted DOM-mutation statement
// grammar: a fixed set of `document.*`/`console.log` shapes, parsed by a
// small hand-written recursive-descent dispatcher keyed off the first
// token. The grammar is closed and fixed, so there are no dynamic dispatch
// tables and no general expression evaluator behind it.
package script

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/camelcase"

	"github.com/dpotapov/staticweb/cascade"
	"github.com/dpotapov/staticweb/dom"
	"github.com/dpotapov/staticweb/domquery"
)

// ShapeError marks a statement that did not match any recognized grammar
// shape.
type ShapeError struct {
	Statement string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unsupported shape: %s", e.Statement)
}

// Run executes source against doc in statement order, writing console.log
// output to stderr. It returns one error per failed statement (unsupported
// shape or runtime failure); execution continues after a failure.
func Run(doc *dom.Node, source string, stderr io.Writer) []error {
	var errs []error
	for i, raw := range splitStatements(source) {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if err := execStatement(doc, stmt, stderr); err != nil {
			if _, ok := err.(*ShapeError); ok {
				errs = append(errs, fmt.Errorf("Unsupported script statement %d: %s", i+1, stmt))
			} else {
				errs = append(errs, fmt.Errorf("script statement %d (%s): %w", i+1, stmt, err))
			}
		}
	}
	return errs
}

// splitStatements splits source on top-level ';' or newline, honoring
// single/double-quoted strings with backslash escapes.
func splitStatements(source string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(source); i++ {
		c := source[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == '\\' && i+1 < len(source) {
				i++
				cur.WriteByte(source[i])
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			cur.WriteByte(c)
			continue
		}
		if c == ';' || c == '\n' {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func execStatement(doc *dom.Node, stmt string, stderr io.Writer) error {
	switch {
	case strings.HasPrefix(stmt, "document.title"):
		return execTitle(doc, strings.TrimPrefix(stmt, "document.title"))
	case strings.HasPrefix(stmt, "document.body"):
		body := findBody(doc)
		if body == nil {
			return fmt.Errorf("no <body> element")
		}
		return execElementOp(body, strings.TrimPrefix(stmt, "document.body"))
	case strings.HasPrefix(stmt, "document.getElementById("):
		return execGetByID(doc, stmt)
	case strings.HasPrefix(stmt, "document.querySelector("):
		return execQuerySelector(doc, stmt)
	case strings.HasPrefix(stmt, "console.log("):
		return execConsoleLog(stmt, stderr)
	default:
		return &ShapeError{Statement: stmt}
	}
}

func findBody(doc *dom.Node) *dom.Node {
	tags := domquery.ByTag(doc, "body")
	if len(tags) == 0 {
		return nil
	}
	return tags[0]
}

func findOrCreateHTML(doc *dom.Node) *dom.Node {
	if htmls := domquery.ByTag(doc, "html"); len(htmls) > 0 {
		return htmls[0]
	}
	el := dom.NewElement("html")
	doc.AppendChild(el)
	return el
}

func findOrCreateHead(doc *dom.Node) *dom.Node {
	if heads := domquery.ByTag(doc, "head"); len(heads) > 0 {
		return heads[0]
	}
	html := findOrCreateHTML(doc)
	el := dom.NewElement("head")
	html.AppendChild(el)
	return el
}

// execTitle implements `document.title = "…"`.
func execTitle(doc *dom.Node, rest string) error {
	val, ok := parseAssignmentValue(rest)
	if !ok {
		return &ShapeError{Statement: "document.title" + rest}
	}
	head := findOrCreateHead(doc)
	var title *dom.Node
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Kind == dom.Element && c.Tag == "title" {
			title = c
			break
		}
	}
	if title == nil {
		title = dom.NewElement("title")
		head.AppendChild(title)
	}
	title.ReplaceChildrenWithText(val)
	return nil
}

// validIDRef matches the alphanumeric/_/- charset a bare `#id`
// querySelector argument must use.
func validIDRef(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}

func execGetByID(doc *dom.Node, stmt string) error {
	arg, rest, ok := parseCallArg(stmt, "document.getElementById(")
	if !ok {
		return &ShapeError{Statement: stmt}
	}
	el := domquery.ByID(doc, arg)
	if el == nil {
		return fmt.Errorf("no element with id %q", arg)
	}
	return execElementOp(el, rest)
}

func execQuerySelector(doc *dom.Node, stmt string) error {
	arg, rest, ok := parseCallArg(stmt, "document.querySelector(")
	if !ok {
		return &ShapeError{Statement: stmt}
	}
	if !strings.HasPrefix(arg, "#") || !validIDRef(arg[1:]) {
		return &ShapeError{Statement: stmt}
	}
	el := domquery.ByID(doc, arg[1:])
	if el == nil {
		return fmt.Errorf("no element matching %q", arg)
	}
	return execElementOp(el, rest)
}

// parseCallArg parses `prefix"value").<rest...>` forms: a single quoted
// string literal argument, a closing paren, then the remainder of the
// statement (the `.<prop>` chain).
func parseCallArg(stmt, prefix string) (arg string, rest string, ok bool) {
	if !strings.HasPrefix(stmt, prefix) {
		return "", "", false
	}
	i := len(prefix)
	for i < len(stmt) && isSpace(stmt[i]) {
		i++
	}
	val, next, ok := scanStringLiteral(stmt, i)
	if !ok {
		return "", "", false
	}
	i = next
	for i < len(stmt) && isSpace(stmt[i]) {
		i++
	}
	if i >= len(stmt) || stmt[i] != ')' {
		return "", "", false
	}
	i++
	return val, stmt[i:], true
}

// execConsoleLog implements `console.log("…")`.
func execConsoleLog(stmt string, stderr io.Writer) error {
	arg, rest, ok := parseCallArg(stmt, "console.log(")
	if !ok || strings.TrimSpace(rest) != "" {
		return &ShapeError{Statement: stmt}
	}
	fmt.Fprintln(stderr, arg)
	return nil
}

// execElementOp dispatches one `.<prop>` operation against el.
func execElementOp(el *dom.Node, op string) error {
	switch {
	case strings.HasPrefix(op, ".id"):
		val, ok := parseAssignmentValue(strings.TrimPrefix(op, ".id"))
		if !ok {
			return &ShapeError{Statement: op}
		}
		el.SetAttribute("id", val)
		return nil
	case strings.HasPrefix(op, ".className"):
		val, ok := parseAssignmentValue(strings.TrimPrefix(op, ".className"))
		if !ok {
			return &ShapeError{Statement: op}
		}
		el.SetAttribute("class", val)
		return nil
	case strings.HasPrefix(op, ".innerText"):
		val, ok := parseAssignmentValue(strings.TrimPrefix(op, ".innerText"))
		if !ok {
			return &ShapeError{Statement: op}
		}
		el.ReplaceChildrenWithText(val)
		return nil
	case strings.HasPrefix(op, ".textContent"):
		val, ok := parseAssignmentValue(strings.TrimPrefix(op, ".textContent"))
		if !ok {
			return &ShapeError{Statement: op}
		}
		el.ReplaceChildrenWithText(val)
		return nil
	case strings.HasPrefix(op, ".style."):
		return execStylePropertyAssign(el, op[len(".style."):])
	case strings.HasPrefix(op, ".style"):
		val, ok := parseAssignmentValue(strings.TrimPrefix(op, ".style"))
		if !ok {
			return &ShapeError{Statement: op}
		}
		m := cascade.ParseInlineStyle(val)
		el.SetAttribute("style", cascade.SerializeInlineStyle(m))
		return nil
	case strings.HasPrefix(op, ".setAttribute("):
		return execSetAttribute(el, op)
	case strings.HasPrefix(op, ".removeAttribute("):
		return execRemoveAttribute(el, op)
	default:
		return &ShapeError{Statement: op}
	}
}

// explicitStyleProps maps a camelCase identifier directly to its canonical
// CSS property name, short-circuiting the general kebab-case transform.
var explicitStyleProps = map[string]string{
	"background":      "background",
	"backgroundColor": "background-color",
	"border":          "border",
	"borderColor":     "border-color",
	"borderWidth":     "border-width",
	"borderStyle":     "border-style",
	"color":           "color",
}

func execStylePropertyAssign(el *dom.Node, rest string) error {
	dotIdx := strings.IndexAny(rest, " =")
	if dotIdx < 0 {
		return &ShapeError{Statement: ".style." + rest}
	}
	propIdent := rest[:dotIdx]
	val, ok := parseAssignmentValue(rest[dotIdx:])
	if !ok {
		return &ShapeError{Statement: ".style." + rest}
	}
	prop := normalizeStyleProperty(propIdent)

	existing, _ := el.Attribute("style")
	m := cascade.ParseInlineStyle(existing)
	m.Set(prop, val)
	el.SetAttribute("style", cascade.SerializeInlineStyle(m))
	return nil
}

// normalizeStyleProperty maps a .style.<identifier> property name to its
// canonical kebab-case CSS property: the explicit allow-list wins;
// otherwise camelCase is split via fatih/camelcase and re-joined with
// hyphens, lowercased.
func normalizeStyleProperty(ident string) string {
	if canonical, ok := explicitStyleProps[ident]; ok {
		return canonical
	}
	parts := camelcase.Split(ident)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "-")
}

func execSetAttribute(el *dom.Node, op string) error {
	args, rest, ok := parseTwoStringArgs(op, ".setAttribute(")
	if !ok || strings.TrimSpace(rest) != "" {
		return &ShapeError{Statement: op}
	}
	name, val := args[0], args[1]
	if strings.ToLower(name) == "style" {
		m := cascade.ParseInlineStyle(val)
		el.SetAttribute("style", cascade.SerializeInlineStyle(m))
		return nil
	}
	el.SetAttribute(strings.ToLower(name), val)
	return nil
}

func execRemoveAttribute(el *dom.Node, op string) error {
	arg, rest, ok := parseCallArg(op, ".removeAttribute(")
	if !ok || strings.TrimSpace(rest) != "" {
		return &ShapeError{Statement: op}
	}
	el.RemoveAttribute(strings.ToLower(arg))
	return nil
}

func parseTwoStringArgs(stmt, prefix string) ([2]string, string, bool) {
	if !strings.HasPrefix(stmt, prefix) {
		return [2]string{}, "", false
	}
	i := len(prefix)
	for i < len(stmt) && isSpace(stmt[i]) {
		i++
	}
	a1, next, ok := scanStringLiteral(stmt, i)
	if !ok {
		return [2]string{}, "", false
	}
	i = next
	for i < len(stmt) && isSpace(stmt[i]) {
		i++
	}
	if i >= len(stmt) || stmt[i] != ',' {
		return [2]string{}, "", false
	}
	i++
	for i < len(stmt) && isSpace(stmt[i]) {
		i++
	}
	a2, next2, ok := scanStringLiteral(stmt, i)
	if !ok {
		return [2]string{}, "", false
	}
	i = next2
	for i < len(stmt) && isSpace(stmt[i]) {
		i++
	}
	if i >= len(stmt) || stmt[i] != ')' {
		return [2]string{}, "", false
	}
	i++
	return [2]string{a1, a2}, stmt[i:], true
}

// parseAssignmentValue parses `<ws>="<ws><literal>` and requires nothing but
// trailing whitespace afterward.
func parseAssignmentValue(rest string) (string, bool) {
	i := 0
	for i < len(rest) && isSpace(rest[i]) {
		i++
	}
	if i >= len(rest) || rest[i] != '=' {
		return "", false
	}
	i++
	for i < len(rest) && isSpace(rest[i]) {
		i++
	}
	val, next, ok := scanStringLiteral(rest, i)
	if !ok {
		return "", false
	}
	if strings.TrimSpace(rest[next:]) != "" {
		return "", false
	}
	return val, true
}

// scanStringLiteral scans a quoted string literal starting at s[i],
// honoring \" \\ escapes and treating a backslash immediately before a
// literal newline as a line continuation (dropped from the value). It
// returns the decoded value and the index just past the closing quote.
func scanStringLiteral(s string, i int) (string, int, bool) {
	if i >= len(s) || (s[i] != '"' && s[i] != '\'') {
		return "", 0, false
	}
	quote := s[i]
	i++
	var b strings.Builder
	for i < len(s) {
		c := s[i]
		if c == quote {
			return b.String(), i + 1, true
		}
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			switch next {
			case '\n':
				// Line continuation: drop both the backslash and the newline.
			case '"', '\\', '\'':
				b.WriteByte(next)
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
