package layout

import "strings"

// Layout performs the full layout pass: block layout for element boxes,
// greedy text wrapping for text boxes, recursively, then forces the root's
// position to the origin and its width to the viewport.
func Layout(root *Box, viewportWidth int) {
	layoutBox(root, 0, 0, viewportWidth)
	root.X, root.Y, root.Width = 0, 0, viewportWidth
}

// layoutBox lays out b as if it were a block box positioned at (x, y) with
// the given available width, recursing into children. Text boxes delegate
// to layoutText.
func layoutBox(b *Box, x, y, availWidth int) {
	b.X, b.Y, b.Width = x, y, availWidth

	if b.Tag == "" {
		layoutText(b, x, y, availWidth)
		return
	}

	pad := padding(b.Style)
	contentX := x + pad.Left
	contentY := y
	contentWidth := max0(availWidth - pad.Left - pad.Right)

	cursorY := contentY
	for _, child := range b.Children {
		m := margin(child.Style)
		childWidth := max0(contentWidth - m.Left - m.Right)
		layoutBox(child, contentX+m.Left, cursorY+m.Top, childWidth)
		cursorY = child.Y + child.Height + m.Bottom
	}
	contentHeight := max0(cursorY - contentY)

	if v, ok := b.Style["height"]; ok {
		if n, ok := parseLength(v, contentHeight); ok {
			contentHeight = n
		}
	}
	if v, ok := b.Style["min-height"]; ok {
		if n, ok := parseLength(v, contentHeight); ok && contentHeight < n {
			contentHeight = n
		}
	}
	if v, ok := b.Style["max-height"]; ok {
		if n, ok := parseLength(v, contentHeight); ok && contentHeight > n {
			contentHeight = n
		}
	}

	b.Height = pad.Top + contentHeight + pad.Bottom

	if v, ok := b.Style["width"]; ok {
		if n, ok := parseLength(v, b.Width); ok {
			b.Width = n
		}
	}
	if v, ok := b.Style["min-width"]; ok {
		if n, ok := parseLength(v, -1); ok && n >= 0 && b.Width < n {
			b.Width = n
		}
	}
	if v, ok := b.Style["max-width"]; ok {
		if n, ok := parseLength(v, -1); ok && n >= 0 && b.Width > n {
			b.Width = n
		}
	}
}

const (
	defaultFontSize   = 16
	fallbackCharWidth = 1
)

// layoutText applies text-transform, wraps the text into #line child
// boxes, and sets b's own box from the resulting line count.
func layoutText(b *Box, x, y, contentWidth int) {
	style := parentStyleOf(b)
	text := applyTextTransform(b.Text, style["text-transform"])

	fontSize, _ := parseLength(style["font-size"], defaultFontSize)
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	lineHeight, ok := parseLength(style["line-height"], 0)
	if !ok || lineHeight <= 0 {
		lineHeight = int(roundHalfUp(float64(fontSize) * 1.2))
	}
	charWidth := fontSize / 2
	if charWidth < 1 {
		charWidth = 1
	}
	maxCharsPerLine := contentWidth / charWidth
	if maxCharsPerLine < 1 {
		maxCharsPerLine = 1
	}

	var lines []string
	for _, para := range splitParagraphs(text) {
		lines = append(lines, wrapParagraph(para, maxCharsPerLine)...)
	}

	align := strings.ToLower(strings.TrimSpace(style["text-align"]))
	pad := padding(b.Style)
	cursorY := y
	for _, line := range lines {
		w := len(line) * charWidth
		if w > contentWidth {
			w = contentWidth
		}
		var offset int
		switch align {
		case "center":
			offset = (contentWidth - w) / 2
		case "right", "end":
			offset = contentWidth - w
		default:
			offset = 0
		}
		lineBox := &Box{Tag: "#line", Text: line, X: x + offset, Y: cursorY, Width: w, Height: lineHeight}
		b.Children = append(b.Children, lineBox)
		cursorY += lineHeight
	}

	contentHeight := len(lines) * lineHeight
	if v, ok := b.Style["height"]; ok {
		if n, ok := parseLength(v, contentHeight); ok {
			contentHeight = n
		}
	}
	if v, ok := b.Style["min-height"]; ok {
		if n, ok := parseLength(v, contentHeight); ok && contentHeight < n {
			contentHeight = n
		}
	}
	if v, ok := b.Style["max-height"]; ok {
		if n, ok := parseLength(v, contentHeight); ok && contentHeight > n {
			contentHeight = n
		}
	}
	b.Height = pad.Top + contentHeight + pad.Bottom
	if v, ok := b.Style["width"]; ok {
		if n, ok := parseLength(v, b.Width); ok {
			b.Width = n
		}
	}
}

// parentStyleOf is a placeholder hook: text nodes carry no style of their
// own in the DOM, so text layout reads the containing element's computed
// style, copied onto the text box itself at build time.
func parentStyleOf(b *Box) map[string]string {
	if b.Style != nil {
		return b.Style
	}
	return map[string]string{}
}

func applyTextTransform(text, transform string) string {
	switch strings.ToLower(strings.TrimSpace(transform)) {
	case "uppercase":
		return strings.ToUpper(text)
	case "lowercase":
		return strings.ToLower(text)
	case "capitalize":
		return capitalize(text)
	default:
		return text
	}
}

// capitalize uppercases the first alphabetic character following any
// non-alphanumeric run.
func capitalize(s string) string {
	rs := []rune(s)
	atStart := true
	for i, r := range rs {
		if isAlphaNum(r) {
			if atStart && isAlpha(r) {
				rs[i] = toUpper(r)
			}
			atStart = false
		} else {
			atStart = true
		}
	}
	return string(rs)
}

func isAlpha(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isAlphaNum(r rune) bool {
	return isAlpha(r) || r >= '0' && r <= '9'
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

// splitParagraphs splits on \r?\n, dropping \r; an empty input becomes one
// empty paragraph.
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "")
	return strings.Split(normalized, "\n")
}

// wrapParagraph greedily wraps one paragraph's words at maxChars, hard
// breaking any word that alone exceeds the budget.
func wrapParagraph(para string, maxChars int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	var cur strings.Builder
	for _, word := range words {
		for len(word) > maxChars {
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			lines = append(lines, word[:maxChars])
			word = word[maxChars:]
		}
		if word == "" {
			continue
		}
		candidate := word
		if cur.Len() > 0 {
			candidate = cur.String() + " " + word
		}
		if len(candidate) > maxChars && cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(word)
			continue
		}
		cur.Reset()
		cur.WriteString(candidate)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func roundHalfUp(f float64) float64 {
	if f < 0 {
		return -roundHalfUp(-f)
	}
	return float64(int64(f + 0.5))
}
