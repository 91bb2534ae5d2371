package paint

import (
	"github.com/dpotapov/staticweb/canvas"
	"github.com/dpotapov/staticweb/layout"
)

// Paint renders root onto a freshly-initialized canvas of viewportWidth x
// viewportHeight: background initialization, then a depth-first walk
// filling rects, stroking borders and drawing text.
func Paint(root *layout.Box, viewportWidth, viewportHeight int) *canvas.Canvas {
	c := canvas.New(viewportWidth, viewportHeight)
	initBackground(c, root)
	paintBox(c, root)
	return c
}

// initBackground implements "Canvas initialization": the first <body> box
// (depth-first), else the root, else white.
func initBackground(c *canvas.Canvas, root *layout.Box) {
	if body := findFirstTag(root, "body"); body != nil {
		if color, ok := backgroundOf(body); ok {
			c.Fill(color)
			return
		}
	}
	if color, ok := backgroundOf(root); ok {
		c.Fill(color)
		return
	}
}

func backgroundOf(b *layout.Box) (canvas.RGB, bool) {
	if v, ok := b.Style["background-color"]; ok {
		if c, ok := ParseColor(v); ok {
			return c, true
		}
	}
	if v, ok := b.Style["background"]; ok {
		if c, ok := ParseColor(v); ok {
			return c, true
		}
	}
	return canvas.RGB{}, false
}

func findFirstTag(b *layout.Box, tag string) *layout.Box {
	if b.Tag == tag {
		return b
	}
	for _, c := range b.Children {
		if found := findFirstTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// paintBox implements "Paint order": a depth-first pre-order walk, skipping
// any subtree with no positive-area box anywhere in it.
func paintBox(c *canvas.Canvas, b *layout.Box) {
	if !hasPositiveArea(b) {
		return
	}
	if b.Width > 0 && b.Height > 0 {
		if bg, ok := backgroundOf(b); ok {
			c.FillRect(b.X, b.Y, b.Width, b.Height, bg)
		}

		borderWidth, hasBorder := parseBorderWidth(b.Style)
		if hasBorder && borderWidth > 0 {
			if borderColor, ok := ParseColor(b.Style["border-color"]); ok {
				thickness := borderWidth
				half := minInt(b.Width, b.Height) / 2
				if half < 1 {
					half = 1
				}
				if thickness > half {
					thickness = half
				}
				c.StrokeRect(b.X, b.Y, b.Width, b.Height, thickness, borderColor)
			}
		}

		if b.Tag == "#line" && b.Text != "" {
			inset := 1
			if hasBorder && borderWidth > inset {
				inset = borderWidth
			}
			textColor, ok := ParseColor(b.Style["color"])
			if !ok {
				textColor = canvas.RGB{R: 0, G: 0, B: 0}
			}
			drawText(c, b.X+inset+1, b.Y+inset+1, b.Text, textColor)
		}
	}

	for _, child := range b.Children {
		paintBox(c, child)
	}
}

func parseBorderWidth(style map[string]string) (int, bool) {
	v, ok := style["border-width"]
	if !ok {
		return 0, false
	}
	n, ok := parsePixelInt(v)
	if !ok {
		return 0, false
	}
	return n, true
}

func parsePixelInt(raw string) (int, bool) {
	s := raw
	if len(s) > 2 && s[len(s)-2:] == "px" {
		s = s[:len(s)-2]
	}
	var n int
	var any bool
	neg := false
	i := 0
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
		any = true
	}
	if !any {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func hasPositiveArea(b *layout.Box) bool {
	if b.Width > 0 && b.Height > 0 {
		return true
	}
	for _, c := range b.Children {
		if hasPositiveArea(c) {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// drawText renders s starting at (originX, originY) using the fixed 5x7
// glyph table, honoring \r (ignored) and \n (reset x, advance y by 8).
func drawText(c *canvas.Canvas, originX, originY int, s string, color canvas.RGB) {
	x, y := originX, originY
	for _, r := range s {
		switch r {
		case '\r':
			continue
		case '\n':
			x = originX
			y += glyphAdvanceY
			continue
		}
		bitmap := glyphFor(r)
		for row := 0; row < glyphHeight; row++ {
			bits := bitmap[row]
			for col := 0; col < glyphWidth; col++ {
				if bits&(1<<(glyphWidth-1-col)) != 0 {
					c.SetPixel(x+col, y+row, color)
				}
			}
		}
		x += glyphAdvanceX
	}
}
