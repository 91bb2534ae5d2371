// Package paint implements the painter: color parsing, canvas
// initialization, paint-order rectangle/border/text drawing, a fixed 5x7
// ASCII glyph table, and the alternate shell/text transcript renderer. It
// stays on canvas's rectangle fills rather than a general 2D graphics
// library; the fixed glyph table and color grammar leave nothing for one
// to do (see DESIGN.md).
package paint

import (
	"math"
	"strconv"
	"strings"

	"github.com/dpotapov/staticweb/canvas"
)

var namedColors = map[string]canvas.RGB{
	"black":       {R: 0, G: 0, B: 0},
	"white":       {R: 255, G: 255, B: 255},
	"red":         {R: 255, G: 0, B: 0},
	"green":       {R: 0, G: 128, B: 0},
	"lime":        {R: 0, G: 255, B: 0},
	"blue":        {R: 0, G: 0, B: 255},
	"navy":        {R: 0, G: 0, B: 128},
	"teal":        {R: 0, G: 128, B: 128},
	"olive":       {R: 128, G: 128, B: 0},
	"maroon":      {R: 128, G: 0, B: 0},
	"orange":      {R: 255, G: 165, B: 0},
	"gold":        {R: 255, G: 215, B: 0},
	"yellow":      {R: 255, G: 255, B: 0},
	"cyan":        {R: 0, G: 255, B: 255},
	"aqua":        {R: 0, G: 255, B: 255},
	"magenta":     {R: 255, G: 0, B: 255},
	"fuchsia":     {R: 255, G: 0, B: 255},
	"gray":        {R: 128, G: 128, B: 128},
	"grey":        {R: 128, G: 128, B: 128},
	"silver":      {R: 192, G: 192, B: 192},
	"purple":      {R: 128, G: 0, B: 128},
	"pink":        {R: 255, G: 192, B: 203},
	"brown":       {R: 165, G: 42, B: 42},
	"indigo":      {R: 75, G: 0, B: 130},
	"violet":      {R: 238, G: 130, B: 238},
	"salmon":      {R: 250, G: 128, B: 114},
	"coral":       {R: 255, G: 127, B: 80},
	"khaki":       {R: 240, G: 230, B: 140},
	"lavender":    {R: 230, G: 230, B: 250},
	"beige":       {R: 245, G: 245, B: 220},
	"ivory":       {R: 255, G: 255, B: 240},
	"turquoise":   {R: 64, G: 224, B: 208},
	"tan":         {R: 210, G: 180, B: 140},
	"chocolate":   {R: 210, G: 105, B: 30},
	"crimson":     {R: 220, G: 20, B: 60},
	"plum":        {R: 221, G: 160, B: 221},
	"orchid":      {R: 218, G: 112, B: 214},
	"skyblue":     {R: 135, G: 206, B: 235},
	"steelblue":   {R: 70, G: 130, B: 180},
	"slategray":   {R: 112, G: 128, B: 144},
	"darkgray":    {R: 169, G: 169, B: 169},
	"lightgray":   {R: 211, G: 211, B: 211},
	"transparent": {R: 255, G: 255, B: 255},
}

// ParseColor parses a CSS color (named, #hex, rgb()/rgba(), hsl()/hsla())
// against an opaque white backdrop (the pre-initialized canvas). It returns
// false when raw does not match any recognized form.
func ParseColor(raw string) (canvas.RGB, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return canvas.RGB{}, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")") {
		return parseFunctional(s[len("rgba("):len(s)-1], true)
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		return parseFunctional(s[len("rgb("):len(s)-1], false)
	}
	if strings.HasPrefix(s, "hsla(") && strings.HasSuffix(s, ")") {
		return parseHSLFunctional(s[len("hsla("):len(s)-1], true)
	}
	if strings.HasPrefix(s, "hsl(") && strings.HasSuffix(s, ")") {
		return parseHSLFunctional(s[len("hsl("):len(s)-1], false)
	}
	return canvas.RGB{}, false
}

func parseHex(hex string) (canvas.RGB, bool) {
	expand := func(c byte) (byte, byte) { return c, c }
	switch len(hex) {
	case 3, 4:
		r1, r2 := expand(hex[0])
		g1, g2 := expand(hex[1])
		b1, b2 := expand(hex[2])
		r, ok1 := parseHexByte(string([]byte{r1, r2}))
		g, ok2 := parseHexByte(string([]byte{g1, g2}))
		b, ok3 := parseHexByte(string([]byte{b1, b2}))
		if !ok1 || !ok2 || !ok3 {
			return canvas.RGB{}, false
		}
		if len(hex) == 4 {
			a1, a2 := expand(hex[3])
			a, ok4 := parseHexByte(string([]byte{a1, a2}))
			if !ok4 {
				return canvas.RGB{}, false
			}
			return compositeAlpha(r, g, b, float64(a)/255), true
		}
		return canvas.RGB{R: r, G: g, B: b}, true
	case 6, 8:
		r, ok1 := parseHexByte(hex[0:2])
		g, ok2 := parseHexByte(hex[2:4])
		b, ok3 := parseHexByte(hex[4:6])
		if !ok1 || !ok2 || !ok3 {
			return canvas.RGB{}, false
		}
		if len(hex) == 8 {
			a, ok4 := parseHexByte(hex[6:8])
			if !ok4 {
				return canvas.RGB{}, false
			}
			return compositeAlpha(r, g, b, float64(a)/255), true
		}
		return canvas.RGB{R: r, G: g, B: b}, true
	default:
		return canvas.RGB{}, false
	}
}

func parseHexByte(s string) (byte, bool) {
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}

// compositeAlpha composites (r,g,b) at alpha over opaque white, producing
// a final opaque triple.
func compositeAlpha(r, g, b byte, alpha float64) canvas.RGB {
	if alpha >= 1 {
		return canvas.RGB{R: r, G: g, B: b}
	}
	if alpha < 0 {
		alpha = 0
	}
	blend := func(c byte) uint8 {
		v := float64(c)*alpha + 255*(1-alpha)
		return clampByte(v)
	}
	return canvas.RGB{R: blend(r), G: blend(g), B: blend(b)}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// parseFunctional parses `r,g,b[,a]` channel lists for rgb()/rgba(), each
// channel an integer 0-255 or a percentage.
func parseFunctional(body string, hasAlpha bool) (canvas.RGB, bool) {
	parts := splitCommaArgs(body)
	want := 3
	if hasAlpha {
		want = 4
	}
	if len(parts) != want {
		return canvas.RGB{}, false
	}
	r, ok1 := parseChannel(parts[0])
	g, ok2 := parseChannel(parts[1])
	b, ok3 := parseChannel(parts[2])
	if !ok1 || !ok2 || !ok3 {
		return canvas.RGB{}, false
	}
	alpha := 1.0
	if hasAlpha {
		a, ok := parseAlphaChannel(parts[3])
		if !ok {
			return canvas.RGB{}, false
		}
		alpha = a
	}
	return compositeAlpha(r, g, b, alpha), true
}

func parseChannel(s string) (byte, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clampByte(f / 100 * 255), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clampByte(f), true
}

func parseAlphaChannel(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return f / 100, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseHSLFunctional parses `h,s%,l%[,a]` for hsl()/hsla(), converting via
// the standard HSL-to-RGB formula.
func parseHSLFunctional(body string, hasAlpha bool) (canvas.RGB, bool) {
	parts := splitCommaArgs(body)
	want := 3
	if hasAlpha {
		want = 4
	}
	if len(parts) != want {
		return canvas.RGB{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return canvas.RGB{}, false
	}
	s, ok1 := parsePercent(parts[1])
	l, ok2 := parsePercent(parts[2])
	if !ok1 || !ok2 {
		return canvas.RGB{}, false
	}
	alpha := 1.0
	if hasAlpha {
		a, ok := parseAlphaChannel(parts[3])
		if !ok {
			return canvas.RGB{}, false
		}
		alpha = a
	}
	r, g, b := hslToRGB(h, s, l)
	return compositeAlpha(r, g, b, alpha), true
}

func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return f / 100, true
}

func hslToRGB(h, s, l float64) (byte, byte, byte) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r1, g1, b1 float64
	switch {
	case h < 60:
		r1, g1, b1 = c, x, 0
	case h < 120:
		r1, g1, b1 = x, c, 0
	case h < 180:
		r1, g1, b1 = 0, c, x
	case h < 240:
		r1, g1, b1 = 0, x, c
	case h < 300:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	return clampByte((r1 + m) * 255), clampByte((g1 + m) * 255), clampByte((b1 + m) * 255)
}

// splitCommaArgs splits a comma-separated argument list, trimming
// whitespace around each field.
func splitCommaArgs(s string) []string {
	fields := strings.Split(s, ",")
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
