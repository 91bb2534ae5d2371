// Package canvas implements the pixel buffer and PPM serialization the
// painter draws into: a pre-initialized white RGB raster with clipped
// rectangle fills and single-pixel plotting.
package canvas

import (
	"bufio"
	"fmt"
	"os"
)

// RGB is a single opaque color sample.
type RGB struct {
	R, G, B uint8
}

// Canvas is a fixed-size RGB raster, row-major, pre-filled white.
type Canvas struct {
	Width, Height int
	pixels        []RGB
}

// New returns a width×height canvas filled white. Zero or negative
// dimensions produce an empty canvas.
func New(width, height int) *Canvas {
	if width <= 0 || height <= 0 {
		return &Canvas{}
	}
	c := &Canvas{Width: width, Height: height, pixels: make([]RGB, width*height)}
	c.Fill(RGB{255, 255, 255})
	return c
}

// Fill sets every pixel to color.
func (c *Canvas) Fill(color RGB) {
	for i := range c.pixels {
		c.pixels[i] = color
	}
}

// SetPixel writes color at (x, y), silently discarding out-of-bounds
// writes.
func (c *Canvas) SetPixel(x, y int, color RGB) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}
	c.pixels[y*c.Width+x] = color
}

// At returns the pixel at (x, y), or the zero RGB if out of bounds.
func (c *Canvas) At(x, y int) RGB {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return RGB{}
	}
	return c.pixels[y*c.Width+x]
}

// FillRect fills the rectangle [x, x+w) x [y, y+h) with color, clipped to
// the canvas bounds. Non-positive w or h is a no-op.
func (c *Canvas) FillRect(x, y, w, h int, color RGB) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, c.Width), min(y+h, c.Height)
	for yy := y0; yy < y1; yy++ {
		row := yy * c.Width
		for xx := x0; xx < x1; xx++ {
			c.pixels[row+xx] = color
		}
	}
}

// StrokeRect draws a solid frame of the given thickness along all four
// edges of [x, x+w) x [y, y+h), clipped to the canvas.
func (c *Canvas) StrokeRect(x, y, w, h, thickness int, color RGB) {
	if thickness <= 0 {
		return
	}
	c.FillRect(x, y, w, thickness, color)
	c.FillRect(x, y+h-thickness, w, thickness, color)
	c.FillRect(x, y, thickness, h, color)
	c.FillRect(x+w-thickness, y, thickness, h, color)
}

// WritePPM writes c in binary PPM (P6) format to path: header
// "P6\n<W> <H>\n255\n" followed by raw RGB bytes. It reports false on
// empty dimensions, an empty path, or any open/write failure.
func (c *Canvas) WritePPM(path string) bool {
	if path == "" || c.Width <= 0 || c.Height <= 0 {
		return false
	}
	f, err := os.Create(path)
	if err != nil {
		return false
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", c.Width, c.Height); err != nil {
		return false
	}
	buf := make([]byte, 0, c.Width*3)
	for _, p := range c.pixels {
		buf = append(buf, p.R, p.G, p.B)
	}
	if _, err := w.Write(buf); err != nil {
		return false
	}
	return w.Flush() == nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
