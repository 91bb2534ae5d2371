package paint

import (
	"strings"

	"github.com/dpotapov/staticweb/layout"
)

// RenderShellText renders a document-order text transcript of the layout
// tree, used as an alternate artifact to the PPM raster.
func RenderShellText(root *layout.Box) string {
	var lines []string
	var walk func(b *layout.Box, depth int)
	walk = func(b *layout.Box, depth int) {
		indent := strings.Repeat("  ", depth)
		switch {
		case b.Text != "":
			lines = append(lines, indent+b.Text)
		case b.Tag != "":
			lines = append(lines, indent+"<"+b.Tag+">")
		}
		for _, c := range b.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return strings.Join(lines, "\n")
}
