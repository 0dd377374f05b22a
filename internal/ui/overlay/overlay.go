// Package overlay renders floating content on top of background views
// without clearing the screen.
package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Position specifies where to place the overlay content.
type Position int

const (
	// Center places the overlay in the center of the viewport.
	Center Position = iota
	// Top places the overlay at the top center.
	Top
	// Bottom places the overlay at the bottom center.
	Bottom
)

// Config controls overlay rendering.
type Config struct {
	// Width and Height are the full viewport dimensions.
	Width  int
	Height int
	// Position selects vertical placement; horizontal is always centered.
	Position Position
	// PadY keeps the overlay off the top or bottom edge.
	PadY int
}

// Place composites fg over bg. Splicing is ANSI-aware so styling on both
// sides survives.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	startX, startY := origin(cfg, widest(fgLines), len(fgLines))

	for i, fgLine := range fgLines {
		y := startY + i
		if y >= len(bgLines) {
			break
		}
		bgLines[y] = splice(bgLines[y], fgLine, startX)
	}
	return strings.Join(bgLines, "\n")
}

// splice replaces the cells of line from x onward with fg, keeping any
// background content to the right of the overlay.
func splice(line, fg string, x int) string {
	left := ansi.Truncate(line, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}

	end := x + ansi.StringWidth(fg)
	var right string
	if end < ansi.StringWidth(line) {
		// TruncateLeft drops cells from the left, keeping the right side.
		right = ansi.TruncateLeft(line, end, "")
	}
	return left + fg + right
}

func origin(cfg Config, fgWidth, fgHeight int) (x, y int) {
	x = (cfg.Width - fgWidth) / 2
	switch cfg.Position {
	case Top:
		y = cfg.PadY
	case Bottom:
		y = cfg.Height - fgHeight - cfg.PadY
	default:
		y = (cfg.Height - fgHeight) / 2
	}
	return max(x, 0), max(y, 0)
}

func widest(lines []string) int {
	w := 0
	for _, line := range lines {
		if lw := ansi.StringWidth(line); lw > w {
			w = lw
		}
	}
	return w
}
