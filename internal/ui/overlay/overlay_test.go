package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func background(width, height int) string {
	lines := make([]string, height)
	for i := range lines {
		lines[i] = strings.Repeat(".", width)
	}
	return strings.Join(lines, "\n")
}

func TestPlace_Center(t *testing.T) {
	bg := background(10, 5)
	out := Place(Config{Width: 10, Height: 5, Position: Center}, "XX", bg)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "....XX....", lines[2])
	assert.Equal(t, "..........", lines[0])
}

func TestPlace_Bottom(t *testing.T) {
	bg := background(10, 5)
	out := Place(Config{Width: 10, Height: 5, Position: Bottom, PadY: 1}, "XX", bg)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "....XX....", lines[3])
	assert.Equal(t, "..........", lines[4])
}

func TestPlace_Top(t *testing.T) {
	bg := background(10, 5)
	out := Place(Config{Width: 10, Height: 5, Position: Top, PadY: 0}, "XX", bg)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "....XX....", lines[0])
}

func TestPlace_MultiLineOverlay(t *testing.T) {
	bg := background(8, 4)
	out := Place(Config{Width: 8, Height: 4, Position: Center}, "AA\nBB", bg)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "...AA...", lines[1])
	assert.Equal(t, "...BB...", lines[2])
}

func TestPlace_PadsShortBackground(t *testing.T) {
	out := Place(Config{Width: 6, Height: 3, Position: Bottom}, "XX", "top")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "top", lines[0])
	assert.Equal(t, "  XX  ", lines[2])
}

func TestPlace_OverlayWiderThanViewport(t *testing.T) {
	bg := background(4, 3)
	out := Place(Config{Width: 4, Height: 3, Position: Center}, "WIDECONTENT", bg)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "WIDECONTENT", lines[1], "clamps to column zero instead of going negative")
}

func TestPlace_PreservesBackgroundStyling(t *testing.T) {
	styled := "\x1b[31m" + strings.Repeat("r", 10) + "\x1b[0m"
	bg := strings.Join([]string{styled, styled, styled}, "\n")

	out := Place(Config{Width: 10, Height: 3, Position: Center}, "XX", bg)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[1], "XX")
	assert.Contains(t, lines[0], "\x1b[31m")
}
