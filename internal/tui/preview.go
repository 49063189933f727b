package tui

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RenderPreview draws img with upper half blocks, two pixel rows per
// terminal line, scaled to width columns.
func RenderPreview(img image.Image, width int) string {
	b := img.Bounds()
	if b.Empty() || width <= 0 {
		return ""
	}
	if width > b.Dx() {
		width = b.Dx()
	}
	height := max(b.Dy()*width/b.Dx(), 1)
	if height%2 == 1 {
		height++
	}

	small := imaging.Resize(img, width, height, imaging.Box)
	bg, _ := colorful.MakeColor(image.Black.C)

	var out strings.Builder
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := pixelColor(small, x, y, bg)
			bottom := pixelColor(small, x, y+1, bg)
			out.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Hex())).
				Background(lipgloss.Color(bottom.Hex())).
				Render("▀"))
		}
		if y+2 < height {
			out.WriteString("\n")
		}
	}
	return out.String()
}

// pixelColor falls back to bg for transparent or out-of-range pixels.
func pixelColor(img image.Image, x, y int, bg colorful.Color) colorful.Color {
	if !image.Pt(x, y).In(img.Bounds()) {
		return bg
	}
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return bg
	}
	return c.Clamped()
}
