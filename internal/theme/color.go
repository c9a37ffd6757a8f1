package theme

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// namedColors covers the names theme descriptions commonly use
var namedColors = map[string]string{
	"white":   "#ffffff",
	"black":   "#000000",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"red":     "#ff0000",
	"green":   "#008000",
	"lime":    "#00ff00",
	"blue":    "#0000ff",
	"navy":    "#000080",
	"yellow":  "#ffff00",
	"gold":    "#ffd700",
	"orange":  "#ffa500",
	"cyan":    "#00ffff",
	"teal":    "#008080",
	"magenta": "#ff00ff",
	"purple":  "#800080",
	"violet":  "#ee82ee",
	"pink":    "#ffc0cb",
}

// ParseColor accepts "#rgb", "#rrggbb" or a basic color name
func ParseColor(s string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[v]; ok {
		v = hex
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// FormatColor renders c as "#rrggbb", dropping alpha
func FormatColor(c color.RGBA) string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

func parsePalette(names []string) ([]color.RGBA, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	out := make([]color.RGBA, 0, len(names))
	for _, n := range names {
		c, err := ParseColor(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func formatPalette(colors []color.RGBA) []string {
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = FormatColor(c)
	}
	return out
}
