package report

import (
	"image/color"
	"strconv"
	"strings"
)

// Palette is the fixed categorical palette, cycled by column index.
var Palette = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
	"#ffff33", "#a65628", "#f781bf", "#999999", "#66c2a5",
	"#fc8d62", "#8da0cb", "#e78ac3", "#a6d854", "#ffd92f",
}

// OtherColor is used for the aggregated "Other" bucket.
const OtherColor = "#000000"

// PaletteHex returns the palette entry for index i, cycling.
func PaletteHex(i int) string {
	return Palette[i%len(Palette)]
}

// PaletteColor returns the palette entry for index i as a color.
func PaletteColor(i int) color.Color {
	return hexColor(PaletteHex(i))
}

// hexColor parses "#rrggbb". Malformed input yields black.
func hexColor(hex string) color.RGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
