package tetris

import "math/rand/v2"

// Color identifies the color of a locked cell. Zero means the cell is empty.
// It is an int so grid rows encode as JSON arrays of numbers.
type Color int

// Palette colors, in the order the pieces were historically drawn.
const (
	Empty Color = iota
	Cyan
	Blue
	Orange
	Yellow
	Green
	Purple
	Red
)

// NumColors is the number of non-empty palette entries.
const NumColors = 7

// RGB is an 8-bit per channel color for renderers.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var paletteRGB = [NumColors + 1]RGB{
	Empty:  {0, 0, 0},
	Cyan:   {0, 255, 255},
	Blue:   {0, 0, 255},
	Orange: {255, 165, 0},
	Yellow: {255, 255, 0},
	Green:  {0, 255, 0},
	Purple: {128, 0, 128},
	Red:    {255, 0, 0},
}

var colorNames = [NumColors + 1]string{"empty", "cyan", "blue", "orange", "yellow", "green", "purple", "red"}

// Valid reports whether c is a palette color (including Empty).
func (c Color) Valid() bool {
	return c >= Empty && c <= NumColors
}

// RGB returns the display color.
func (c Color) RGB() RGB {
	if !c.Valid() {
		return paletteRGB[Empty]
	}
	return paletteRGB[c]
}

// String returns the color name.
func (c Color) String() string {
	if !c.Valid() {
		return "invalid"
	}
	return colorNames[c]
}

// ColorByName returns the palette color with the given name.
func ColorByName(name string) (Color, bool) {
	for i, n := range colorNames {
		if i > 0 && n == name {
			return Color(i), true
		}
	}
	return Empty, false
}

// RandomColor picks a non-empty palette color.
func RandomColor(r *rand.Rand) Color {
	return Color(r.IntN(NumColors) + 1)
}

// Palette returns the display colors indexed by Color.
func Palette() []RGB {
	return append([]RGB(nil), paletteRGB[:]...)
}
