// Package colorutil provides the overlay colors shared by annotation and the
// debug tools.
package colorutil

import "image/color"

// Overlay colors. gocv converts color.RGBA to BGR scalars itself.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Gray returns an opaque gray of intensity v, usable as a fill for
// single-channel Mats.
func Gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
