// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromImageRect converts a Go image rectangle (as returned by gocv) to a RectInt.
func FromImageRect(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ImageRect returns the rectangle in image.Rectangle form for gocv Region calls.
func (r RectInt) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns width*height.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// AspectRatio returns width/height, or 0 for a degenerate rectangle.
func (r RectInt) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// AspectDistance returns how far the aspect ratio is from target.
func (r RectInt) AspectDistance(target float64) float64 {
	return math.Abs(r.AspectRatio() - target)
}

// Clamp intersects the rectangle with a w x h image.
func (r RectInt) Clamp(w, h int) RectInt {
	return FromImageRect(r.ImageRect().Intersect(image.Rect(0, 0, w, h)))
}
