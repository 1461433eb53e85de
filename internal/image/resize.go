package image

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ScaleToFit returns the uniform scale factor that fits a w x h image inside
// maxW x maxH.
func ScaleToFit(w, h, maxW, maxH int) float64 {
	return math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
}

// ResizeToMinSide resizes src so its shorter side equals minSide, preserving
// aspect ratio.
func ResizeToMinSide(src gocv.Mat, minSide int) gocv.Mat {
	w, h := src.Cols(), src.Rows()
	scale := float64(minSide) / float64(min(w, h))
	newW, newH := scaledSide(w, scale), scaledSide(h, scale)
	if w <= h {
		newW = minSide
	} else {
		newH = minSide
	}
	return resizeTo(src, newW, newH)
}

// ResizeToMaxSide resizes src so its longer side equals maxSide, preserving
// aspect ratio.
func ResizeToMaxSide(src gocv.Mat, maxSide int) gocv.Mat {
	w, h := src.Cols(), src.Rows()
	scale := float64(maxSide) / float64(max(w, h))
	newW, newH := scaledSide(w, scale), scaledSide(h, scale)
	// Truncation may leave the long side one pixel short.
	if w >= h {
		newW = maxSide
	} else {
		newH = maxSide
	}
	return resizeTo(src, newW, newH)
}

func scaledSide(n int, scale float64) int {
	return max(1, int(float64(n)*scale))
}

func resizeTo(src gocv.Mat, w, h int) gocv.Mat {
	dst := gocv.NewMat()
	if w == src.Cols() && h == src.Rows() {
		src.CopyTo(&dst)
		return dst
	}
	gocv.Resize(src, &dst, image.Point{X: w, Y: h}, 0, 0, gocv.InterpolationLinear)
	return dst
}
