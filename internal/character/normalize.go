// Package character turns raw character crops into canonical fixed-size
// binary images suitable for feature extraction.
package character

import (
	"errors"
	"fmt"
	"math"

	plateimage "plate-reader/internal/image"
	"plate-reader/pkg/colorutil"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when Normalize receives an empty Mat.
var ErrEmptyImage = errors.New("empty character image")

// Params controls contrast stretching and cleanup of a character crop.
type Params struct {
	LowerPercentile  float64 // Cumulative fraction mapped to 0
	UpperPercentile  float64 // Cumulative fraction mapped to 255
	ThresholdOffset  float64 // Added to the Otsu threshold
	MinComponentArea int     // Smaller foreground blobs are erased
}

// DefaultParams returns the normalization settings used for training and
// inference alike.
func DefaultParams() Params {
	return Params{
		LowerPercentile:  0.05,
		UpperPercentile:  0.95,
		ThresholdOffset:  10,
		MinComponentArea: 3,
	}
}

// Normalizer converts raw character crops into canonical size x size images
// with pixel values in {0, 255}.
type Normalizer struct {
	params Params
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(params Params) *Normalizer {
	return &Normalizer{params: params}
}

// Normalize resizes, pads, stretches, binarizes and despeckles raw. The
// result is always size x size, single channel; the caller owns it.
func (n *Normalizer) Normalize(raw gocv.Mat, size int) (gocv.Mat, error) {
	if raw.Empty() {
		return gocv.NewMat(), ErrEmptyImage
	}
	if size <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid canonical size %d", size)
	}

	gray := plateimage.ToGray(raw)
	defer gray.Close()

	resized := plateimage.ResizeToMaxSide(gray, size)
	defer resized.Close()

	padded := PadToSquare(resized, size)
	defer padded.Close()

	stretched := StretchPercentile(padded, n.params.LowerPercentile, n.params.UpperPercentile)
	defer stretched.Close()

	binary := BinarizeOtsu(stretched, n.params.ThresholdOffset)
	defer binary.Close()

	return RemoveSmallComponents(binary, n.params.MinComponentArea), nil
}

// PadToSquare centers src on a size x size canvas. The border is filled with
// (2*min + mean)/3, a value close to the glyph background.
func PadToSquare(src gocv.Mat, size int) gocv.Mat {
	top := (size - src.Rows()) / 2
	bottom := size - src.Rows() - top
	left := (size - src.Cols()) / 2
	right := size - src.Cols() - left

	minVal, _, _, _ := gocv.MinMaxLoc(src)
	meanVal := src.Mean().Val1
	v := uint8(math.Round((2*float64(minVal) + meanVal) / 3))

	dst := gocv.NewMat()
	gocv.CopyMakeBorder(src, &dst, top, bottom, left, right, gocv.BorderConstant, colorutil.Gray(v))
	return dst
}

// StretchPercentile linearly maps the gray levels at the lower and upper
// cumulative percentiles to 0 and 255, clamping outside that band.
func StretchPercentile(src gocv.Mat, lower, upper float64) gocv.Mat {
	data := plateimage.GrayBytes(src)
	lo, hi := percentileBounds(data, lower, upper)
	if hi <= lo {
		return src.Clone()
	}

	scale := 255.0 / float64(hi-lo)
	var lut [256]uint8
	for i := range lut {
		v := math.Round((float64(i) - float64(lo)) * scale)
		lut[i] = uint8(math.Max(0, math.Min(255, v)))
	}

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = lut[b]
	}
	return plateimage.FromGrayBytes(src.Rows(), src.Cols(), out)
}

// percentileBounds returns the first gray level whose cumulative fraction
// reaches lower and the last whose cumulative fraction stays within upper.
func percentileBounds(data []byte, lower, upper float64) (lo, hi int) {
	var hist [256]float64
	for _, b := range data {
		hist[b]++
	}
	var cdf [256]float64
	cdf[0] = hist[0]
	for i := 1; i < 256; i++ {
		cdf[i] = cdf[i-1] + hist[i]
	}
	total := cdf[255]
	if total == 0 {
		return 0, 255
	}

	lo, hi = 0, 255
	for i := 0; i < 256; i++ {
		if cdf[i]/total >= lower {
			lo = i
			break
		}
	}
	for i := 255; i >= 0; i-- {
		if cdf[i]/total <= upper {
			hi = i
			break
		}
	}
	return lo, hi
}

// BinarizeOtsu thresholds src at the Otsu level plus offset, capped at 255.
func BinarizeOtsu(src gocv.Mat, offset float64) gocv.Mat {
	scratch := gocv.NewMat()
	defer scratch.Close()
	otsu := gocv.Threshold(src, &scratch, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	adjusted := math.Min(255, float64(otsu)+offset)
	dst := gocv.NewMat()
	gocv.Threshold(src, &dst, float32(adjusted), 255, gocv.ThresholdBinary)
	return dst
}

// RemoveSmallComponents erases 8-connected foreground blobs with fewer than
// minSize pixels. The result is strictly 0/255.
func RemoveSmallComponents(src gocv.Mat, minSize int) gocv.Mat {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	count := gocv.ConnectedComponentsWithStats(src, &labels, &stats, &centroids)

	// label 0 is background
	keep := make([]bool, count)
	for i := 1; i < count; i++ {
		keep[i] = int(stats.GetIntAt(i, int(gocv.CCStatArea))) >= minSize
	}

	rows, cols := src.Rows(), src.Cols()
	out := make([]byte, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if keep[labels.GetIntAt(y, x)] {
				out[y*cols+x] = 255
			}
		}
	}
	return plateimage.FromGrayBytes(rows, cols, out)
}
