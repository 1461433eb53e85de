package plate

import (
	"sort"

	plateimage "plate-reader/internal/image"
	"plate-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// Character is one candidate glyph cut from a plate crop. Bounds are in the
// coordinate space of the plate crop after it was resized to MinPlateSide.
type Character struct {
	Mat    gocv.Mat
	Bounds geometry.RectInt
}

// Close releases the character image.
func (c *Character) Close() error {
	return c.Mat.Close()
}

// CloseCharacters releases every character image in chars.
func CloseCharacters(chars []Character) {
	for i := range chars {
		chars[i].Close()
	}
}

// SegmentCharacters splits a plate crop into binary character images, white
// glyphs on black, ordered left to right. A crop with no foreground yields an
// empty slice. The caller owns the returned Mats.
func (l *Locator) SegmentCharacters(plateImg gocv.Mat) ([]Character, error) {
	if plateImg.Empty() {
		return nil, nil
	}
	p := l.params

	resized := plateimage.ResizeToMinSide(plateImg, p.MinPlateSide)
	defer resized.Close()
	gray := plateimage.ToGray(resized)
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// Characters must end up white whatever the plate polarity
	if binary.Mean().Val1 > 128 {
		gocv.BitwiseNot(binary, &binary)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, p.CharCloseKernel)
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(binary, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	plateArea := float64(closed.Cols() * closed.Rows())
	var rects []geometry.RectInt
	for i := 0; i < contours.Size(); i++ {
		rect := geometry.FromImageRect(gocv.BoundingRect(contours.At(i)))
		if rect.Empty() {
			continue
		}
		areaRatio := float64(rect.Area()) / plateArea
		aspect := rect.AspectRatio()
		if areaRatio <= p.MinCharAreaRatio {
			continue
		}
		if aspect <= p.MinCharAspect || aspect >= p.MaxCharAspect {
			continue
		}
		if fillRatio(closed, rect) <= p.MinCharFill {
			continue
		}
		rects = append(rects, rect)
	}

	sort.SliceStable(rects, func(i, j int) bool {
		return rects[i].X < rects[j].X
	})

	chars := make([]Character, 0, len(rects))
	for _, rect := range rects {
		roi := binary.Region(rect.ImageRect())
		chars = append(chars, Character{Mat: roi.Clone(), Bounds: rect})
		roi.Close()
	}
	return chars, nil
}
