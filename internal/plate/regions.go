package plate

import (
	"sort"

	"plate-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// LocatePlates extracts the outer contours of mask and returns the bounding
// rectangles that look like plates, best match first. Rejected contours are
// dropped silently.
func (l *Locator) LocatePlates(mask gocv.Mat, p LocateParams) []geometry.RectInt {
	if mask.Empty() || p.Remain <= 0 {
		return nil
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	totalArea := float64(mask.Cols() * mask.Rows())
	var plates []geometry.RectInt
	for i := 0; i < contours.Size(); i++ {
		rect := geometry.FromImageRect(gocv.BoundingRect(contours.At(i)))
		if rect.Empty() {
			continue
		}

		aspect := rect.AspectRatio()
		if aspect < p.MinAspectRatio || aspect > p.MaxAspectRatio {
			continue
		}
		areaRatio := float64(rect.Area()) / totalArea
		if areaRatio < p.MinRectAreaRatio || areaRatio > p.MaxRectAreaRatio {
			continue
		}
		if fillRatio(mask, rect) < p.MinFillRatio {
			continue
		}

		plates = append(plates, rect)
	}

	// Stable: equal distances keep contour discovery order
	sort.SliceStable(plates, func(i, j int) bool {
		return plates[i].AspectDistance(p.TargetAspectRatio) < plates[j].AspectDistance(p.TargetAspectRatio)
	})

	if len(plates) > p.Remain {
		plates = plates[:p.Remain]
	}
	return plates
}

// fillRatio returns the fraction of nonzero pixels of src inside rect.
func fillRatio(src gocv.Mat, rect geometry.RectInt) float64 {
	if rect.Empty() {
		return 0
	}
	roi := src.Region(rect.ImageRect())
	defer roi.Close()
	return float64(gocv.CountNonZero(roi)) / float64(rect.Area())
}
