// Package plate locates license plates in a frame and splits a plate crop
// into per-character binary images.
package plate

import (
	"errors"
	"image"

	plateimage "plate-reader/internal/image"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when a pipeline stage receives an empty Mat.
var ErrEmptyImage = errors.New("empty image")

// Locator runs the plate localization and segmentation stages. It holds no
// per-frame state and is safe for concurrent use.
type Locator struct {
	params Params
}

// NewLocator creates a Locator with the given parameters.
func NewLocator(params Params) *Locator {
	return &Locator{params: params}
}

// Params returns the locator's parameters.
func (l *Locator) Params() Params {
	return l.params
}

// Preprocess turns a raw BGR frame into a binary mask where plate-like
// regions are solid white blobs. It returns the resized frame, which shares
// the mask's coordinate space, and the mask itself; the caller owns both.
func (l *Locator) Preprocess(origin gocv.Mat) (resized, mask gocv.Mat, err error) {
	if origin.Empty() {
		return gocv.NewMat(), gocv.NewMat(), ErrEmptyImage
	}
	p := l.params

	scale := plateimage.ScaleToFit(origin.Cols(), origin.Rows(), p.MaxWidth, p.MaxHeight)
	resized = gocv.NewMat()
	gocv.Resize(origin, &resized, image.Point{}, scale, scale, gocv.InterpolationLinear)

	gray := plateimage.ToGray(resized)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, p.BlurKernel, 0, 0, gocv.BorderDefault)

	// Gamma in [0,1] space lifts shadowed plate text
	norm := gocv.NewMat()
	defer norm.Close()
	blurred.ConvertToWithParams(&norm, gocv.MatTypeCV32F, 1.0/255.0, 0)
	powed := gocv.NewMat()
	defer powed.Close()
	gocv.Pow(norm, p.Gamma, &powed)
	stretched := gocv.NewMat()
	defer stretched.Close()
	powed.ConvertToWithParams(&stretched, gocv.MatTypeCV8U, 255.0, 0)

	// Top-hat: image minus its opening keeps small bright strokes
	rectKernel := gocv.GetStructuringElement(gocv.MorphRect, p.topHatKernel())
	defer rectKernel.Close()
	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(stretched, &opened, gocv.MorphOpen, rectKernel)
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(stretched, opened, &diff)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(diff, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(binary, &edges, p.CannyLow, p.CannyHigh)

	closeKernel := gocv.GetStructuringElement(gocv.MorphRect, p.CloseKernel)
	defer closeKernel.Close()
	openKernel := gocv.GetStructuringElement(gocv.MorphRect, p.OpenKernel)
	defer openKernel.Close()

	mask = gocv.NewMat()
	tmp := gocv.NewMat()
	defer tmp.Close()
	gocv.MorphologyEx(edges, &tmp, gocv.MorphClose, closeKernel)
	gocv.MorphologyEx(tmp, &mask, gocv.MorphOpen, openKernel)
	gocv.MorphologyEx(mask, &tmp, gocv.MorphClose, closeKernel)
	gocv.MorphologyEx(tmp, &mask, gocv.MorphOpen, openKernel)

	return resized, mask, nil
}
