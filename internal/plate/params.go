package plate

import "image"

// Params holds the tunables for mask preprocessing and character
// segmentation. Kernel sizes are width x height (image.Point{X: w, Y: h}).
type Params struct {
	// Preprocessing
	MaxWidth    int         // Resize bound, width
	MaxHeight   int         // Resize bound, height
	BlurKernel  image.Point // Gaussian kernel
	Gamma       float64     // Power-law exponent in [0,1] space, < 1 brightens shadows
	Radius      int         // Top-hat kernel height; width is 3.14*Radius
	CannyLow    float32
	CannyHigh   float32
	CloseKernel image.Point // Joins character strokes into one plate blob
	OpenKernel  image.Point // Removes specks between close passes

	// Segmentation
	MinPlateSide     int         // Shorter side of the plate crop after resize
	CharCloseKernel  image.Point // Tall, narrow: merges strokes, not neighbours
	MinCharAreaRatio float64     // Exclusive lower bound, char rect area / plate area
	MinCharAspect    float64     // Exclusive bounds on char width/height
	MaxCharAspect    float64
	MinCharFill      float64 // Exclusive lower bound on nonzero fraction
}

// LocateParams holds the geometric filters used to rank plate candidates.
type LocateParams struct {
	MinAspectRatio    float64
	MaxAspectRatio    float64
	TargetAspectRatio float64
	MinRectAreaRatio  float64
	MaxRectAreaRatio  float64
	MinFillRatio      float64
	Remain            int // Max regions returned
}

// DefaultParams returns preprocessing and segmentation defaults tuned for
// plates photographed at typical parking-lot distances.
func DefaultParams() Params {
	return Params{
		MaxWidth:    1024,
		MaxHeight:   720,
		BlurKernel:  image.Point{X: 5, Y: 5},
		Gamma:       0.2,
		Radius:      15,
		CannyLow:    100,
		CannyHigh:   200,
		CloseKernel: image.Point{X: 44, Y: 14},
		OpenKernel:  image.Point{X: 9, Y: 4},

		MinPlateSide:     100,
		CharCloseKernel:  image.Point{X: 5, Y: 10},
		MinCharAreaRatio: 0.01,
		MinCharAspect:    0.4,
		MaxCharAspect:    1.0,
		MinCharFill:      0.2,
	}
}

// DefaultLocateParams returns region filters matching common plate proportions.
func DefaultLocateParams() LocateParams {
	return LocateParams{
		MinAspectRatio:    2.1,
		MaxAspectRatio:    4.2,
		TargetAspectRatio: 3.14,
		MinRectAreaRatio:  0.005,
		MaxRectAreaRatio:  0.5,
		MinFillRatio:      0.5,
		Remain:            3,
	}
}

// WithMaxSize returns a copy of params with a different resize bound.
func (p Params) WithMaxSize(w, h int) Params {
	p.MaxWidth = w
	p.MaxHeight = h
	return p
}

// WithMorphKernels returns a copy of params with custom close/open kernels.
func (p Params) WithMorphKernels(closeKernel, openKernel image.Point) Params {
	p.CloseKernel = closeKernel
	p.OpenKernel = openKernel
	return p
}

// WithAspectRange returns a copy of params with a custom plate aspect window.
func (p LocateParams) WithAspectRange(minRatio, maxRatio, target float64) LocateParams {
	p.MinAspectRatio = minRatio
	p.MaxAspectRatio = maxRatio
	p.TargetAspectRatio = target
	return p
}

// topHatKernel returns the opening kernel for the top-hat step.
func (p Params) topHatKernel() image.Point {
	return image.Point{X: int(3.14 * float64(p.Radius)), Y: p.Radius}
}
