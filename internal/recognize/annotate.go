package recognize

import (
	"image"

	"gocv.io/x/gocv"

	"plate-reader/pkg/colorutil"
)

var (
	boxColor  = colorutil.Green
	textColor = colorutil.Red
)

const (
	lineThickness = 2
	textScale     = 0.8
	textGap       = 5
)

// Annotate draws the plate region and text on img, which must be the
// resized frame the result refers to. The text goes above the box, or below
// it when there is no room.
func Annotate(img *gocv.Mat, res Result) {
	if res.Status == StatusNoPlate || res.Region.Empty() {
		return
	}
	rect := res.Region.ImageRect()
	gocv.Rectangle(img, rect, boxColor, lineThickness)

	if res.Plate == "" {
		return
	}
	size := gocv.GetTextSize(res.Plate, gocv.FontHersheySimplex, textScale, lineThickness)
	origin := image.Pt(rect.Min.X, rect.Min.Y-textGap)
	if origin.Y-size.Y < 0 {
		origin.Y = rect.Max.Y + textGap + size.Y
	}
	gocv.PutText(img, res.Plate, origin, gocv.FontHersheySimplex, textScale, textColor, lineThickness)
}
