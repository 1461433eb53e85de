package image

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// ToMat converts a Go image.Image to a BGR OpenCV Mat.
func ToMat(srcImg image.Image) gocv.Mat {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := srcImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// 16-bit to 8-bit, BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// ToGrayMat converts a Go image.Image to a single-channel 8-bit Mat.
func ToGrayMat(srcImg image.Image) gocv.Mat {
	bounds := srcImg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(srcImg.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			mat.SetUCharAt(y, x, g.Y)
		}
	}
	return mat
}

// ToGray returns a new single-channel copy of src. Gray input is cloned.
func ToGray(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	switch src.Channels() {
	case 1:
		src.CopyTo(&dst)
	case 4:
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	}
	return dst
}

// GrayBytes returns the row-major pixel values of a single-channel 8-bit Mat.
func GrayBytes(src gocv.Mat) []byte {
	if src.IsContinuous() {
		return src.ToBytes()
	}
	c := src.Clone()
	defer c.Close()
	return c.ToBytes()
}

// FromGrayBytes builds an owned single-channel Mat from row-major pixels.
func FromGrayBytes(rows, cols int, data []byte) gocv.Mat {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mat.SetUCharAt(y, x, data[y*cols+x])
		}
	}
	return mat
}

// Flatten returns the pixels of a single-channel 8-bit Mat as a float row vector.
func Flatten(src gocv.Mat) []float64 {
	data := GrayBytes(src)
	v := make([]float64, len(data))
	for i, b := range data {
		v[i] = float64(b)
	}
	return v
}
