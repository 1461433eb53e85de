// Package image provides image loading and gocv Mat helpers shared by the
// plate pipeline, dataset loading and the CLIs.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrEmptyImage is returned when an image file decodes to nothing.
var ErrEmptyImage = errors.New("empty image")

// Load decodes an image file with the Go decoders (PNG, JPEG, BMP, TIFF).
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadMat reads an image file into a BGR Mat. OpenCV's codecs are tried
// first; files OpenCV cannot read fall back to the Go decoders.
func LoadMat(path string) (gocv.Mat, error) {
	return loadMat(path, gocv.IMReadColor, ToMat)
}

// LoadGray reads an image file into a single-channel 8-bit Mat.
func LoadGray(path string) (gocv.Mat, error) {
	return loadMat(path, gocv.IMReadGrayScale, ToGrayMat)
}

func loadMat(path string, flags gocv.IMReadFlag, convert func(image.Image) gocv.Mat) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}

	mat := gocv.IMRead(path, flags)
	if !mat.Empty() {
		return mat, nil
	}
	mat.Close()

	img, err := Load(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	mat = convert(img)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%s: %w", path, ErrEmptyImage)
	}
	return mat, nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
