package image

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestResizeToMinSide(t *testing.T) {
	src := gocv.NewMatWithSize(50, 300, gocv.MatTypeCV8UC3)
	defer src.Close()

	dst := ResizeToMinSide(src, 100)
	defer dst.Close()
	assert.Equal(t, 100, dst.Rows())
	assert.Equal(t, 600, dst.Cols())
}

func TestResizeToMaxSide(t *testing.T) {
	src := gocv.NewMatWithSize(30, 9, gocv.MatTypeCV8UC1)
	defer src.Close()

	dst := ResizeToMaxSide(src, 20)
	defer dst.Close()
	assert.Equal(t, 20, dst.Rows())
	assert.Equal(t, 6, dst.Cols())

	thin := gocv.NewMatWithSize(100, 1, gocv.MatTypeCV8UC1)
	defer thin.Close()
	out := ResizeToMaxSide(thin, 20)
	defer out.Close()
	assert.Equal(t, 1, out.Cols(), "narrow side never collapses to zero")
}

func TestScaleToFit(t *testing.T) {
	assert.InDelta(t, 0.5, ScaleToFit(2048, 1000, 1024, 720), 1e-12)
	assert.InDelta(t, 0.72, ScaleToFit(1000, 1000, 1024, 720), 1e-12)
}

func TestToGrayAndFlatten(t *testing.T) {
	src := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetTo(gocv.NewScalar(255, 255, 255, 0))

	gray := ToGray(src)
	defer gray.Close()
	require.Equal(t, 1, gray.Channels())

	v := Flatten(gray)
	require.Len(t, v, 6)
	for _, p := range v {
		assert.Equal(t, 255.0, p)
	}
}

func TestFromGrayBytes(t *testing.T) {
	data := []byte{0, 10, 20, 30, 40, 50}
	m := FromGrayBytes(2, 3, data)
	defer m.Close()
	assert.Equal(t, data, GrayBytes(m))
}

func TestLoadGrayPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	img.SetGray(1, 1, color.Gray{Y: 200})

	path := filepath.Join(t.TempDir(), "char.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	m, err := LoadGray(path)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 4, m.Cols())
	assert.Equal(t, uint8(200), m.GetUCharAt(1, 1))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadMat(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
