package recognize

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-reader/internal/classifier"
	"plate-reader/internal/logging"
	"plate-reader/internal/plate"
	"plate-reader/pkg/geometry"
)

// constClassifier labels every character with the same string and records
// the sizes it was given.
type constClassifier struct {
	label string
	sizes []image.Point
}

func (c *constClassifier) Classify(img gocv.Mat) (string, bool) {
	c.sizes = append(c.sizes, image.Pt(img.Cols(), img.Rows()))
	return c.label, c.label != ""
}

func uniformFrame(v float64) gocv.Mat {
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(v, v, v, 0))
	return m
}

func TestRecognizeNoPlate(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "A"}, logging.Discard())
	frame := uniformFrame(128)
	defer frame.Close()

	res, err := r.Recognize(frame)
	require.NoError(t, err)
	assert.Equal(t, StatusNoPlate, res.Status)
	assert.Empty(t, res.Plate)
	assert.Empty(t, res.Candidates)
}

func TestRecognizeEmptyFrame(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "A"}, nil)
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := r.Recognize(empty)
	assert.ErrorIs(t, err, plate.ErrEmptyImage)
}

func TestReadPlateOrdersAndNormalizes(t *testing.T) {
	cls := &constClassifier{label: "7"}
	cfg := DefaultConfig()
	cfg.CharSize = 24
	r := New(cfg, cls, nil)

	crop := gocv.NewMatWithSize(100, 300, gocv.MatTypeCV8UC1)
	defer crop.Close()
	for _, x := range []int{20, 80, 140, 200} {
		gocv.Rectangle(&crop, image.Rect(x, 25, x+30, 75), color.RGBA{R: 255, G: 255, B: 255}, -1)
	}

	text, n, unknown, err := r.ReadPlate(crop)
	require.NoError(t, err)
	assert.Equal(t, "7777", text)
	assert.Equal(t, 4, n)
	assert.Zero(t, unknown)
	for _, s := range cls.sizes {
		assert.Equal(t, image.Pt(24, 24), s)
	}
}

func TestReadPlateCountsUnknown(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{}, nil)
	crop := gocv.NewMatWithSize(100, 300, gocv.MatTypeCV8UC1)
	defer crop.Close()
	gocv.Rectangle(&crop, image.Rect(40, 25, 70, 75), color.RGBA{R: 255, G: 255, B: 255}, -1)

	text, n, unknown, err := r.ReadPlate(crop)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, unknown)
}

// plateFrame returns a 350x300 black BGR frame with four white glyph bars
// inside the plate area 50..350 x 100..200.
func plateFrame() gocv.Mat {
	frame := gocv.NewMatWithSize(300, 350, gocv.MatTypeCV8UC3)
	for _, x := range []int{70, 130, 190, 250} {
		gocv.Rectangle(&frame, image.Rect(x, 125, x+30, 175), color.RGBA{R: 255, G: 255, B: 255}, -1)
	}
	return frame
}

func TestReadCandidatesRecognized(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "K"}, nil)
	frame := plateFrame()
	defer frame.Close()

	candidates := []geometry.RectInt{
		{X: 50, Y: 100, Width: 320, Height: 100}, // runs past the right edge
		{X: 0, Y: 0, Width: 90, Height: 30},
	}
	res, err := r.ReadCandidates(frame, candidates)
	require.NoError(t, err)
	assert.Equal(t, StatusRecognized, res.Status)
	assert.Equal(t, "KKKK", res.Plate)
	assert.Equal(t, geometry.RectInt{X: 50, Y: 100, Width: 300, Height: 100}, res.Region)
	assert.Equal(t, 4, res.Characters)
	assert.Zero(t, res.Unknown)
	assert.Equal(t, candidates, res.Candidates)
}

func TestReadCandidatesNoCharacters(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "K"}, nil)
	frame := plateFrame()
	defer frame.Close()

	// blank strip above the glyphs
	res, err := r.ReadCandidates(frame, []geometry.RectInt{{X: 0, Y: 0, Width: 300, Height: 100}})
	require.NoError(t, err)
	assert.Equal(t, StatusNoCharacters, res.Status)
	assert.Empty(t, res.Plate)
	assert.Zero(t, res.Characters)

	res, err = r.ReadCandidates(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNoPlate, res.Status)
	assert.NotEqual(t, StatusNoCharacters, res.Status)
}

func TestReadCandidatesUnreadable(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{}, nil)
	frame := plateFrame()
	defer frame.Close()

	res, err := r.ReadCandidates(frame, []geometry.RectInt{{X: 50, Y: 100, Width: 300, Height: 100}})
	require.NoError(t, err)
	assert.Equal(t, StatusUnreadable, res.Status)
	assert.Empty(t, res.Plate)
	assert.Equal(t, 4, res.Characters)
	assert.Equal(t, 4, res.Unknown)
}

func TestReadPlateBlackCrop(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "K"}, nil)
	crop := gocv.NewMatWithSize(100, 300, gocv.MatTypeCV8UC1)
	defer crop.Close()

	text, n, unknown, err := r.ReadPlate(crop)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, n)
	assert.Zero(t, unknown)
}

func TestModelClassifierUntrained(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()

	label, ok := ModelClassifier{Labels: classifier.NewLabelMap([]string{"A"})}.Classify(img)
	assert.False(t, ok)
	assert.Empty(t, label)
}

func TestAnnotate(t *testing.T) {
	img := gocv.NewMatWithSize(200, 300, gocv.MatTypeCV8UC3)
	defer img.Close()

	Annotate(&img, Result{Status: StatusNoPlate})
	green := channel(img, 1)
	assert.Equal(t, 0, gocv.CountNonZero(green))
	green.Close()

	res := Result{
		Status: StatusRecognized,
		Plate:  "AB12",
		Region: geometry.RectInt{X: 50, Y: 5, Width: 150, Height: 48},
	}
	Annotate(&img, res)

	// box edge is green
	v := img.GetVecbAt(5, 120)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{v[0], v[1], v[2]})

	// no room above, so the red text lands below the box
	red := channel(img, 2)
	defer red.Close()
	above := red.Region(image.Rect(0, 0, 300, 5))
	below := red.Region(image.Rect(0, 54, 300, 200))
	assert.Zero(t, gocv.CountNonZero(above))
	assert.Positive(t, gocv.CountNonZero(below))
	above.Close()
	below.Close()
}

func TestAnnotateTextAboveBox(t *testing.T) {
	img := gocv.NewMatWithSize(200, 300, gocv.MatTypeCV8UC3)
	defer img.Close()

	Annotate(&img, Result{
		Status: StatusRecognized,
		Plate:  "XY9",
		Region: geometry.RectInt{X: 50, Y: 100, Width: 150, Height: 48},
	})

	red := channel(img, 2)
	defer red.Close()
	above := red.Region(image.Rect(0, 60, 300, 100))
	below := red.Region(image.Rect(0, 150, 300, 200))
	defer above.Close()
	defer below.Close()
	assert.Positive(t, gocv.CountNonZero(above))
	assert.Zero(t, gocv.CountNonZero(below))
}

func channel(img gocv.Mat, c int) gocv.Mat {
	parts := gocv.Split(img)
	for i := range parts {
		if i != c {
			parts[i].Close()
		}
	}
	return parts[c]
}

type sliceSource struct {
	frames []gocv.Mat
	pos    int
}

func (s *sliceSource) Next(dst *gocv.Mat) bool {
	if s.pos >= len(s.frames) {
		return false
	}
	s.frames[s.pos].CopyTo(dst)
	s.pos++
	return true
}

func (s *sliceSource) Close() error {
	for _, f := range s.frames {
		f.Close()
	}
	return nil
}

func (s *sliceSource) Name() string { return "slice" }

func TestRunVisitsEveryFrame(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "A"}, logging.Discard())
	src := &sliceSource{frames: []gocv.Mat{uniformFrame(10), gocv.NewMat(), uniformFrame(200)}}
	defer src.Close()

	var seen []int
	err := r.Run(context.Background(), src, func(index int, res Result) error {
		seen = append(seen, index)
		assert.Equal(t, StatusNoPlate, res.Status)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, seen)
}

func TestRunStops(t *testing.T) {
	r := New(DefaultConfig(), &constClassifier{label: "A"}, nil)

	src := &sliceSource{frames: []gocv.Mat{uniformFrame(10), uniformFrame(20)}}
	defer src.Close()
	stop := errors.New("stop")
	calls := 0
	err := r.Run(context.Background(), src, func(int, Result) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src2 := &sliceSource{frames: []gocv.Mat{uniformFrame(10)}}
	defer src2.Close()
	err = r.Run(ctx, src2, func(int, Result) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "recognized", StatusRecognized.String())
	assert.Equal(t, "no plate", StatusNoPlate.String())
	assert.Equal(t, "no characters", StatusNoCharacters.String())
	assert.Equal(t, "unreadable", StatusUnreadable.String())
}
