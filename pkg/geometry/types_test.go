package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntAspect(t *testing.T) {
	r := RectInt{X: 10, Y: 20, Width: 157, Height: 50}
	assert.InDelta(t, 3.14, r.AspectRatio(), 1e-9)
	assert.InDelta(t, 0.0, r.AspectDistance(3.14), 1e-9)
	assert.Equal(t, 7850, r.Area())
	assert.Equal(t, 0.0, RectInt{Width: 4}.AspectRatio())
}

func TestRectIntImageRoundTrip(t *testing.T) {
	r := RectInt{X: 3, Y: 4, Width: 5, Height: 6}
	assert.Equal(t, image.Rect(3, 4, 8, 10), r.ImageRect())
	assert.Equal(t, r, FromImageRect(r.ImageRect()))
}

func TestRectIntClamp(t *testing.T) {
	r := RectInt{X: -5, Y: 90, Width: 20, Height: 20}
	assert.Equal(t, RectInt{X: 0, Y: 90, Width: 15, Height: 10}, r.Clamp(100, 100))
	assert.True(t, RectInt{X: 200, Y: 200, Width: 5, Height: 5}.Clamp(100, 100).Empty())
}
