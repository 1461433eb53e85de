package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGray(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 10, G: 10, B: 10, A: 255}, Gray(10))
	assert.Equal(t, White, Gray(255))
}
