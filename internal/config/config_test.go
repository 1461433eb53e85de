package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKernel(t *testing.T) {
	k, err := ParseKernel("44x14")
	require.NoError(t, err)
	assert.Equal(t, image.Point{X: 44, Y: 14}, k)

	k, err = ParseKernel(" 9X4 ")
	require.NoError(t, err)
	assert.Equal(t, image.Point{X: 9, Y: 4}, k)

	for _, bad := range []string{"", "44", "ax4", "9xb", "0x4", "-1x2"} {
		_, err := ParseKernel(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 1024, c.Plate.MaxWidth)
	assert.Equal(t, image.Point{X: 44, Y: 14}, c.Plate.CloseKernel)
	assert.Equal(t, 20, c.CharSize)
	assert.Equal(t, c.CharSize, c.Pipeline().CharSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PLATE_MAX_WIDTH", "800")
	t.Setenv("PLATE_GAMMA", "0.5")
	t.Setenv("PLATE_CANNY_HIGH", "150")
	t.Setenv("PLATE_OPEN_KERNEL", "9x5")
	t.Setenv("CHAR_SIZE", "32")
	t.Setenv("MODEL_DIR", "/tmp/m")
	t.Setenv("TRAIN_WORKERS", "3")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 800, c.Plate.MaxWidth)
	assert.Equal(t, 0.5, c.Plate.Gamma)
	assert.Equal(t, float32(150), c.Plate.CannyHigh)
	assert.Equal(t, image.Point{X: 9, Y: 5}, c.Plate.OpenKernel)
	assert.Equal(t, 32, c.CharSize)
	assert.Equal(t, "/tmp/m", c.ModelDir)
	assert.Equal(t, 3, c.Train.Workers)
}

func TestFromEnvReportsAllErrors(t *testing.T) {
	t.Setenv("PLATE_RADIUS", "wide")
	t.Setenv("PLATE_CLOSE_KERNEL", "44")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "PLATE_RADIUS")
	assert.ErrorContains(t, err, "PLATE_CLOSE_KERNEL")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LABEL_MAP=labels.txt\nCHAR_SIZE=24\n"), 0644))
	t.Setenv("CHAR_SIZE", "28")
	// godotenv sets variables directly; make sure the test cleans them up.
	t.Setenv("LABEL_MAP", "")
	os.Unsetenv("LABEL_MAP")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "labels.txt", c.LabelMap)
	assert.Equal(t, 28, c.CharSize, "environment wins over the file")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
