package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-reader/internal/classifier"
)

// writeSample stores a 6x6 gray image whose pixel `mark` is 200 and the rest
// 100, so every sample is distinct and straddles the 128 threshold.
func writeSample(t *testing.T, path string, mark int) {
	t.Helper()
	img := gocv.NewMatWithSize(6, 6, gocv.MatTypeCV8UC1)
	defer img.Close()
	img.SetTo(gocv.NewScalar(100, 0, 0, 0))
	img.SetUCharAt(mark/6, mark%6, 200)
	require.True(t, gocv.IMWrite(path, img))
}

func buildDataset(t *testing.T) (string, *classifier.LabelMap) {
	t.Helper()
	dir := t.TempDir()
	counts := map[string]int{"A": 5, "B": 3, "X": 2}
	mark := 0
	for label, n := range counts {
		require.NoError(t, os.Mkdir(filepath.Join(dir, label), 0755))
		for i := 0; i < n; i++ {
			writeSample(t, filepath.Join(dir, label, string(rune('a'+i))+".png"), mark)
			mark++
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B", "broken.png"), []byte("not an image"), 0644))
	return dir, classifier.NewLabelMap([]string{"A", "B"})
}

func TestLoadCapsAndFilters(t *testing.T) {
	dir, labels := buildDataset(t)
	set, err := Load(dir, labels, DefaultOptions().WithMaxPerClass(4))
	require.NoError(t, err)

	assert.Equal(t, 7, set.Len())
	assert.Len(t, set.Labels, 7)
	assert.Equal(t, map[int]int{0: 4, 1: 3}, set.Counts())

	for _, v := range set.Samples {
		require.Len(t, v, 36)
		ones := 0
		for _, p := range v {
			assert.Contains(t, []float64{0, 255}, p)
			if p == 255 {
				ones++
			}
		}
		assert.Equal(t, 1, ones)
	}
}

func TestLoadIsDeterministicPerSeed(t *testing.T) {
	dir, labels := buildDataset(t)
	a, err := Load(dir, labels, DefaultOptions().WithSeed(42))
	require.NoError(t, err)
	b, err := Load(dir, labels, DefaultOptions().WithSeed(42))
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)
	assert.Equal(t, a.Labels, b.Labels)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), classifier.NewLabelMap(nil), DefaultOptions())
	assert.Error(t, err)
}

func TestShuffleKeepsPairs(t *testing.T) {
	set := &Set{}
	for i := 0; i < 20; i++ {
		set.Samples = append(set.Samples, []float64{float64(i)})
		set.Labels = append(set.Labels, i)
	}
	set.Shuffle(rand.New(rand.NewSource(3)))

	moved := false
	for i := range set.Samples {
		assert.Equal(t, float64(set.Labels[i]), set.Samples[i][0])
		if set.Labels[i] != i {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestSplit(t *testing.T) {
	set := &Set{Samples: make([][]float64, 7), Labels: []int{0, 1, 2, 3, 4, 5, 6}}

	train, test := set.Split(0.25)
	assert.Equal(t, 6, train.Len())
	assert.Equal(t, []int{6}, test.Labels)

	train, test = set.Split(0)
	assert.Equal(t, 7, train.Len())
	assert.Equal(t, 0, test.Len())
}
