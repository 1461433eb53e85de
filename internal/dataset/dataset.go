// Package dataset loads labelled character images for classifier training.
package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"plate-reader/internal/classifier"
	plateimage "plate-reader/internal/image"
	"plate-reader/internal/logging"
)

// Options controls Load.
type Options struct {
	MaxPerClass int
	Seed        int64
	Threshold   float32
	Log         *logging.Logger
}

// DefaultOptions returns the standard loading options.
func DefaultOptions() Options {
	return Options{
		MaxPerClass: 100,
		Seed:        1,
		Threshold:   128,
	}
}

// WithMaxPerClass returns a copy with a different per-class cap.
func (o Options) WithMaxPerClass(n int) Options {
	o.MaxPerClass = n
	return o
}

// WithSeed returns a copy with a different shuffle seed.
func (o Options) WithSeed(seed int64) Options {
	o.Seed = seed
	return o
}

// Set is a list of flattened samples and their class ids.
type Set struct {
	Samples [][]float64
	Labels  []int
}

// Len returns the number of samples.
func (s *Set) Len() int {
	return len(s.Samples)
}

// Counts returns the number of samples per class id.
func (s *Set) Counts() map[int]int {
	counts := make(map[int]int)
	for _, l := range s.Labels {
		counts[l]++
	}
	return counts
}

// Shuffle permutes samples and labels together.
func (s *Set) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(s.Samples), func(i, j int) {
		s.Samples[i], s.Samples[j] = s.Samples[j], s.Samples[i]
		s.Labels[i], s.Labels[j] = s.Labels[j], s.Labels[i]
	})
}

// Split returns the first (1-holdout) share of the set for training and the
// rest for evaluation. Shuffle first for a random split.
func (s *Set) Split(holdout float64) (train, test *Set) {
	n := int(float64(s.Len()) * holdout)
	n = max(0, min(n, s.Len()))
	cut := s.Len() - n
	train = &Set{Samples: s.Samples[:cut], Labels: s.Labels[:cut]}
	test = &Set{Samples: s.Samples[cut:], Labels: s.Labels[cut:]}
	return train, test
}

// Load reads <dir>/<label>/* for every label known to labels. Each class is
// shuffled and capped at MaxPerClass. Images are binarized at Threshold and
// flattened row-major. Unreadable files and images whose size differs from
// the first one are skipped.
func Load(dir string, labels *classifier.LabelMap, opts Options) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	set := &Set{}
	dim := -1

	for _, classDir := range entries {
		if !classDir.IsDir() {
			continue
		}
		id := labels.ID(classDir.Name())
		if id == classifier.InvalidLabel {
			continue
		}

		files, err := os.ReadDir(filepath.Join(dir, classDir.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read class %q: %w", classDir.Name(), err)
		}
		paths := make([]string, 0, len(files))
		for _, f := range files {
			if !f.IsDir() {
				paths = append(paths, filepath.Join(dir, classDir.Name(), f.Name()))
			}
		}
		rng.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })

		count := 0
		for _, path := range paths {
			if opts.MaxPerClass > 0 && count >= opts.MaxPerClass {
				break
			}
			v, err := loadSample(path, opts.Threshold)
			if err != nil {
				opts.Log.Warn("skipping unreadable image", "path", path, "error", err)
				continue
			}
			if dim < 0 {
				dim = len(v)
			} else if len(v) != dim {
				opts.Log.Warn("skipping image with mismatched size", "path", path, "pixels", len(v), "want", dim)
				continue
			}
			set.Samples = append(set.Samples, v)
			set.Labels = append(set.Labels, id)
			count++
		}
		opts.Log.Debug("loaded class", "label", classDir.Name(), "id", id, "samples", count)
	}
	return set, nil
}

func loadSample(path string, threshold float32) ([]float64, error) {
	img, err := plateimage.LoadGray(path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(img, &bin, threshold, 255, gocv.ThresholdBinary)
	return plateimage.Flatten(bin), nil
}
