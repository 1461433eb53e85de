package character

import (
	"fmt"
	"os"
	"path/filepath"

	plateimage "plate-reader/internal/image"
	"plate-reader/internal/logging"

	"gocv.io/x/gocv"
)

// PrepareStats summarizes a PrepareDataset run.
type PrepareStats struct {
	Classes int
	Written int
	Skipped int
}

// PrepareDataset normalizes every image under inDir/<label>/ and writes the
// canonical result to outDir/<label>/ with the same file name. Unreadable
// files are skipped and counted.
func (n *Normalizer) PrepareDataset(inDir, outDir string, size int, log *logging.Logger) (PrepareStats, error) {
	var stats PrepareStats

	classDirs, err := os.ReadDir(inDir)
	if err != nil {
		return stats, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	for _, classDir := range classDirs {
		if !classDir.IsDir() {
			continue
		}
		label := classDir.Name()
		outClassDir := filepath.Join(outDir, label)
		if err := os.MkdirAll(outClassDir, 0755); err != nil {
			return stats, fmt.Errorf("failed to create directory: %w", err)
		}
		stats.Classes++

		files, err := os.ReadDir(filepath.Join(inDir, label))
		if err != nil {
			return stats, fmt.Errorf("failed to read class directory %s: %w", label, err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			src := filepath.Join(inDir, label, f.Name())
			if err := n.prepareFile(src, filepath.Join(outClassDir, f.Name()), size); err != nil {
				log.Warn("skipping character image", "path", src, "error", err)
				stats.Skipped++
				continue
			}
			stats.Written++
		}
	}
	return stats, nil
}

func (n *Normalizer) prepareFile(src, dst string, size int) error {
	raw, err := plateimage.LoadGray(src)
	if err != nil {
		return err
	}
	defer raw.Close()

	canonical, err := n.Normalize(raw, size)
	if err != nil {
		return err
	}
	defer canonical.Close()

	if !gocv.IMWrite(dst, canonical) {
		return fmt.Errorf("failed to write %s", dst)
	}
	return nil
}

// FindMaxImageSize returns the largest width or height over all images under
// dataDir/<label>/. Unreadable files are ignored.
func FindMaxImageSize(dataDir string) (int, error) {
	classDirs, err := os.ReadDir(dataDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	maxSide := 0
	for _, classDir := range classDirs {
		if !classDir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dataDir, classDir.Name()))
		if err != nil {
			return 0, fmt.Errorf("failed to read class directory %s: %w", classDir.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			img, err := plateimage.LoadGray(filepath.Join(dataDir, classDir.Name(), f.Name()))
			if err != nil {
				continue
			}
			maxSide = max(maxSide, img.Cols(), img.Rows())
			img.Close()
		}
	}
	return maxSide, nil
}
