// Package config loads pipeline settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"plate-reader/internal/character"
	"plate-reader/internal/classifier"
	"plate-reader/internal/plate"
	"plate-reader/internal/recognize"
)

// Config is the full set of runtime settings.
type Config struct {
	Plate     plate.Params
	Locate    plate.LocateParams
	Character character.Params
	Train     classifier.TrainParams
	CharSize  int

	ModelDir  string
	LabelMap  string
	ResultsDB string
	LogPrefix string
	Debug     bool
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Plate:     plate.DefaultParams(),
		Locate:    plate.DefaultLocateParams(),
		Character: character.DefaultParams(),
		Train:     classifier.DefaultTrainParams(),
		CharSize:  20,
		ModelDir:  "model",
		LabelMap:  "model/label_map.txt",
		LogPrefix: "plate",
	}
}

// Load reads envFile (".env" when empty) into the process environment and
// builds a Config from it. A missing file is not an error. Variables already
// set in the environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables over the defaults.
func FromEnv() (*Config, error) {
	c := Default()
	e := &envReader{}

	c.Plate.MaxWidth = e.int("PLATE_MAX_WIDTH", c.Plate.MaxWidth)
	c.Plate.MaxHeight = e.int("PLATE_MAX_HEIGHT", c.Plate.MaxHeight)
	c.Plate.Gamma = e.float("PLATE_GAMMA", c.Plate.Gamma)
	c.Plate.Radius = e.int("PLATE_RADIUS", c.Plate.Radius)
	c.Plate.CannyLow = float32(e.float("PLATE_CANNY_LOW", float64(c.Plate.CannyLow)))
	c.Plate.CannyHigh = float32(e.float("PLATE_CANNY_HIGH", float64(c.Plate.CannyHigh)))
	c.Plate.CloseKernel = e.kernel("PLATE_CLOSE_KERNEL", c.Plate.CloseKernel)
	c.Plate.OpenKernel = e.kernel("PLATE_OPEN_KERNEL", c.Plate.OpenKernel)
	c.Locate.Remain = e.int("PLATE_CANDIDATES", c.Locate.Remain)

	c.CharSize = e.int("CHAR_SIZE", c.CharSize)
	c.Train.Workers = e.int("TRAIN_WORKERS", runtime.NumCPU())
	c.Train.Components = e.int("PCA_COMPONENTS", c.Train.Components)

	c.ModelDir = e.str("MODEL_DIR", c.ModelDir)
	c.LabelMap = e.str("LABEL_MAP", c.LabelMap)
	c.ResultsDB = e.str("RESULTS_DB", c.ResultsDB)
	c.LogPrefix = e.str("LOG_PREFIX", c.LogPrefix)
	c.Debug = e.bool("DEBUG", c.Debug)

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if c.CharSize <= 0 {
		return nil, fmt.Errorf("CHAR_SIZE must be positive, got %d", c.CharSize)
	}
	return c, nil
}

// Pipeline returns the recognizer configuration.
func (c *Config) Pipeline() recognize.Config {
	return recognize.Config{
		Plate:     c.Plate,
		Locate:    c.Locate,
		Character: c.Character,
		CharSize:  c.CharSize,
	}
}

// ParseKernel parses a "WxH" kernel size such as "44x14".
func ParseKernel(s string) (image.Point, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("kernel %q: want WxH", s)
	}
	x, err := strconv.Atoi(w)
	if err != nil {
		return image.Point{}, fmt.Errorf("kernel %q: bad width: %w", s, err)
	}
	y, err := strconv.Atoi(h)
	if err != nil {
		return image.Point{}, fmt.Errorf("kernel %q: bad height: %w", s, err)
	}
	if x <= 0 || y <= 0 {
		return image.Point{}, fmt.Errorf("kernel %q: sides must be positive", s)
	}
	return image.Point{X: x, Y: y}, nil
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (e *envReader) str(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func (e *envReader) int(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (e *envReader) float(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func (e *envReader) bool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (e *envReader) kernel(key string, fallback image.Point) image.Point {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	k, err := ParseKernel(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return k
}
