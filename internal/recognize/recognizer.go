// Package recognize chains plate localization, character segmentation,
// normalization and classification into a single frame-to-text pipeline.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"

	"plate-reader/internal/character"
	"plate-reader/internal/classifier"
	"plate-reader/internal/logging"
	"plate-reader/internal/plate"
	"plate-reader/pkg/geometry"
)

// Status tells how far a frame made it through the pipeline.
type Status int

const (
	StatusRecognized Status = iota
	StatusNoPlate
	StatusNoCharacters
	StatusUnreadable // characters found, none classified
)

func (s Status) String() string {
	switch s {
	case StatusRecognized:
		return "recognized"
	case StatusNoPlate:
		return "no plate"
	case StatusNoCharacters:
		return "no characters"
	case StatusUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of recognizing one frame. Region and Candidates are
// in the coordinates of the resized frame.
type Result struct {
	Status     Status
	Plate      string
	Region     geometry.RectInt
	Candidates []geometry.RectInt
	Characters int
	Unknown    int
}

// CharClassifier turns one normalized character image into its label.
type CharClassifier interface {
	Classify(img gocv.Mat) (string, bool)
}

// ModelClassifier classifies with a trained model and its label map.
type ModelClassifier struct {
	Model  *classifier.Model
	Labels *classifier.LabelMap
}

// Classify implements CharClassifier.
func (c ModelClassifier) Classify(img gocv.Mat) (string, bool) {
	id := c.Model.Predict(img)
	if id == classifier.InvalidLabel || c.Labels == nil {
		return "", false
	}
	label := c.Labels.Label(id)
	return label, label != ""
}

// Config holds the parameters of every stage.
type Config struct {
	Plate     plate.Params
	Locate    plate.LocateParams
	Character character.Params
	CharSize  int
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Plate:     plate.DefaultParams(),
		Locate:    plate.DefaultLocateParams(),
		Character: character.DefaultParams(),
		CharSize:  20,
	}
}

// Recognizer reads plate text from frames. It is not safe for concurrent use
// when its classifier is not.
type Recognizer struct {
	locator    *plate.Locator
	locate     plate.LocateParams
	normalizer *character.Normalizer
	charSize   int
	classifier CharClassifier
	log        *logging.Logger
}

// New creates a recognizer. log may be nil.
func New(cfg Config, cls CharClassifier, log *logging.Logger) *Recognizer {
	return &Recognizer{
		locator:    plate.NewLocator(cfg.Plate),
		locate:     cfg.Locate,
		normalizer: character.NewNormalizer(cfg.Character),
		charSize:   cfg.CharSize,
		classifier: cls,
		log:        log,
	}
}

// Recognize reads the plate in frame. A frame without a plate or without
// characters is not an error; see Result.Status.
func (r *Recognizer) Recognize(frame gocv.Mat) (Result, error) {
	res, resized, err := r.recognize(frame)
	resized.Close()
	return res, err
}

// RecognizeAnnotated is Recognize plus a copy of the resized frame with the
// result drawn on it. The caller owns the returned Mat.
func (r *Recognizer) RecognizeAnnotated(frame gocv.Mat) (Result, gocv.Mat, error) {
	res, resized, err := r.recognize(frame)
	if err != nil {
		return res, resized, err
	}
	Annotate(&resized, res)
	return res, resized, nil
}

func (r *Recognizer) recognize(frame gocv.Mat) (Result, gocv.Mat, error) {
	resized, mask, err := r.locator.Preprocess(frame)
	defer mask.Close()
	if err != nil {
		return Result{}, resized, fmt.Errorf("failed to preprocess frame: %w", err)
	}

	res, err := r.ReadCandidates(resized, r.locator.LocatePlates(mask, r.locate))
	return res, resized, err
}

// ReadCandidates reads the plate inside the top-ranked candidate region of
// an already resized frame.
func (r *Recognizer) ReadCandidates(resized gocv.Mat, candidates []geometry.RectInt) (Result, error) {
	res := Result{Status: StatusNoPlate, Candidates: candidates}
	if len(candidates) == 0 {
		return res, nil
	}
	res.Region = candidates[0].Clamp(resized.Cols(), resized.Rows())
	if res.Region.Empty() {
		return res, nil
	}

	crop := resized.Region(res.Region.ImageRect())
	text, n, unknown, err := r.ReadPlate(crop)
	crop.Close()
	if err != nil {
		return res, err
	}

	res.Characters = n
	res.Unknown = unknown
	switch {
	case n == 0:
		res.Status = StatusNoCharacters
	case unknown == n:
		res.Status = StatusUnreadable
	default:
		res.Status = StatusRecognized
		res.Plate = text
	}
	return res, nil
}

// ReadPlate segments a plate crop and classifies each character left to
// right. It returns the text, the number of segmented characters and how
// many of them the classifier could not label.
func (r *Recognizer) ReadPlate(crop gocv.Mat) (string, int, int, error) {
	chars, err := r.locator.SegmentCharacters(crop)
	if err != nil {
		return "", 0, 0, fmt.Errorf("failed to segment characters: %w", err)
	}
	defer plate.CloseCharacters(chars)

	var text strings.Builder
	unknown := 0
	for i, ch := range chars {
		norm, err := r.normalizer.Normalize(ch.Mat, r.charSize)
		if err != nil {
			if errors.Is(err, character.ErrEmptyImage) {
				unknown++
				continue
			}
			return "", 0, 0, fmt.Errorf("failed to normalize character %d: %w", i, err)
		}
		label, ok := r.classifier.Classify(norm)
		norm.Close()
		if !ok {
			unknown++
			r.log.Debug("unclassified character", "index", i, "x", ch.Bounds.X)
			continue
		}
		text.WriteString(label)
	}
	return text.String(), len(chars), unknown, nil
}

// FrameFunc receives each processed frame of a stream. Returning an error
// stops the stream.
type FrameFunc func(index int, res Result) error

// Run recognizes frames from src until it is exhausted, ctx is cancelled or
// fn returns an error. Frames that fail to process are logged and skipped.
func (r *Recognizer) Run(ctx context.Context, src FrameSource, fn FrameFunc) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !src.Next(&frame) {
			return nil
		}
		if frame.Empty() {
			continue
		}

		res, err := r.Recognize(frame)
		if err != nil {
			r.log.Warn("frame failed", "source", src.Name(), "index", index, "error", err)
			continue
		}
		if err := fn(index, res); err != nil {
			return err
		}
	}
}
