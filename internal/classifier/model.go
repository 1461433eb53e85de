// Package classifier trains and runs the character classifier: min-max
// scaling, a PCA projection and a one-vs-one RBF SVM.
package classifier

import (
	"errors"
	"fmt"
	"runtime"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	plateimage "plate-reader/internal/image"
)

var (
	// ErrNoSamples is returned when training is given no vectors.
	ErrNoSamples = errors.New("no training samples")
	// ErrShapeMismatch is returned for inconsistent vector or label counts.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrDegenerateData is returned when every training value is the same.
	ErrDegenerateData = errors.New("training data has no value range")
	// ErrNotTrained is returned when saving a model that was never fitted.
	ErrNotTrained = errors.New("model is not trained")
)

// minRange is the smallest max-min spread accepted for scaling.
const minRange = 1e-6

// TrainParams configures Train.
type TrainParams struct {
	Components int
	C          float64
	Gamma      float64
	MaxIter    int
	Tol        float64
	Workers    int
}

// DefaultTrainParams returns the standard training configuration.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		Components: 100,
		C:          5,
		Gamma:      0.1,
		MaxIter:    100000,
		Tol:        1e-6,
		Workers:    runtime.NumCPU(),
	}
}

// WithComponents returns a copy with a different PCA dimensionality.
func (p TrainParams) WithComponents(k int) TrainParams {
	p.Components = k
	return p
}

// WithWorkers returns a copy with a different worker count.
func (p TrainParams) WithWorkers(n int) TrainParams {
	p.Workers = n
	return p
}

func (p TrainParams) svm() SVMParams {
	return SVMParams{C: p.C, Gamma: p.Gamma, MaxIter: p.MaxIter, Tol: p.Tol}
}

// Model is a trained classifier. A nil or zero Model predicts InvalidLabel.
type Model struct {
	pca    *PCA
	svm    *SVM
	minVal float64
	maxVal float64
}

// Train fits a model to samples (one flattened image per row) and their
// class ids.
func Train(samples [][]float64, labels []int, p TrainParams) (*Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrShapeMismatch, len(samples), len(labels))
	}
	dim := len(samples[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty sample vector", ErrShapeMismatch)
	}

	minVal, maxVal := samples[0][0], samples[0][0]
	for i, s := range samples {
		if len(s) != dim {
			return nil, fmt.Errorf("%w: sample %d has %d values, want %d", ErrShapeMismatch, i, len(s), dim)
		}
		for _, v := range s {
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
	}
	if maxVal-minVal < minRange {
		return nil, ErrDegenerateData
	}

	m := &Model{minVal: minVal, maxVal: maxVal}

	data := mat.NewDense(len(samples), dim, nil)
	parallelRows(len(samples), p.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			m.scaleInto(data.RawRowView(i), samples[i])
		}
	})

	pca, err := FitPCA(data, p.Components)
	if err != nil {
		return nil, fmt.Errorf("failed to fit PCA: %w", err)
	}
	m.pca = pca

	features := make([][]float64, len(samples))
	parallelRows(len(samples), p.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			features[i] = pca.Project(data.RawRowView(i))
		}
	})

	svm, err := TrainSVM(features, labels, p.svm())
	if err != nil {
		return nil, fmt.Errorf("failed to train SVM: %w", err)
	}
	m.svm = svm
	return m, nil
}

func (m *Model) scaleInto(dst, src []float64) {
	span := m.maxVal - m.minVal
	for j, v := range src {
		dst[j] = (v - m.minVal) / span
	}
}

// Trained reports whether the model can make predictions.
func (m *Model) Trained() bool {
	return m != nil && m.pca != nil && m.svm != nil
}

// Range returns the scaling bounds learned at training time.
func (m *Model) Range() (minVal, maxVal float64) {
	return m.minVal, m.maxVal
}

// Components returns the PCA dimensionality, or 0 for an untrained model.
func (m *Model) Components() int {
	if !m.Trained() {
		return 0
	}
	return m.pca.Components()
}

// FeatureLen returns the expected input vector length, or 0 for an untrained
// model.
func (m *Model) FeatureLen() int {
	if !m.Trained() {
		return 0
	}
	return m.pca.Dim()
}

// PredictVector classifies a flattened sample.
func (m *Model) PredictVector(v []float64) int {
	if !m.Trained() || len(v) != m.pca.Dim() {
		return InvalidLabel
	}
	scaled := make([]float64, len(v))
	m.scaleInto(scaled, v)
	return m.svm.Predict(m.pca.Project(scaled))
}

// Predict classifies a normalized character image. Color input is converted
// to gray first.
func (m *Model) Predict(img gocv.Mat) int {
	if !m.Trained() || img.Empty() {
		return InvalidLabel
	}
	gray := plateimage.ToGray(img)
	defer gray.Close()
	return m.PredictVector(plateimage.Flatten(gray))
}

// Evaluate returns the fraction of samples predicted as their label.
func (m *Model) Evaluate(samples [][]float64, labels []int) float64 {
	if len(samples) == 0 || len(samples) != len(labels) {
		return 0
	}
	correct := make([]int, len(samples))
	parallelRows(len(samples), runtime.NumCPU(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if m.PredictVector(samples[i]) == labels[i] {
				correct[i] = 1
			}
		}
	})
	n := 0
	for _, c := range correct {
		n += c
	}
	return float64(n) / float64(len(samples))
}
