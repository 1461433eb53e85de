package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Files written by Save inside the model directory.
const (
	PCAFile = "pca.yml"
	SVMFile = "svm.json"
)

type pcaRecord struct {
	MinVal       float64     `yaml:"min_val"`
	MaxVal       float64     `yaml:"max_val"`
	Components   int         `yaml:"num_components"`
	SVMC         float64     `yaml:"svm_c"`
	SVMGamma     float64     `yaml:"svm_gamma"`
	Mean         []float64   `yaml:"mean,flow"`
	Eigenvectors [][]float64 `yaml:"eigenvectors,flow"`
}

// Save writes the projection and the SVM into dir, creating it if needed.
func (m *Model) Save(dir string) error {
	if !m.Trained() {
		return ErrNotTrained
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	rec := pcaRecord{
		MinVal:       m.minVal,
		MaxVal:       m.maxVal,
		Components:   m.pca.Components(),
		SVMC:         m.svm.C,
		SVMGamma:     m.svm.Gamma,
		Mean:         m.pca.Mean(),
		Eigenvectors: m.pca.Rows(),
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to encode PCA: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, PCAFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write PCA: %w", err)
	}

	data, err = json.MarshalIndent(m.svm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode SVM: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SVMFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write SVM: %w", err)
	}
	return nil
}

// Load reads a model previously written by Save.
func Load(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, PCAFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read PCA: %w", err)
	}
	var rec pcaRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse PCA: %w", err)
	}
	if rec.MaxVal-rec.MinVal < minRange {
		return nil, fmt.Errorf("%w: stored range [%g, %g]", ErrDegenerateData, rec.MinVal, rec.MaxVal)
	}
	if rec.Components != len(rec.Eigenvectors) {
		return nil, fmt.Errorf("%w: num_components %d, %d eigenvectors",
			ErrShapeMismatch, rec.Components, len(rec.Eigenvectors))
	}
	pca, err := newPCA(rec.Mean, rec.Eigenvectors)
	if err != nil {
		return nil, err
	}

	data, err = os.ReadFile(filepath.Join(dir, SVMFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read SVM: %w", err)
	}
	var svm SVM
	if err := json.Unmarshal(data, &svm); err != nil {
		return nil, fmt.Errorf("failed to parse SVM: %w", err)
	}
	if err := svm.validate(pca.Components()); err != nil {
		return nil, err
	}

	return &Model{pca: pca, svm: &svm, minVal: rec.MinVal, maxVal: rec.MaxVal}, nil
}

func (s *SVM) validate(dim int) error {
	if len(s.Classes) < 2 {
		return fmt.Errorf("SVM has %d classes", len(s.Classes))
	}
	for i, d := range s.Decisions {
		if d.Positive < 0 || d.Positive >= len(s.Classes) || d.Negative < 0 || d.Negative >= len(s.Classes) {
			return fmt.Errorf("decision %d references unknown class", i)
		}
		if len(d.Coef) != len(d.SupportVectors) {
			return fmt.Errorf("%w: decision %d has %d coefficients for %d support vectors",
				ErrShapeMismatch, i, len(d.Coef), len(d.SupportVectors))
		}
		for _, sv := range d.SupportVectors {
			if len(sv) != dim {
				return fmt.Errorf("%w: support vector length %d, projection has %d components",
					ErrShapeMismatch, len(sv), dim)
			}
		}
	}
	return nil
}
