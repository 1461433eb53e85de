package classifier

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA is a learned linear projection: a mean vector and K orthonormal
// component rows, ordered by decreasing variance.
type PCA struct {
	mean  []float64
	basis *mat.Dense // K x D
}

// FitPCA computes the mean and the top k principal directions of the rows
// of data. k is capped at the number of directions the data supports.
func FitPCA(data *mat.Dense, k int) (*PCA, error) {
	n, d := data.Dims()
	if n == 0 || d == 0 {
		return nil, errors.New("no data to fit")
	}
	if k <= 0 {
		return nil, fmt.Errorf("invalid component count %d", k)
	}

	mean := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, data)
		mean[j] = stat.Mean(col, nil)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, errors.New("principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	_, c := vecs.Dims()
	k = min(k, c)
	basis := mat.NewDense(k, d, nil)
	basis.Copy(vecs.Slice(0, d, 0, k).T())

	return &PCA{mean: mean, basis: basis}, nil
}

// newPCA restores a projection from persisted values.
func newPCA(mean []float64, rows [][]float64) (*PCA, error) {
	if len(mean) == 0 || len(rows) == 0 {
		return nil, errors.New("empty PCA basis")
	}
	basis := mat.NewDense(len(rows), len(mean), nil)
	for i, row := range rows {
		if len(row) != len(mean) {
			return nil, fmt.Errorf("%w: eigenvector %d has %d values, mean has %d",
				ErrShapeMismatch, i, len(row), len(mean))
		}
		basis.SetRow(i, row)
	}
	return &PCA{mean: append([]float64(nil), mean...), basis: basis}, nil
}

// Components returns K.
func (p *PCA) Components() int {
	k, _ := p.basis.Dims()
	return k
}

// Dim returns the input vector length D.
func (p *PCA) Dim() int {
	return len(p.mean)
}

// Project maps x (length D) to its K coordinates in the basis.
func (p *PCA) Project(x []float64) []float64 {
	centered := make([]float64, len(x))
	floats.SubTo(centered, x, p.mean)

	k := p.Components()
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = floats.Dot(p.basis.RawRowView(i), centered)
	}
	return out
}

// Mean returns a copy of the mean vector.
func (p *PCA) Mean() []float64 {
	return append([]float64(nil), p.mean...)
}

// Rows returns a copy of the component vectors.
func (p *PCA) Rows() [][]float64 {
	k := p.Components()
	rows := make([][]float64, k)
	for i := 0; i < k; i++ {
		rows[i] = mat.Row(nil, i, p.basis)
	}
	return rows
}
