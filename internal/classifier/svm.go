package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SVMParams configures the C-SVC solver with an RBF kernel.
type SVMParams struct {
	C       float64
	Gamma   float64
	MaxIter int
	Tol     float64
}

// Decision is one pairwise (one-vs-one) decision function. A positive value
// votes for Positive, anything else for Negative. Both are indexes into
// SVM.Classes.
type Decision struct {
	Positive       int         `json:"positive"`
	Negative       int         `json:"negative"`
	SupportVectors [][]float64 `json:"support_vectors"`
	Coef           []float64   `json:"coef"`
	Rho            float64     `json:"rho"`
}

// SVM is a trained multi-class RBF classifier using one-vs-one voting.
type SVM struct {
	Gamma     float64    `json:"gamma"`
	C         float64    `json:"c"`
	Classes   []int      `json:"classes"`
	Decisions []Decision `json:"decisions"`
}

func rbf(gamma float64, a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-gamma * d * d)
}

// TrainSVM fits one binary machine per class pair.
func TrainSVM(x [][]float64, y []int, p SVMParams) (*SVM, error) {
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vectors, %d labels", ErrShapeMismatch, len(x), len(y))
	}
	if p.C <= 0 || p.Gamma <= 0 {
		return nil, fmt.Errorf("invalid SVM parameters C=%g gamma=%g", p.C, p.Gamma)
	}

	groups := make(map[int][]int)
	for i, label := range y {
		groups[label] = append(groups[label], i)
	}
	classes := make([]int, 0, len(groups))
	for label := range groups {
		classes = append(classes, label)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return nil, errors.New("training data contains a single class")
	}

	s := &SVM{Gamma: p.Gamma, C: p.C, Classes: classes}
	for a := 0; a < len(classes); a++ {
		for b := a + 1; b < len(classes); b++ {
			idx := append(append([]int(nil), groups[classes[a]]...), groups[classes[b]]...)
			px := make([][]float64, len(idx))
			py := make([]float64, len(idx))
			for k, i := range idx {
				px[k] = x[i]
				if k < len(groups[classes[a]]) {
					py[k] = 1
				} else {
					py[k] = -1
				}
			}
			alpha, rho := solveSMO(px, py, p)

			d := Decision{Positive: a, Negative: b, Rho: rho}
			for k := range alpha {
				if alpha[k] > 0 {
					d.SupportVectors = append(d.SupportVectors, px[k])
					d.Coef = append(d.Coef, alpha[k]*py[k])
				}
			}
			s.Decisions = append(s.Decisions, d)
		}
	}
	return s, nil
}

// Dim returns the feature length the machine expects, or 0 when it has no
// support vectors.
func (s *SVM) Dim() int {
	for _, d := range s.Decisions {
		if len(d.SupportVectors) > 0 {
			return len(d.SupportVectors[0])
		}
	}
	return 0
}

// Predict returns the class with the most pairwise votes. Ties go to the
// class that sorts first.
func (s *SVM) Predict(v []float64) int {
	if len(s.Classes) == 0 {
		return InvalidLabel
	}
	votes := make([]int, len(s.Classes))
	for _, d := range s.Decisions {
		if d.value(s.Gamma, v) > 0 {
			votes[d.Positive]++
		} else {
			votes[d.Negative]++
		}
	}
	best := 0
	for i := 1; i < len(votes); i++ {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return s.Classes[best]
}

func (d *Decision) value(gamma float64, v []float64) float64 {
	sum := -d.Rho
	for i, sv := range d.SupportVectors {
		sum += d.Coef[i] * rbf(gamma, sv, v)
	}
	return sum
}

// smo solves the dual of a binary C-SVC:
//
//	min 0.5 a'Qa - e'a  s.t.  y'a = 0, 0 <= a <= C
//
// with maximal violating pair working set selection.
type smo struct {
	x     [][]float64
	y     []float64
	gamma float64
	rows  [][]float64
}

func (s *smo) q(i int) []float64 {
	if s.rows[i] == nil {
		row := make([]float64, len(s.x))
		for k := range s.x {
			row[k] = s.y[i] * s.y[k] * rbf(s.gamma, s.x[i], s.x[k])
		}
		s.rows[i] = row
	}
	return s.rows[i]
}

func solveSMO(x [][]float64, y []float64, p SVMParams) ([]float64, float64) {
	n := len(x)
	s := &smo{x: x, y: y, gamma: p.Gamma, rows: make([][]float64, n)}
	c := p.C
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}

	upper := func(t int) bool {
		return (y[t] > 0 && alpha[t] < c) || (y[t] < 0 && alpha[t] > 0)
	}
	lower := func(t int) bool {
		return (y[t] > 0 && alpha[t] > 0) || (y[t] < 0 && alpha[t] < c)
	}

	for iter := 0; iter < p.MaxIter; iter++ {
		i, j := -1, -1
		gmax, gmin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -y[t] * grad[t]
			if upper(t) && v > gmax {
				gmax, i = v, t
			}
			if lower(t) && v < gmin {
				gmin, j = v, t
			}
		}
		if i < 0 || j < 0 || gmax-gmin < p.Tol {
			break
		}

		qi, qj := s.q(i), s.q(j)
		oldI, oldJ := alpha[i], alpha[j]

		if y[i] != y[j] {
			quad := qi[i] + qj[j] + 2*qi[j]
			if quad <= 0 {
				quad = 1e-12
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else if alpha[j] > c {
				alpha[j] = c
				alpha[i] = c + diff
			}
		} else {
			quad := qi[i] + qj[j] - 2*qi[j]
			if quad <= 0 {
				quad = 1e-12
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += qi[t]*dI + qj[t]*dJ
		}
	}

	return alpha, computeRho(alpha, grad, y, c)
}

// computeRho averages y*grad over free variables, falling back to the
// midpoint of the feasible interval when every variable is at a bound.
func computeRho(alpha, grad, y []float64, c float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sum, free := 0.0, 0
	for t := range alpha {
		yg := y[t] * grad[t]
		switch {
		case alpha[t] >= c:
			if y[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sum += yg
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
