package svm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/qp"
)

// selectColumns copies the listed columns of m into a new matrix.
func selectColumns(m mat.Matrix, idx []int) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, len(idx), nil)
	for k, j := range idx {
		for i := 0; i < r; i++ {
			out.Set(i, k, m.At(i, j))
		}
	}
	return out
}

// selectSubmatrix copies m[rows, cols].
func selectSubmatrix(m mat.Matrix, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for a, i := range rows {
		for b, j := range cols {
			out.Set(a, b, m.At(i, j))
		}
	}
	return out
}

// filledDense returns an r × c matrix with every entry set to v.
func filledDense(r, c int, v float64) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(r, c, data)
}

// boxConstraints returns G and h for 0 ≤ α_i ≤ upper_i, with optional extra
// rows appended after the 2N bound rows.
func boxConstraints(upper []float64, extra []qp.Triplet, extraH []float64) (*qp.Sparse, *mat.VecDense) {
	n := len(upper)
	rows := 2*n + len(extraH)
	entries := make([]qp.Triplet, 0, 2*n+len(extra))
	h := mat.NewVecDense(rows, nil)
	for i, u := range upper {
		entries = append(entries,
			qp.Triplet{Row: i, Col: i, Value: 1},
			qp.Triplet{Row: n + i, Col: i, Value: -1},
		)
		h.SetVec(i, u)
	}
	for _, e := range extra {
		entries = append(entries, qp.Triplet{Row: 2*n + e.Row, Col: e.Col, Value: e.Value})
	}
	for k, v := range extraH {
		h.SetVec(2*n+k, v)
	}
	return qp.NewSparse(rows, n, entries), h
}

// supportVectors returns {i : alphas[i] > precision}.
func supportVectors(alphas []float64, precision float64) []int {
	var svs []int
	for i, a := range alphas {
		if a > precision {
			svs = append(svs, i)
		}
	}
	return svs
}

// countBelow counts the scores below limit.
func countBelow(scores mat.Vector, limit float64) int {
	cnt := 0
	for i := 0; i < scores.Len(); i++ {
		if scores.AtVec(i) < limit {
			cnt++
		}
	}
	return cnt
}

// classify maps scores to +1 (normal) at or above limit and -1 below.
func classify(scores mat.Vector, limit float64) []int {
	out := make([]int, scores.Len())
	for i := range out {
		if scores.AtVec(i) >= limit {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}
