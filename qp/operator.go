package qp

import "gonum.org/v1/gonum/mat"

// operator is the subset of matrix products the solver needs from G and A.
type operator interface {
	Dims() (r, c int)
	MulVec(dst, x []float64)
	MulTransVec(dst, v []float64)
	ScaledGram(dst *mat.Dense, w []float64)
}

// asOperator returns m itself when it is *Sparse and a dense copy otherwise.
// A nil matrix yields nil.
func asOperator(m mat.Matrix) operator {
	switch m := m.(type) {
	case nil:
		return nil
	case *Sparse:
		return m
	default:
		return &denseOperator{m: mat.DenseCopyOf(m)}
	}
}

type denseOperator struct {
	m *mat.Dense
}

func (d *denseOperator) Dims() (int, int) { return d.m.Dims() }

func (d *denseOperator) MulVec(dst, x []float64) {
	r, _ := d.m.Dims()
	out := mat.NewVecDense(r, dst)
	out.MulVec(d.m, mat.NewVecDense(len(x), x))
}

func (d *denseOperator) MulTransVec(dst, v []float64) {
	_, c := d.m.Dims()
	out := mat.NewVecDense(c, dst)
	out.MulVec(d.m.T(), mat.NewVecDense(len(v), v))
}

func (d *denseOperator) ScaledGram(dst *mat.Dense, w []float64) {
	var wm mat.Dense
	wm.Apply(func(i, _ int, v float64) float64 { return w[i] * v }, d.m)
	var g mat.Dense
	g.Mul(d.m.T(), &wm)
	dst.Add(dst, &g)
}
