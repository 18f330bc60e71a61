// Package qp solves convex quadratic programs
//
//	minimize    ½ xᵀPx + qᵀx
//	subject to  Gx ≤ h
//	            Ax = b
//
// with a primal-dual interior point method.
package qp

import (
	"gonum.org/v1/gonum/mat"

	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// Problem describes a convex QP. P must be positive semidefinite. Q, G/H and
// A/B may be nil; G and A may be *Sparse.
type Problem struct {
	P mat.Symmetric
	Q mat.Vector
	G mat.Matrix
	H mat.Vector
	A mat.Matrix
	B mat.Vector
}

// Status reports how a solve ended.
type Status int

const (
	// Optimal means the residuals and the duality gap are within tolerance.
	Optimal Status = iota
	// PrimalInfeasible means the constraints admit no solution.
	PrimalInfeasible
	// DualInfeasible means the objective is unbounded below.
	DualInfeasible
	// MaxIterations means the iteration limit was hit before convergence.
	MaxIterations
	// NumericalError means the KKT system became singular or non-finite.
	NumericalError
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case PrimalInfeasible:
		return "primal_infeasible"
	case DualInfeasible:
		return "dual_infeasible"
	case MaxIterations:
		return "max_iterations"
	case NumericalError:
		return "numerical_error"
	default:
		return "unknown"
	}
}

// Infeasible reports whether s is one of the infeasibility statuses.
func (s Status) Infeasible() bool {
	return s == PrimalInfeasible || s == DualInfeasible
}

// Solution holds the iterate a solve ended with.
type Solution struct {
	Status Status

	// X is the primal solution; Y and Z are the multipliers of the equality
	// and inequality constraints, S the inequality slacks.
	X *mat.VecDense
	Y []float64
	Z []float64
	S []float64

	Iterations      int
	PrimalObjective float64
	DualObjective   float64
	Gap             float64
	PrimalResidual  float64
	DualResidual    float64
}

// Solver solves a Problem.
type Solver interface {
	Solve(p *Problem) (*Solution, error)
}

// dims validates the shapes of p and returns n (variables), m (inequalities)
// and k (equalities).
func (p *Problem) dims() (n, m, k int, err error) {
	if p == nil || p.P == nil {
		return 0, 0, 0, mlerrors.NewValidationError("P", "quadratic term is required", nil)
	}
	n = p.P.SymmetricDim()
	if n == 0 {
		return 0, 0, 0, mlerrors.WithStack(mlerrors.ErrEmptyData)
	}
	if p.Q != nil && p.Q.Len() != n {
		return 0, 0, 0, mlerrors.NewDimensionError("qp.Q", n, p.Q.Len(), 0)
	}

	if (p.G == nil) != (p.H == nil) {
		return 0, 0, 0, mlerrors.NewValidationError("G", "G and H must be given together", nil)
	}
	if p.G != nil {
		var c int
		m, c = p.G.Dims()
		if c != n {
			return 0, 0, 0, mlerrors.NewDimensionError("qp.G", n, c, 1)
		}
		if p.H.Len() != m {
			return 0, 0, 0, mlerrors.NewDimensionError("qp.H", m, p.H.Len(), 0)
		}
	}

	if (p.A == nil) != (p.B == nil) {
		return 0, 0, 0, mlerrors.NewValidationError("A", "A and B must be given together", nil)
	}
	if p.A != nil {
		var c int
		k, c = p.A.Dims()
		if c != n {
			return 0, 0, 0, mlerrors.NewDimensionError("qp.A", n, c, 1)
		}
		if p.B.Len() != k {
			return 0, 0, 0, mlerrors.NewDimensionError("qp.B", k, p.B.Len(), 0)
		}
	}
	return n, m, k, nil
}

// vecData copies v into a new slice; nil yields n zeros.
func vecData(v mat.Vector, n int) []float64 {
	out := make([]float64, n)
	if v == nil {
		return out
	}
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
