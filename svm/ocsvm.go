package svm

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/core/model"
	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
	"github.com/YuminosukeSato/cssadmkl/qp"
)

const ocsvmName = "OCSVM"

// OCSVM is a one-class support vector machine trained in the dual on a
// precomputed kernel matrix (Schölkopf et al., 1999).
type OCSVM struct {
	state *model.StateManager

	kernel    mat.Matrix
	samples   int
	c         float64
	precision float64
	solver    qp.Solver
	logger    log.Logger

	alphas    []float64
	svs       []int
	threshold float64
}

// NewOCSVM creates a one-class SVM over the N × N training kernel K.
func NewOCSVM(K mat.Matrix, opts ...OCSVMOption) (*OCSVM, error) {
	m := &OCSVM{
		state:     model.NewStateManager(),
		c:         defaultC,
		precision: defaultOCSVMPrecision,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName("svm.ocsvm")
	}
	m.logger = m.logger.With(log.ModelNameKey, ocsvmName)

	if !(m.c > 0) {
		return nil, mlerrors.NewValidationError("C", "must be positive", m.c)
	}
	if !(m.precision > 0) {
		return nil, mlerrors.NewValidationError("precision", "must be positive", m.precision)
	}
	if m.solver == nil {
		m.solver = qp.NewInteriorPoint()
	}
	if err := m.setKernel(K); err != nil {
		return nil, err
	}

	m.logger.Info("created one-class svm", log.SamplesKey, m.samples, "C", m.c)
	return m, nil
}

func (m *OCSVM) setKernel(K mat.Matrix) error {
	if K == nil {
		return mlerrors.NewValidationError("K", "kernel matrix is required", nil)
	}
	r, c := K.Dims()
	if r != c {
		return mlerrors.NewDimensionError("OCSVM.SetTrainKernel", r, c, 1)
	}
	if m.kernel != nil && r != m.samples {
		return mlerrors.NewDimensionError("OCSVM.SetTrainKernel", m.samples, r, 0)
	}
	m.kernel = K
	m.samples = r
	m.state.SetDimensions(r, r)
	return nil
}

// SetTrainKernel replaces the training kernel. The sample count must not
// change. The model has to be fitted again afterwards.
func (m *OCSVM) SetTrainKernel(K mat.Matrix) error {
	if err := m.setKernel(K); err != nil {
		m.logger.Error("kernel has the wrong format", err)
		return err
	}
	m.state.Reset()
	m.alphas, m.svs, m.threshold = nil, nil, 0
	return nil
}

// Fit solves
//
//	minimize ½ αᵀKα  subject to  0 ≤ α_i ≤ C, Σ α_i = 1
//
// and sets the threshold to the largest support vector score.
func (m *OCSVM) Fit() error {
	start := time.Now()
	n := m.samples
	if n < 1 {
		err := mlerrors.NewInvalidTrainingDataError("OCSVM.Fit", "kernel has no samples")
		m.logger.Error("invalid training data", err)
		return err
	}
	if !ocsvmFeasible(n, m.c) {
		err := mlerrors.NewInfeasibleError("OCSVM.Fit", "N*C < 1, alphas cannot sum to one")
		m.logger.Error("infeasible constraints", err, log.SamplesKey, n, "C", m.c)
		return err
	}

	P := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			P.SetSym(i, j, m.kernel.At(i, j))
		}
	}
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = m.c
	}
	G, h := boxConstraints(upper, nil, nil)
	problem := &qp.Problem{
		P: P,
		G: G,
		H: h,
		A: filledDense(1, n, 1),
		B: mat.NewVecDense(1, []float64{1}),
	}

	sol, err := m.solver.Solve(problem)
	if err != nil {
		m.logger.Error("qp solve failed", err)
		return mlerrors.Wrap(err, "OCSVM.Fit")
	}

	alphas := make([]float64, n)
	copy(alphas, sol.X.RawVector().Data)
	svs := supportVectors(alphas, m.precision)
	if len(svs) == 0 {
		err := mlerrors.NewModelError("OCSVM.Fit", "no alpha exceeds the precision", mlerrors.ErrSolverFailed)
		m.logger.Error("no support vectors found", err)
		return err
	}
	m.alphas, m.svs = alphas, svs
	m.state.SetFitted()

	scores, err := m.Apply(selectSubmatrix(m.kernel, svs, svs))
	if err != nil {
		m.state.Reset()
		return err
	}
	m.threshold = mat.Max(scores)

	outliers := countBelow(scores, m.threshold-m.precision)
	m.logger.Info("training finished",
		log.SupportVectorsKey, len(svs),
		log.OutliersKey, outliers,
		log.ThresholdKey, m.threshold,
		log.QPIterationsKey, sol.Iterations,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Apply scores test samples from their kernel values against the training
// set. kTest has one row per test sample and either one column per training
// sample or one column per support vector, in support vector order. Lower
// scores are more anomalous.
func (m *OCSVM) Apply(kTest mat.Matrix) (*mat.VecDense, error) {
	if kTest == nil {
		err := mlerrors.NewInvalidTestDataError("OCSVM.Apply", "kernel matrix is required")
		m.logger.Error("invalid test data", err)
		return nil, err
	}
	tN, cols := kTest.Dims()
	if tN < 1 {
		err := mlerrors.NewInvalidTestDataError("OCSVM.Apply", "kernel has no rows")
		m.logger.Error("invalid test data", err)
		return nil, err
	}
	if err := m.state.RequireFitted(ocsvmName, "Apply"); err != nil {
		m.logger.Error("model not trained", err)
		return nil, err
	}

	var colIdx []int
	switch cols {
	case m.samples:
		colIdx = m.svs
	case len(m.svs):
		colIdx = nil
	default:
		err := mlerrors.Mark(mlerrors.NewDimensionError("OCSVM.Apply", m.samples, cols, 1), mlerrors.ErrInvalidTestData)
		m.logger.Error("invalid test data", err)
		return nil, err
	}

	scores := mat.NewVecDense(tN, nil)
	for i := 0; i < tN; i++ {
		var s float64
		for k, sv := range m.svs {
			j := k
			if colIdx != nil {
				j = colIdx[k]
			}
			s += kTest.At(i, j) * m.alphas[sv]
		}
		scores.SetVec(i, s)
	}
	return scores, nil
}

// Predict returns +1 for samples scoring at least threshold - precision and
// -1 otherwise.
func (m *OCSVM) Predict(kTest mat.Matrix) ([]int, error) {
	scores, err := m.Apply(kTest)
	if err != nil {
		return nil, err
	}
	return classify(scores, m.threshold-m.precision), nil
}

// Threshold returns the fitted threshold.
func (m *OCSVM) Threshold() float64 { return m.threshold }

// SupportVectors returns the indices of the support vectors.
func (m *OCSVM) SupportVectors() []int { return append([]int(nil), m.svs...) }

// Alphas returns the dual coefficients of every training sample.
func (m *OCSVM) Alphas() []float64 { return append([]float64(nil), m.alphas...) }

// SupportAlphas returns the dual coefficients of the support vectors.
func (m *OCSVM) SupportAlphas() []float64 {
	out := make([]float64, len(m.svs))
	for k, i := range m.svs {
		out[k] = m.alphas[i]
	}
	return out
}

// IsFitted reports whether Fit has succeeded.
func (m *OCSVM) IsFitted() bool { return m.state.IsFitted() }

// Precision returns the support vector tolerance.
func (m *OCSVM) Precision() float64 { return m.precision }
