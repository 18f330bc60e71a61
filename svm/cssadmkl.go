package svm

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/core/model"
	"github.com/YuminosukeSato/cssadmkl/core/parallel"
	"github.com/YuminosukeSato/cssadmkl/kernel"
	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
	"github.com/YuminosukeSato/cssadmkl/qp"
)

const cssadName = "CSSADMKL"

// Rows above which score blending runs in parallel.
const blendParallelThreshold = 256

// CSSADMKL is a convex semi-supervised anomaly detector with multiple kernels
// (Görnitz et al., Towards Supervised Anomaly Detection, JAIR 2013), trained
// in the dual with the hinge loss and an L2 regularizer.
//
// Samples are the columns of X. Labels are +1 (normal), -1 (outlier) or 0
// (unlabeled). The kernels of successive parameters are blended into one
// matrix; after the first pass only negative samples are re-mixed.
type CSSADMKL struct {
	state *model.StateManager

	X       mat.Matrix
	y       []int
	dims    int
	samples int

	cy  []float64 // +1 positive and unlabeled, -1 negative
	cl  []float64 // 1 labeled, 0 unlabeled
	box []float64 // Cp, Cu or Cn per sample

	npos, nunl, nneg int

	kappa      float64
	cp, cu, cn float64
	kernelType kernel.Type
	params     []float64
	mix        float64
	precision  float64

	provider kernel.Provider
	solver   qp.Solver
	logger   log.Logger

	alphas    []float64
	svs       []int
	kernelIDs []int
	threshold float64
}

var (
	_ model.Detector = (*CSSADMKL)(nil)
	_ model.Exporter = (*CSSADMKL)(nil)
)

// NewCSSADMKL creates a detector over the dims × samples matrix X with one
// label per column.
func NewCSSADMKL(X mat.Matrix, y []int, opts ...Option) (*CSSADMKL, error) {
	m := &CSSADMKL{
		state:      model.NewStateManager(),
		kappa:      defaultKappa,
		cp:         defaultC,
		cu:         defaultC,
		cn:         defaultC,
		kernelType: kernel.RBF,
		params:     []float64{1.0},
		mix:        defaultMix,
		precision:  defaultPrecision,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName("svm.cssadmkl")
	}
	m.logger = m.logger.With(log.ModelNameKey, cssadName)

	if err := m.validate(X, y); err != nil {
		m.logger.Error("invalid configuration", err)
		return nil, err
	}
	if m.provider == nil {
		m.provider = kernel.NewComputer(kernel.WithLogger(m.logger))
	}
	if m.solver == nil {
		m.solver = qp.NewInteriorPoint(qp.WithLogger(m.logger))
	}

	m.X = X
	m.y = append([]int(nil), y...)
	m.dims, m.samples = X.Dims()
	m.state.SetDimensions(m.dims, m.samples)

	m.cy = make([]float64, m.samples)
	m.cl = make([]float64, m.samples)
	m.box = make([]float64, m.samples)
	for i, label := range m.y {
		m.cy[i], m.cl[i], m.box[i] = 1, 1, m.cp
		switch label {
		case 0:
			m.nunl++
			m.cl[i] = 0
			m.box[i] = m.cu
		case -1:
			m.nneg++
			m.cy[i] = -1
			m.box[i] = m.cn
		}
	}
	m.npos = m.samples - m.nneg - m.nunl

	// With no labeled sample Σ_labeled α = 0, so any kappa > 0 is unreachable.
	if m.nunl == m.samples && m.kappa != 0 {
		m.logger.Info("no labeled samples, setting kappa to 0", log.KappaKey, m.kappa)
		m.kappa = 0
	}

	m.logger.Info("created convex semi-supervised anomaly detector",
		log.FeaturesKey, m.dims,
		log.SamplesKey, m.samples,
		log.PositivesKey, m.npos,
		log.UnlabeledKey, m.nunl,
		log.NegativesKey, m.nneg,
		log.KernelTypeKey, m.kernelType.String(),
		log.KernelParamKey, m.params,
	)
	return m, nil
}

func (m *CSSADMKL) validate(X mat.Matrix, y []int) error {
	switch {
	case !(m.cp > 0):
		return mlerrors.NewValidationError("Cp", "must be positive", m.cp)
	case !(m.cu > 0):
		return mlerrors.NewValidationError("Cu", "must be positive", m.cu)
	case !(m.cn > 0):
		return mlerrors.NewValidationError("Cn", "must be positive", m.cn)
	case !(m.kappa >= 0):
		return mlerrors.NewValidationError("kappa", "must be non-negative", m.kappa)
	case !(m.mix > 0 && m.mix <= 1):
		return mlerrors.NewValidationError("mix", "must be in (0, 1]", m.mix)
	case len(m.params) == 0:
		return mlerrors.NewValidationError("kernel_params", "at least one kernel parameter is required", m.params)
	case !(m.precision > 0):
		return mlerrors.NewValidationError("precision", "must be positive", m.precision)
	case !m.kernelType.Valid():
		return mlerrors.NewValidationError("kernel", "unknown kernel type", int(m.kernelType))
	case X == nil:
		return mlerrors.NewValidationError("X", "training data is required", nil)
	}
	if _, n := X.Dims(); len(y) != n {
		return mlerrors.NewValidationError("y", fmt.Sprintf("expected %d labels, got %d", n, len(y)), len(y))
	}
	for i, label := range y {
		if label < -1 || label > 1 {
			return mlerrors.NewValidationError("y", fmt.Sprintf("label at %d must be -1, 0 or 1", i), label)
		}
	}
	return nil
}

// TrainDual trains the detector, one mixing pass per kernel parameter.
func (m *CSSADMKL) TrainDual() error {
	start := time.Now()
	m.state.Reset()
	n := m.samples
	P := filledDense(n, n, 1)
	kernelIDs := make([]int, n)
	m.kernelIDs = kernelIDs

	selected := make([]int, n)
	for i := range selected {
		selected[i] = i
	}

	for i, par := range m.params {
		m.logger.Info("mixing kernel",
			log.IterationKey, i,
			log.KernelParamKey, par,
			log.SelectedKey, len(selected),
		)
		Q, err := m.provider.Gram(m.X, m.X, m.kernelType, par)
		if err != nil {
			m.state.Reset()
			m.logger.Error("kernel computation failed", err, log.KernelParamKey, par)
			return mlerrors.Wrapf(err, "CSSADMKL.TrainDual: kernel parameter %g", par)
		}

		sigma := m.sigma(i)
		for _, j := range selected {
			row := P.RawRowView(j)
			floats.Scale(1-sigma, row)
			floats.AddScaled(row, sigma, Q.RawRowView(j))
			diag := P.At(j, j)
			for r := 0; r < n; r++ {
				P.Set(r, j, (1-sigma)*P.At(r, j)+sigma*Q.At(r, j))
			}
			P.Set(j, j, diag)
			kernelIDs[j] = i
		}

		if err := m.trainDualInner(P); err != nil {
			m.state.Reset()
			return err
		}

		selected = selected[:0]
		for j, label := range m.y {
			if label == -1 {
				selected = append(selected, j)
			}
		}
	}

	svIDs := make([]int, len(m.svs))
	for k, i := range m.svs {
		svIDs[k] = kernelIDs[i]
	}
	m.logger.Debug("kernel ids of support vectors", "kernel_ids", svIDs)
	m.logger.Info("training finished",
		log.SupportVectorsKey, len(m.svs),
		log.ThresholdKey, m.threshold,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *CSSADMKL) sigma(iteration int) float64 {
	if iteration == 0 {
		return 1
	}
	return m.mix
}

// trainDualInner solves
//
//	minimize   ½ αᵀ(Y∘P)α,  Y = cy cyᵀ
//	subject to Σ cy_i α_i = 1
//	           0 ≤ α_i ≤ C_i
//	           Σ cl_i α_i ≥ kappa   (only with labeled samples)
//
// then recomputes support vectors and the threshold.
func (m *CSSADMKL) trainDualInner(P *mat.Dense) error {
	if m.samples < 1 || m.dims < 1 {
		err := mlerrors.NewInvalidTrainingDataError("CSSADMKL.TrainDual", "no samples or no dimensions")
		m.logger.Error("invalid training data", err)
		return err
	}
	n := m.samples
	labeled := m.npos+m.nneg > 0

	capacity := classCapacity{
		pos: m.cp * float64(m.npos),
		unl: m.cu * float64(m.nunl),
		neg: m.cn * float64(m.nneg),
	}
	if ok, reason := cssadFeasible(capacity, m.kappa, m.precision, labeled); !ok {
		err := mlerrors.NewInfeasibleError("CSSADMKL.TrainDual", reason)
		m.logger.Error("infeasible constraints", err,
			log.KappaKey, m.kappa,
			log.PositivesKey, m.npos,
			log.UnlabeledKey, m.nunl,
			log.NegativesKey, m.nneg,
		)
		return err
	}

	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			K.SetSym(i, j, m.cy[i]*m.cy[j]*P.At(i, j))
		}
	}

	var (
		extra  []qp.Triplet
		extraH []float64
	)
	if labeled {
		for i, c := range m.cl {
			if c != 0 {
				extra = append(extra, qp.Triplet{Row: 0, Col: i, Value: -c})
			}
		}
		extraH = []float64{-m.kappa}
	} else {
		m.logger.Debug("no labeled data, dropping the kappa constraint")
	}
	G, h := boxConstraints(m.box, extra, extraH)

	sol, err := m.solver.Solve(&qp.Problem{
		P: K,
		G: G,
		H: h,
		A: mat.NewDense(1, n, append([]float64(nil), m.cy...)),
		B: mat.NewVecDense(1, []float64{1}),
	})
	if err != nil {
		m.logger.Error("qp solve failed", err)
		return mlerrors.Wrap(err, "CSSADMKL.TrainDual")
	}

	alphas := make([]float64, n)
	copy(alphas, sol.X.RawVector().Data)
	svs := supportVectors(alphas, m.precision)
	if len(svs) == 0 {
		err := mlerrors.NewModelError("CSSADMKL.TrainDual", "no alpha exceeds the precision", mlerrors.ErrSolverFailed)
		m.logger.Error("no support vectors found", err)
		return err
	}
	m.alphas, m.svs = alphas, svs
	m.state.SetFitted()

	m.logSolution(sol.Iterations)

	res, err := inferThreshold(thresholdInput{
		svs:       m.svs,
		alphas:    m.alphas,
		box:       m.box,
		labels:    m.y,
		precision: m.precision,
	}, m.scoreTraining)
	if err != nil {
		m.state.Reset()
		m.logger.Error("threshold inference failed", err)
		return err
	}
	m.threshold = res.Value
	if res.Fallback {
		for _, step := range res.Steps {
			m.logger.Warn("guessing threshold", "case", step.Case, log.ThresholdKey, step.Value)
		}
		m.logger.Warn("no support vector inside its box, threshold guessed",
			"case", res.Case,
			log.SupportVectorsKey, len(m.svs),
			log.ThresholdKey, res.Value,
		)
		mlerrors.Warn(mlerrors.NewThresholdWarning(res.Case, len(m.svs), res.Value))
	}

	scores, err := m.scoreTraining(m.svs)
	if err != nil {
		m.state.Reset()
		return err
	}
	outliers := 0
	for _, s := range scores {
		if s < m.threshold-m.precision {
			outliers++
		}
	}
	m.logger.Info("dual solved",
		log.SupportVectorsKey, len(m.svs),
		log.OutliersKey, outliers,
		log.ThresholdKey, m.threshold,
		"threshold_case", res.Case,
	)
	return nil
}

// logSolution logs the constraint sums of the current solution.
func (m *CSSADMKL) logSolution(iterations int) {
	if !m.logger.Enabled(context.Background(), log.LevelDebug) {
		return
	}
	var all, sv, lab, unl, pos, neg float64
	for i, a := range m.alphas {
		all += a * m.cy[i]
		lab += a * m.cl[i]
		unl += a * (1 - m.cl[i])
		switch {
		case m.y[i] >= 1:
			pos += a
		case m.y[i] <= -1:
			neg += a
		}
	}
	for _, i := range m.svs {
		sv += m.alphas[i] * m.cy[i]
	}
	m.logger.Debug("validate solution",
		log.QPIterationsKey, iterations,
		log.SupportVectorsKey, len(m.svs),
		"sum_alpha_cy", all,
		"sum_sv_alpha_cy", sv,
		"sum_labeled", lab,
		log.KappaKey, m.kappa,
		"sum_unlabeled", unl,
		"sum_positive", pos,
		"sum_negative", neg,
	)
}

// scoreTraining scores the training samples at idx.
func (m *CSSADMKL) scoreTraining(idx []int) ([]float64, error) {
	scores, err := m.score(selectColumns(m.X, idx))
	if err != nil {
		return nil, err
	}
	return scores.RawVector().Data, nil
}

// ApplyDual scores the columns of Y. Lower scores are more anomalous.
func (m *CSSADMKL) ApplyDual(Y mat.Matrix) (*mat.VecDense, error) {
	if Y == nil {
		err := mlerrors.NewInvalidTestDataError("CSSADMKL.ApplyDual", "test data is required")
		m.logger.Error("invalid test data", err)
		return nil, err
	}
	tdims, tN := Y.Dims()
	if tdims != m.dims || tN < 1 {
		err := mlerrors.Mark(mlerrors.NewDimensionError("CSSADMKL.ApplyDual", m.dims, tdims, 0), mlerrors.ErrInvalidTestData)
		m.logger.Error("invalid test data", err, log.SamplesKey, tN)
		return nil, err
	}
	if err := m.state.RequireFitted(cssadName, "ApplyDual"); err != nil {
		m.logger.Error("model not trained", err)
		return nil, err
	}
	return m.score(Y)
}

// score blends the kernels between Y and the support vectors the same way
// training blended them, then takes the weighted sum over support vectors.
func (m *CSSADMKL) score(Y mat.Matrix) (*mat.VecDense, error) {
	_, ny := Y.Dims()
	nsv := len(m.svs)
	svX := selectColumns(m.X, m.svs)

	P := filledDense(ny, nsv, 1)
	for i, par := range m.params {
		Q, err := m.provider.Gram(Y, svX, m.kernelType, par)
		if err != nil {
			m.logger.Error("kernel computation failed", err, log.KernelParamKey, par)
			return nil, mlerrors.Wrapf(err, "CSSADMKL.ApplyDual: kernel parameter %g", par)
		}
		sigma := m.sigma(i)
		var cols []int
		for j, sv := range m.svs {
			if m.kernelIDs[sv] >= i {
				cols = append(cols, j)
			}
		}
		parallel.ChunksAbove(ny, blendParallelThreshold, func(lo, hi int) {
			for r := lo; r < hi; r++ {
				prow, qrow := P.RawRowView(r), Q.RawRowView(r)
				for _, j := range cols {
					prow[j] = (1-sigma)*prow[j] + sigma*qrow[j]
				}
			}
		})
	}

	weights := mat.NewVecDense(nsv, nil)
	for j, sv := range m.svs {
		weights.SetVec(j, m.alphas[sv]*m.cy[sv])
	}
	scores := mat.NewVecDense(ny, nil)
	scores.MulVec(P, weights)
	return scores, nil
}

// Predict returns +1 for columns scoring at least threshold - precision and
// -1 otherwise.
func (m *CSSADMKL) Predict(Y mat.Matrix) ([]int, error) {
	scores, err := m.ApplyDual(Y)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("predicted", log.PredsKey, scores.Len(), log.ThresholdKey, m.threshold)
	return classify(scores, m.threshold-m.precision), nil
}

// Threshold returns the current threshold.
func (m *CSSADMKL) Threshold() float64 { return m.threshold }

// SupportVectors returns the indices of the support vectors.
func (m *CSSADMKL) SupportVectors() []int { return append([]int(nil), m.svs...) }

// Alphas returns the dual coefficients of every training sample.
func (m *CSSADMKL) Alphas() []float64 { return append([]float64(nil), m.alphas...) }

// KernelIDs returns, per sample, the index of the last kernel parameter mixed
// into its row and column.
func (m *CSSADMKL) KernelIDs() []int { return append([]int(nil), m.kernelIDs...) }

// Kappa returns the effective kappa, which is 0 when no sample is labeled.
func (m *CSSADMKL) Kappa() float64 { return m.kappa }

// Precision returns the support vector tolerance.
func (m *CSSADMKL) Precision() float64 { return m.precision }

// Box returns the upper bound of every alpha.
func (m *CSSADMKL) Box() []float64 { return append([]float64(nil), m.box...) }

// IsFitted reports whether training has succeeded.
func (m *CSSADMKL) IsFitted() bool { return m.state.IsFitted() }
