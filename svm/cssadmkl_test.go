package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/core/model"
	"github.com/YuminosukeSato/cssadmkl/kernel"
	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
	"github.com/YuminosukeSato/cssadmkl/qp"
)

// stubSolver returns fixed alphas, or err when set.
type stubSolver struct {
	alphas []float64
	err    error
	calls  int
}

func (s *stubSolver) Solve(p *qp.Problem) (*qp.Solution, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &qp.Solution{
		Status: qp.Optimal,
		X:      mat.NewVecDense(len(s.alphas), append([]float64(nil), s.alphas...)),
	}, nil
}

func newQuiet(t *testing.T, X mat.Matrix, y []int, opts ...Option) *CSSADMKL {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelError)
	m, err := NewCSSADMKL(X, y, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestCSSADMKLTrainDual(t *testing.T) {
	X, y := clusterData()
	m := newQuiet(t, X, y, WithKappa(0.5))
	require.NoError(t, m.TrainDual())
	require.True(t, m.IsFitted())

	alphas, box := m.Alphas(), m.Box()
	prec := m.Precision()
	var sumCy, sumLabeled float64
	for i, a := range alphas {
		assert.GreaterOrEqual(t, a, -prec, "alpha %d", i)
		assert.LessOrEqual(t, a, box[i]+prec, "alpha %d", i)
		switch y[i] {
		case -1:
			sumCy -= a
			sumLabeled += a
		case 1:
			sumCy += a
			sumLabeled += a
		default:
			sumCy += a
		}
	}
	assert.InDelta(t, 1.0, sumCy, 1e-6)
	assert.GreaterOrEqual(t, sumLabeled, 0.5-prec)

	require.NotEmpty(t, m.SupportVectors())
	assert.False(t, math.IsNaN(m.Threshold()) || math.IsInf(m.Threshold(), 0))

	scores, err := m.ApplyDual(X)
	require.NoError(t, err)
	for _, i := range []int{8, 9} {
		assert.Less(t, scores.AtVec(i), m.Threshold(), "outlier %d", i)
	}

	preds, err := m.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, -1, preds[8])
	assert.Equal(t, -1, preds[9])
}

func TestCSSADMKLSupportVectorsGrowWithSmallerPrecision(t *testing.T) {
	X, y := clusterData()
	coarse := newQuiet(t, X, y, WithKappa(0.5), WithPrecision(1e-3))
	fine := newQuiet(t, X, y, WithKappa(0.5), WithPrecision(1e-7))
	require.NoError(t, coarse.TrainDual())
	require.NoError(t, fine.TrainDual())

	fineSet := make(map[int]bool)
	for _, i := range fine.SupportVectors() {
		fineSet[i] = true
	}
	for _, i := range coarse.SupportVectors() {
		assert.True(t, fineSet[i], "support vector %d lost at smaller precision", i)
	}
}

func TestCSSADMKLMatchesOCSVMOnUnlabeledData(t *testing.T) {
	X, _ := clusterData()
	y := make([]int, 10)
	const c = 0.3

	m := newQuiet(t, X, y, WithCu(c), WithCp(c), WithKernelParams(1.0))
	require.NoError(t, m.TrainDual())
	assert.Equal(t, 0.0, m.Kappa())

	oc := quietOCSVM(t, rbfGram(t, X, 1.0), WithC(c), WithOCSVMPrecision(m.Precision()))
	require.NoError(t, oc.Fit())

	want := oc.Alphas()
	got := m.Alphas()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "alpha %d", i)
	}

	// Both models score with Σ α_j k(x, x_j) over their support vectors.
	scores, err := m.ApplyDual(X)
	require.NoError(t, err)
	ocScores, err := oc.Apply(rbfGram(t, X, 1.0))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.InDelta(t, ocScores.AtVec(i), scores.AtVec(i), 1e-6, "score %d", i)
	}
}

func TestCSSADMKLMultipleKernels(t *testing.T) {
	X, y := clusterData()
	m := newQuiet(t, X, y, WithKappa(0.5), WithKernelParams(0.5, 1, 2), WithMix(0.5))
	require.NoError(t, m.TrainDual())

	ids := m.KernelIDs()
	for i, label := range y {
		if label == -1 {
			assert.Equal(t, 2, ids[i], "negative %d is re-mixed every pass", i)
		} else {
			assert.Equal(t, 0, ids[i], "sample %d is mixed once", i)
		}
	}

	scores, err := m.ApplyDual(X)
	require.NoError(t, err)
	for i := 0; i < scores.Len(); i++ {
		assert.False(t, math.IsNaN(scores.AtVec(i)))
	}
}

func TestCSSADMKLSingleKernelScoresAreKernelSums(t *testing.T) {
	X, y := clusterData()
	m := newQuiet(t, X, y, WithKappa(0.5), WithKernelParams(1.0))
	require.NoError(t, m.TrainDual())

	test := mat.NewDense(2, 3, []float64{
		0, 1, -4,
		0, 0.5, 4,
	})
	scores, err := m.ApplyDual(test)
	require.NoError(t, err)

	alphas := m.Alphas()
	for j := 0; j < 3; j++ {
		x := mat.Col(nil, j, test)
		var want float64
		for _, sv := range m.SupportVectors() {
			cy := 1.0
			if y[sv] == -1 {
				cy = -1
			}
			want += alphas[sv] * cy * kernel.Evaluate(kernel.RBF, 1.0, x, mat.Col(nil, sv, X))
		}
		assert.InDelta(t, want, scores.AtVec(j), 1e-9)
	}
}

func TestCSSADMKLValidation(t *testing.T) {
	X, y := clusterData()

	tests := []struct {
		name string
		y    []int
		opts []Option
	}{
		{"non-positive Cp", y, []Option{WithCp(0)}},
		{"negative Cu", y, []Option{WithCu(-1)}},
		{"non-positive Cn", y, []Option{WithCn(0)}},
		{"negative kappa", y, []Option{WithKappa(-0.1)}},
		{"mix of zero", y, []Option{WithMix(0)}},
		{"mix above one", y, []Option{WithMix(1.5)}},
		{"no kernel parameters", y, []Option{WithKernelParams()}},
		{"non-positive precision", y, []Option{WithPrecision(0)}},
		{"unknown kernel", y, []Option{WithKernel(kernel.Type(42))}},
		{"label count mismatch", y[:5], nil},
		{"label out of range", []int{2, 0, 0, 0, 0, 0, 0, 0, 0, 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := log.NewTestLogger(log.LevelError)
			_, err := NewCSSADMKL(X, tt.y, append([]Option{WithLogger(logger)}, tt.opts...)...)
			var verr *mlerrors.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCSSADMKLKappaIsZeroWithoutLabels(t *testing.T) {
	X, _ := clusterData()
	logger, _ := log.NewTestLogger(log.LevelInfo)
	m, err := NewCSSADMKL(X, make([]int, 10), WithKappa(0.8), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Kappa())
	assert.True(t, logger.ContainsMessage("no labeled samples, setting kappa to 0"))
}

func TestCSSADMKLApplyErrors(t *testing.T) {
	X, y := clusterData()
	m := newQuiet(t, X, y, WithKappa(0.5))

	_, err := m.ApplyDual(X)
	assert.True(t, mlerrors.Is(err, mlerrors.ErrModelNotTrained))

	require.NoError(t, m.TrainDual())

	_, err = m.ApplyDual(mat.NewDense(3, 2, nil))
	assert.True(t, mlerrors.Is(err, mlerrors.ErrInvalidTestData))

	_, err = m.ApplyDual(nil)
	assert.True(t, mlerrors.Is(err, mlerrors.ErrInvalidTestData))

	_, err = m.Predict(mat.NewDense(1, 2, nil))
	assert.True(t, mlerrors.Is(err, mlerrors.ErrInvalidTestData))
}

func TestCSSADMKLInfeasibleKappa(t *testing.T) {
	X := mat.NewDense(1, 3, []float64{0, 0.1, 0.2})
	y := []int{1, 0, 0}
	solver := &stubSolver{}
	m := newQuiet(t, X, y, WithKappa(0.5), WithCp(0.3), WithSolver(solver))

	err := m.TrainDual()
	assert.True(t, mlerrors.Is(err, mlerrors.ErrInfeasibleConstraints))
	assert.False(t, m.IsFitted())
	assert.Zero(t, solver.calls, "infeasible problems never reach the solver")
}

func TestCSSADMKLSolverFailure(t *testing.T) {
	X, y := clusterData()
	solver := &stubSolver{err: mlerrors.NewSolverError("stub", "max_iterations", 3, false)}
	m := newQuiet(t, X, y, WithKappa(0.5), WithSolver(solver))

	err := m.TrainDual()
	assert.True(t, mlerrors.Is(err, mlerrors.ErrSolverFailed))
	assert.False(t, m.IsFitted())

	_, err = m.ApplyDual(X)
	assert.True(t, mlerrors.Is(err, mlerrors.ErrModelNotTrained))
}

func TestCSSADMKLNoSupportVectors(t *testing.T) {
	X, y := clusterData()
	m := newQuiet(t, X, y, WithKappa(0.5), WithSolver(&stubSolver{alphas: make([]float64, 10)}))

	err := m.TrainDual()
	assert.True(t, mlerrors.Is(err, mlerrors.ErrSolverFailed))
	assert.False(t, m.IsFitted())
}

func TestCSSADMKLGuessedThresholdWarns(t *testing.T) {
	X := mat.NewDense(1, 4, []float64{0, 0.1, 0.2, 5})
	y := []int{0, 0, 0, 0}
	logger, _ := log.NewTestLogger(log.LevelWarn)
	// Every support vector sits at its upper bound Cu = 0.5.
	solver := &stubSolver{alphas: []float64{0.5, 0.5, 0, 0}}

	var warnings []error
	mlerrors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { mlerrors.SetWarningHandler(func(error) {}) })

	m, err := NewCSSADMKL(X, y, WithCu(0.5), WithSolver(solver), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, m.TrainDual())

	scores, err := m.ApplyDual(selectColumns(X, []int{0, 1}))
	require.NoError(t, err)
	assert.InDelta(t, math.Max(scores.AtVec(0), scores.AtVec(1)), m.Threshold(), 1e-12)

	assert.True(t, logger.ContainsMessage("guessing threshold"))
	assert.True(t, logger.ContainsField("case", caseGuessUnlabeled))
	require.Len(t, warnings, 1)
	var tw *mlerrors.ThresholdWarning
	require.ErrorAs(t, warnings[0], &tw)
	assert.Equal(t, caseGuessUnlabeled, tw.Case)
	assert.Equal(t, 2, tw.SupportVectors)
}

func TestCSSADMKLWeightsRoundTrip(t *testing.T) {
	X, y := clusterData()
	m := newQuiet(t, X, y, WithKappa(0.5), WithKernelParams(0.5, 2), WithMix(0.7))

	_, err := m.Weights()
	assert.True(t, mlerrors.Is(err, mlerrors.ErrModelNotTrained))

	require.NoError(t, m.TrainDual())
	w, err := m.Weights()
	require.NoError(t, err)

	data, err := w.ToJSON()
	require.NoError(t, err)
	decoded := new(model.DualWeights)
	require.NoError(t, decoded.FromJSON(data))

	logger, _ := log.NewTestLogger(log.LevelError)
	restored, err := NewCSSADMKLFromWeights(decoded, WithLogger(logger))
	require.NoError(t, err)
	require.True(t, restored.IsFitted())
	assert.Equal(t, m.Threshold(), restored.Threshold())
	assert.Equal(t, m.Kappa(), restored.Kappa())
	assert.Equal(t, m.KernelIDs(), restored.KernelIDs())

	want, err := m.ApplyDual(X)
	require.NoError(t, err)
	got, err := restored.ApplyDual(X)
	require.NoError(t, err)
	for i := 0; i < want.Len(); i++ {
		assert.InDelta(t, want.AtVec(i), got.AtVec(i), 1e-12)
	}

	_, err = NewCSSADMKLFromWeights(nil)
	var verr *mlerrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	other := w.Clone()
	other.ModelType = "OCSVM"
	_, err = NewCSSADMKLFromWeights(other, WithLogger(logger))
	assert.ErrorAs(t, err, &verr)
}
