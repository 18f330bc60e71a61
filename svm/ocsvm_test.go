package svm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/kernel"
	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
)

// clusterData returns a 2 × 10 matrix: eight samples around the origin and
// two far away, with labels 2 pos, 6 unl, 2 neg (the far ones are negative).
func clusterData() (*mat.Dense, []int) {
	X := mat.NewDense(2, 10, []float64{
		0, 0.2, 0.1, -0.2, 0.1, -0.1, 0.3, 0, 3, -3,
		0, 0.1, -0.1, 0.1, 0.3, -0.2, 0, 0.2, 3, 2.5,
	})
	y := []int{1, 1, 0, 0, 0, 0, 0, 0, -1, -1}
	return X, y
}

func rbfGram(t *testing.T, X mat.Matrix, param float64) *mat.Dense {
	t.Helper()
	K, err := kernel.NewComputer().Gram(X, X, kernel.RBF, param)
	require.NoError(t, err)
	return K
}

func quietOCSVM(t *testing.T, K mat.Matrix, opts ...OCSVMOption) *OCSVM {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelError)
	m, err := NewOCSVM(K, append([]OCSVMOption{WithOCSVMLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestOCSVMFit(t *testing.T) {
	X, _ := clusterData()
	K := rbfGram(t, X, 1.0)
	m := quietOCSVM(t, K, WithC(0.5))

	require.NoError(t, m.Fit())
	assert.True(t, m.IsFitted())

	alphas := m.Alphas()
	var sum float64
	for _, a := range alphas {
		sum += a
		assert.GreaterOrEqual(t, a, -m.Precision())
		assert.LessOrEqual(t, a, 0.5+m.Precision())
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	require.NotEmpty(t, m.SupportVectors())

	svs := m.SupportVectors()
	scores, err := m.Apply(selectSubmatrix(K, svs, svs))
	require.NoError(t, err)
	assert.Equal(t, mat.Max(scores), m.Threshold())

	// Full-width and support-vector-width kernels score the same.
	full, err := m.Apply(K)
	require.NoError(t, err)
	narrow, err := m.Apply(selectColumns(K, svs))
	require.NoError(t, err)
	for i := 0; i < full.Len(); i++ {
		assert.InDelta(t, full.AtVec(i), narrow.AtVec(i), 1e-12)
	}

	assert.Len(t, m.SupportAlphas(), len(svs))
}

func TestOCSVMPredictFlagsFarSamples(t *testing.T) {
	X, _ := clusterData()
	m := quietOCSVM(t, rbfGram(t, X, 1.0), WithC(0.2))
	require.NoError(t, m.Fit())

	test := mat.NewDense(2, 2, []float64{
		0.05, 10,
		0.05, -10,
	})
	kTest, err := kernel.NewComputer().Gram(test, X, kernel.RBF, 1.0)
	require.NoError(t, err)

	preds, err := m.Predict(kTest)
	require.NoError(t, err)
	assert.Equal(t, -1, preds[1])

	scores, err := m.Apply(kTest)
	require.NoError(t, err)
	assert.Greater(t, scores.AtVec(0), scores.AtVec(1))
}

func TestOCSVMErrors(t *testing.T) {
	X, _ := clusterData()
	K := rbfGram(t, X, 1.0)

	t.Run("invalid options", func(t *testing.T) {
		var verr *mlerrors.ValidationError
		_, err := NewOCSVM(K, WithC(0))
		assert.ErrorAs(t, err, &verr)
		_, err = NewOCSVM(K, WithOCSVMPrecision(-1))
		assert.ErrorAs(t, err, &verr)
		_, err = NewOCSVM(nil)
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("non-square kernel", func(t *testing.T) {
		var derr *mlerrors.DimensionError
		_, err := NewOCSVM(mat.NewDense(2, 3, nil))
		assert.ErrorAs(t, err, &derr)
	})

	t.Run("not trained", func(t *testing.T) {
		m := quietOCSVM(t, K)
		_, err := m.Apply(K)
		assert.True(t, mlerrors.Is(err, mlerrors.ErrModelNotTrained))
	})

	t.Run("infeasible box", func(t *testing.T) {
		m := quietOCSVM(t, K, WithC(0.05))
		err := m.Fit()
		assert.True(t, mlerrors.Is(err, mlerrors.ErrInfeasibleConstraints))
		assert.False(t, m.IsFitted())
	})

	t.Run("wrong test width", func(t *testing.T) {
		m := quietOCSVM(t, K, WithC(0.5))
		require.NoError(t, m.Fit())
		width := len(m.SupportVectors()) + 1
		if width == 10 {
			width = 11
		}
		_, err := m.Apply(mat.NewDense(1, width, nil))
		assert.True(t, mlerrors.Is(err, mlerrors.ErrInvalidTestData))
	})

	t.Run("set kernel resets the model", func(t *testing.T) {
		m := quietOCSVM(t, K, WithC(0.5))
		require.NoError(t, m.Fit())
		require.NoError(t, m.SetTrainKernel(K))
		assert.False(t, m.IsFitted())

		var derr *mlerrors.DimensionError
		err := m.SetTrainKernel(mat.NewDense(3, 3, nil))
		assert.ErrorAs(t, err, &derr)
	})
}
