package svm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/core/model"
	"github.com/YuminosukeSato/cssadmkl/kernel"
	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// Hyperparameter keys of the exported weights.
const (
	hpKappa     = "kappa"
	hpCp        = "cp"
	hpCu        = "cu"
	hpCn        = "cn"
	hpMix       = "mix"
	hpPrecision = "precision"
)

// Weights exports the trained model, including its training samples, which
// scoring needs.
func (m *CSSADMKL) Weights() (*model.DualWeights, error) {
	if err := m.state.RequireFitted(cssadName, "Weights"); err != nil {
		return nil, err
	}
	data := make([]float64, 0, m.dims*m.samples)
	for i := 0; i < m.dims; i++ {
		for j := 0; j < m.samples; j++ {
			data = append(data, m.X.At(i, j))
		}
	}
	w := &model.DualWeights{
		ModelType:      cssadName,
		Version:        model.DualWeightsVersion,
		Dims:           m.dims,
		Samples:        m.samples,
		TrainingData:   data,
		Labels:         append([]int(nil), m.y...),
		Alphas:         append([]float64(nil), m.alphas...),
		SupportVectors: append([]int(nil), m.svs...),
		KernelIDs:      append([]int(nil), m.kernelIDs...),
		Threshold:      m.threshold,
		Kernel:         m.kernelType.String(),
		KernelParams:   append([]float64(nil), m.params...),
		Hyperparameters: map[string]float64{
			hpKappa:     m.kappa,
			hpCp:        m.cp,
			hpCu:        m.cu,
			hpCn:        m.cn,
			hpMix:       m.mix,
			hpPrecision: m.precision,
		},
		IsFitted: true,
	}
	return w, nil
}

// NewCSSADMKLFromWeights restores a model exported with Weights. The result
// scores and predicts without retraining. opts may supply a kernel provider,
// solver or logger; hyperparameters come from w.
func NewCSSADMKLFromWeights(w *model.DualWeights, opts ...Option) (*CSSADMKL, error) {
	if w == nil {
		return nil, mlerrors.NewValidationError("weights", "weights are required", nil)
	}
	if err := w.Validate(); err != nil {
		return nil, mlerrors.Mark(mlerrors.Wrap(err, "invalid weights"), mlerrors.ErrInvalidTrainingData)
	}
	if w.ModelType != cssadName {
		return nil, mlerrors.NewValidationError("model_type", "weights belong to another model", w.ModelType)
	}
	kt, err := kernel.ParseType(w.Kernel)
	if err != nil {
		return nil, err
	}

	restored := []Option{WithKernel(kt), WithKernelParams(w.KernelParams...)}
	setters := map[string]func(float64) Option{
		hpKappa:     WithKappa,
		hpCp:        WithCp,
		hpCu:        WithCu,
		hpCn:        WithCn,
		hpMix:       WithMix,
		hpPrecision: WithPrecision,
	}
	for key, set := range setters {
		if v, ok := w.Hyperparameters[key]; ok {
			restored = append(restored, set(v))
		}
	}

	X := mat.NewDense(w.Dims, w.Samples, append([]float64(nil), w.TrainingData...))
	m, err := NewCSSADMKL(X, w.Labels, append(restored, opts...)...)
	if err != nil {
		return nil, err
	}
	if !w.IsFitted {
		return m, nil
	}

	m.alphas = append([]float64(nil), w.Alphas...)
	m.svs = append([]int(nil), w.SupportVectors...)
	m.kernelIDs = append([]int(nil), w.KernelIDs...)
	m.threshold = w.Threshold
	m.state.SetFitted()
	return m, nil
}
