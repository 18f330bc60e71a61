package svm

import (
	"github.com/YuminosukeSato/cssadmkl/kernel"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
	"github.com/YuminosukeSato/cssadmkl/qp"
)

const (
	defaultKappa     = 1.0
	defaultC         = 1.0
	defaultMix       = 1.0
	defaultPrecision = 1e-5

	defaultOCSVMPrecision = 1e-3
)

// Option configures a CSSADMKL model.
type Option func(*CSSADMKL)

// WithKappa sets the lower bound on the total weight of labeled samples.
func WithKappa(kappa float64) Option {
	return func(m *CSSADMKL) {
		m.kappa = kappa
	}
}

// WithCp sets the box constraint for positive (normal) samples.
func WithCp(c float64) Option {
	return func(m *CSSADMKL) {
		m.cp = c
	}
}

// WithCu sets the box constraint for unlabeled samples.
func WithCu(c float64) Option {
	return func(m *CSSADMKL) {
		m.cu = c
	}
}

// WithCn sets the box constraint for negative (outlier) samples.
func WithCn(c float64) Option {
	return func(m *CSSADMKL) {
		m.cn = c
	}
}

// WithKernel sets the kernel family.
func WithKernel(t kernel.Type) Option {
	return func(m *CSSADMKL) {
		m.kernelType = t
	}
}

// WithKernelParams sets the kernel parameters, one mixing pass per value.
func WithKernelParams(params ...float64) Option {
	return func(m *CSSADMKL) {
		m.params = append([]float64(nil), params...)
	}
}

// WithMix sets the blending weight of every kernel after the first.
func WithMix(mix float64) Option {
	return func(m *CSSADMKL) {
		m.mix = mix
	}
}

// WithPrecision sets the support vector and margin tolerance.
func WithPrecision(p float64) Option {
	return func(m *CSSADMKL) {
		m.precision = p
	}
}

// WithKernelProvider replaces the Gram matrix computation.
func WithKernelProvider(p kernel.Provider) Option {
	return func(m *CSSADMKL) {
		m.provider = p
	}
}

// WithSolver replaces the QP solver.
func WithSolver(s qp.Solver) Option {
	return func(m *CSSADMKL) {
		m.solver = s
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *CSSADMKL) {
		m.logger = l
	}
}

// OCSVMOption configures an OCSVM model.
type OCSVMOption func(*OCSVM)

// WithC sets the box constraint.
func WithC(c float64) OCSVMOption {
	return func(m *OCSVM) {
		m.c = c
	}
}

// WithOCSVMPrecision sets the support vector tolerance.
func WithOCSVMPrecision(p float64) OCSVMOption {
	return func(m *OCSVM) {
		m.precision = p
	}
}

// WithOCSVMSolver replaces the QP solver.
func WithOCSVMSolver(s qp.Solver) OCSVMOption {
	return func(m *OCSVM) {
		m.solver = s
	}
}

// WithOCSVMLogger sets the logger.
func WithOCSVMLogger(l log.Logger) OCSVMOption {
	return func(m *OCSVM) {
		m.logger = l
	}
}
