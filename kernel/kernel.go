// Package kernel computes Gram matrices between column-sample matrices.
//
// Samples are stored as columns: a dims × n matrix holds n samples. Gram(a, b)
// returns the |cols(a)| × |cols(b)| matrix of pairwise kernel values.
package kernel

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/core/parallel"
	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
)

// Type selects the kernel function.
type Type int

const (
	// Linear is k(x, y) = xᵀy.
	Linear Type = iota
	// RBF is k(x, y) = exp(-‖x-y‖² / param).
	RBF
	// Polynomial is k(x, y) = (xᵀy + 1)^param.
	Polynomial
	// Sigmoid is k(x, y) = tanh(param · xᵀy).
	Sigmoid
)

func (t Type) String() string {
	switch t {
	case Linear:
		return "linear"
	case RBF:
		return "rbf"
	case Polynomial:
		return "polynomial"
	case Sigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Valid reports whether t is one of the known kernel types.
func (t Type) Valid() bool {
	return t >= Linear && t <= Sigmoid
}

// ParseType converts a kernel name into a Type. "mkl_rbf" is accepted as RBF.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "lin":
		return Linear, nil
	case "rbf", "mkl_rbf", "gaussian":
		return RBF, nil
	case "poly", "polynomial":
		return Polynomial, nil
	case "sigmoid", "tanh":
		return Sigmoid, nil
	default:
		return 0, mlerrors.NewValidationError("kernel", "unknown kernel type", s)
	}
}

// Provider computes Gram matrices.
type Provider interface {
	Gram(a, b mat.Matrix, t Type, param float64) (*mat.Dense, error)
}

// Evaluate computes the kernel value for a single pair of samples.
func Evaluate(t Type, param float64, x, y []float64) float64 {
	switch t {
	case Linear:
		return floats.Dot(x, y)
	case RBF:
		return math.Exp(-sqDist(x, y) / param)
	case Polynomial:
		return math.Pow(floats.Dot(x, y)+1, param)
	case Sigmoid:
		return math.Tanh(param * floats.Dot(x, y))
	default:
		return math.NaN()
	}
}

func sqDist(x, y []float64) float64 {
	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}
	return sum
}

const defaultParallelThreshold = 64

// Computer is the default Provider.
type Computer struct {
	parallelThreshold int
	workers           int
	logger            log.Logger
}

// Option configures a Computer.
type Option func(*Computer)

// WithParallelThreshold sets the number of output rows above which rows are
// computed concurrently.
func WithParallelThreshold(rows int) Option {
	return func(c *Computer) {
		c.parallelThreshold = rows
	}
}

// WithWorkers caps the number of goroutines. 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *Computer) {
		c.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Computer) {
		c.logger = l
	}
}

// NewComputer creates a Computer.
func NewComputer(opts ...Option) *Computer {
	c := &Computer{
		parallelThreshold: defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("kernel")
	}
	return c
}

// Gram implements Provider.
func (c *Computer) Gram(a, b mat.Matrix, t Type, param float64) (*mat.Dense, error) {
	if !t.Valid() {
		return nil, mlerrors.NewValidationError("kernel", "unknown kernel type", int(t))
	}
	if t == RBF && !(param > 0) {
		return nil, mlerrors.NewValidationError("param", "rbf kernel width must be positive", param)
	}
	if math.IsNaN(param) || math.IsInf(param, 0) {
		return nil, mlerrors.NewValidationError("param", "kernel parameter must be finite", param)
	}

	da, na := a.Dims()
	db, nb := b.Dims()
	if da != db {
		return nil, mlerrors.NewDimensionError("Gram", da, db, 0)
	}
	if na == 0 || nb == 0 {
		return nil, mlerrors.Wrapf(mlerrors.ErrEmptyData, "Gram: %d x %d kernel requested", na, nb)
	}

	start := time.Now()
	aCols, bCols := columns(a), columns(b)

	out := mat.NewDense(na, nb, nil)
	fill := func(_ context.Context, lo, hi int) error {
		for i := lo; i < hi; i++ {
			row := out.RawRowView(i)
			for j := range row {
				row[j] = Evaluate(t, param, aCols[i], bCols[j])
			}
			if err := mlerrors.CheckNumericalStability("kernel.Gram", row, i); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if na <= c.parallelThreshold {
		err = fill(context.Background(), 0, na)
	} else {
		err = parallel.ChunksErr(context.Background(), na, c.workers, fill)
	}
	if err != nil {
		c.logger.Error("kernel computation failed", err, log.KernelTypeKey, t.String(), log.KernelParamKey, param)
		return nil, err
	}

	c.logger.Debug("gram matrix computed",
		log.KernelTypeKey, t.String(),
		log.KernelParamKey, param,
		"rows", na,
		"cols", nb,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

// columns copies every column of m into its own slice.
func columns(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	cols := make([][]float64, c)
	backing := make([]float64, r*c)
	for j := range cols {
		cols[j] = mat.Col(backing[j*r:(j+1)*r:(j+1)*r], j, m)
	}
	return cols
}
