// Package preprocessing は検出器に渡す前の特徴量変換を提供します。
//
// 行列は dims × samples のレイアウト（各列が1サンプル、各行が1特徴量）です。
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/cssadmkl/core/model"
	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// ScaleMode はスケーリングの方式
type ScaleMode string

const (
	// Standardize は各特徴量を平均0、標準偏差1に変換する
	Standardize ScaleMode = "standard"
	// MinMax は各特徴量を [0, 1] に変換する
	MinMax ScaleMode = "minmax"
	// NoScaling は変換しない
	NoScaling ScaleMode = "none"
)

var _ model.Transformer = (*FeatureScaler)(nil)

// 分散がこれ未満の特徴量はスケールを1とする
const zeroScale = 1e-8

// ParseScaleMode は文字列からScaleModeを得る
func ParseScaleMode(s string) (ScaleMode, error) {
	switch ScaleMode(s) {
	case Standardize, MinMax, NoScaling:
		return ScaleMode(s), nil
	case "":
		return NoScaling, nil
	}
	return "", errors.NewValidationError("scale", "must be standard, minmax or none", s)
}

// ScalerParams はJSONに保存できるスケーラーの状態
type ScalerParams struct {
	Mode   ScaleMode `json:"mode"`
	Offset []float64 `json:"offset"`
	Scale  []float64 `json:"scale"`
}

// FeatureScaler は特徴量（行）ごとにオフセットを引きスケールで割る
type FeatureScaler struct {
	state *model.StateManager

	mode   ScaleMode
	offset []float64
	scale  []float64
}

// NewFeatureScaler は新しいFeatureScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewFeatureScaler(preprocessing.Standardize)
//	XScaled, err := scaler.FitTransform(X)
func NewFeatureScaler(mode ScaleMode) *FeatureScaler {
	return &FeatureScaler{state: model.NewStateManager(), mode: mode}
}

// NewFeatureScalerFromParams は保存された状態からスケーラーを復元する
func NewFeatureScalerFromParams(p ScalerParams) (*FeatureScaler, error) {
	if _, err := ParseScaleMode(string(p.Mode)); err != nil {
		return nil, err
	}
	if len(p.Offset) == 0 || len(p.Offset) != len(p.Scale) {
		return nil, errors.NewValidationError("scaler", "offset and scale must be non-empty and of equal length", len(p.Scale))
	}
	s := NewFeatureScaler(p.Mode)
	s.offset = append([]float64(nil), p.Offset...)
	s.scale = append([]float64(nil), p.Scale...)
	s.state.SetDimensions(len(s.offset), 0)
	s.state.SetFitted()
	return s, nil
}

// Fit は訓練データから特徴量ごとの統計量を計算する
func (s *FeatureScaler) Fit(X mat.Matrix) error {
	if X == nil {
		return errors.NewModelError("FeatureScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	dims, samples := X.Dims()
	if dims == 0 || samples == 0 {
		return errors.NewModelError("FeatureScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if _, err := ParseScaleMode(string(s.mode)); err != nil {
		return err
	}
	if err := errors.CheckMatrix("FeatureScaler.Fit", X, dims, samples, 0); err != nil {
		return err
	}

	s.offset = make([]float64, dims)
	s.scale = make([]float64, dims)
	row := make([]float64, samples)
	for i := 0; i < dims; i++ {
		mat.Row(row, i, X)
		switch s.mode {
		case Standardize:
			mean, variance := stat.PopMeanVariance(row, nil)
			s.offset[i], s.scale[i] = mean, math.Sqrt(variance)
		case MinMax:
			lo, hi := floats.Min(row), floats.Max(row)
			s.offset[i], s.scale[i] = lo, hi-lo
		default:
			s.offset[i], s.scale[i] = 0, 1
		}
		if s.scale[i] < zeroScale {
			s.scale[i] = 1
		}
	}

	s.state.SetDimensions(dims, samples)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計量でデータを変換する
func (s *FeatureScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	return s.apply("Transform", X, func(v float64, i int) float64 {
		return (v - s.offset[i]) / s.scale[i]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *FeatureScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は変換されたデータを元のスケールに戻す
func (s *FeatureScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	return s.apply("InverseTransform", X, func(v float64, i int) float64 {
		return v*s.scale[i] + s.offset[i]
	})
}

func (s *FeatureScaler) apply(method string, X mat.Matrix, f func(v float64, row int) float64) (*mat.Dense, error) {
	if err := s.state.RequireFitted("FeatureScaler", method); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewModelError("FeatureScaler."+method, "empty data", errors.ErrEmptyData)
	}
	dims, samples := X.Dims()
	if dims != len(s.offset) {
		return nil, errors.NewDimensionError("FeatureScaler."+method, len(s.offset), dims, 0)
	}
	out := mat.NewDense(dims, samples, nil)
	out.Apply(func(i, j int, v float64) float64 { return f(v, i) }, X)
	return out, nil
}

// Params は現在の状態を返す
func (s *FeatureScaler) Params() (ScalerParams, error) {
	if err := s.state.RequireFitted("FeatureScaler", "Params"); err != nil {
		return ScalerParams{}, err
	}
	return ScalerParams{
		Mode:   s.mode,
		Offset: append([]float64(nil), s.offset...),
		Scale:  append([]float64(nil), s.scale...),
	}, nil
}

// IsFitted は学習済みかどうかを返す
func (s *FeatureScaler) IsFitted() bool { return s.state.IsFitted() }
