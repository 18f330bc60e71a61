package main

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/core/model"
	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/io/csv"
	"github.com/YuminosukeSato/cssadmkl/preprocessing"
)

// modelFile is the document written by train and read by score.
type modelFile struct {
	Model  *model.DualWeights          `json:"model"`
	Scaler *preprocessing.ScalerParams `json:"scaler,omitempty"`
}

func (a *app) readDataset(key string) (*csv.Dataset, error) {
	path := a.v.GetString(key)
	if path == "" {
		return nil, errors.NewValidationError(key, "an input file is required", path)
	}
	opts := []csv.Option{csv.WithHeader(a.v.GetBool("header"))}
	if label := a.v.GetString("label"); label != "" {
		if idx, err := strconv.Atoi(label); err == nil {
			opts = append(opts, csv.WithLabelIndex(idx))
		} else {
			opts = append(opts, csv.WithLabelColumn(label))
		}
	}
	return csv.ReadFile(path, opts...)
}

// kernelParams reads "params" as a comma separated string or, from a config
// file, a list of numbers.
func (a *app) kernelParams() ([]float64, error) {
	raw := a.v.Get("params")
	var fields []string
	switch val := raw.(type) {
	case string:
		fields = strings.Split(val, ",")
	case []interface{}:
		for _, x := range val {
			fields = append(fields, fmt.Sprint(x))
		}
	case []float64:
		return append([]float64(nil), val...), nil
	default:
		fields = []string{fmt.Sprint(val)}
	}

	params := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		p, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.NewValidationError("params", "not a number", f)
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return nil, errors.NewValidationError("params", "at least one kernel parameter is required", raw)
	}
	return params, nil
}

func (a *app) fitScaler(X mat.Matrix) (*mat.Dense, *preprocessing.FeatureScaler, error) {
	mode, err := preprocessing.ParseScaleMode(a.v.GetString("scale"))
	if err != nil {
		return nil, nil, err
	}
	scaler := preprocessing.NewFeatureScaler(mode)
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, nil, err
	}
	return Xs, scaler, nil
}

func writeModelFile(path string, f *modelFile) error {
	return model.SaveJSON(f, path)
}

func readModelFile(path string) (*modelFile, error) {
	var f modelFile
	if err := model.LoadJSON(&f, path); err != nil {
		return nil, err
	}
	if f.Model == nil {
		return nil, errors.NewValidationError("model", "model file has no model", path)
	}
	return &f, nil
}

func labelsOrUnlabeled(ds *csv.Dataset) []int {
	if ds.Labels != nil {
		return ds.Labels
	}
	return make([]int, ds.Samples())
}
