package csv

import (
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// Result is the detection result of one sample.
type Result struct {
	Index      int
	Score      float64
	Prediction int
	// Label is only written when the results carry labels.
	Label int
}

// NewResults pairs scores with predictions and, when non-nil, labels.
func NewResults(scores mat.Vector, preds, labels []int) ([]Result, error) {
	n := scores.Len()
	if len(preds) != n {
		return nil, errors.NewDimensionError("csv.NewResults", n, len(preds), 0)
	}
	if labels != nil && len(labels) != n {
		return nil, errors.NewDimensionError("csv.NewResults", n, len(labels), 0)
	}
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{Index: i, Score: scores.AtVec(i), Prediction: preds[i]}
		if labels != nil {
			out[i].Label = labels[i]
		}
	}
	return out, nil
}

// WriteResults writes a header and one row per result.
func WriteResults(dst io.Writer, results []Result, withLabels bool) error {
	w := csv.NewWriter(dst)
	header := []string{"index", "score", "prediction"}
	if withLabels {
		header = append(header, "label")
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.FormatFloat(r.Score, 'g', -1, 64),
			strconv.Itoa(r.Prediction),
		}
		if withLabels {
			row = append(row, strconv.Itoa(r.Label))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "write result %d", r.Index)
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}
