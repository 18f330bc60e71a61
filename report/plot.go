// Package report renders detector results.
package report

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// Default figure size.
var (
	DefaultWidth  = 16 * vg.Centimeter
	DefaultHeight = 10 * vg.Centimeter
)

var formats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

var (
	positiveColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	unlabeledColor = color.RGBA{R: 127, G: 127, B: 127, A: 255}
	negativeColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	thresholdColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// ScorePlot draws one point per sample (x = sample index, y = score), colored
// by label, with support vectors ringed and the threshold as a dashed line.
type ScorePlot struct {
	Title          string
	Scores         []float64
	Labels         []int
	SupportVectors []int
	Threshold      float64
}

// NewScorePlot validates its inputs. labels may be nil, in which case every
// sample is drawn as unlabeled.
func NewScorePlot(scores mat.Vector, labels, svs []int, threshold float64) (*ScorePlot, error) {
	if scores == nil || scores.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "report: no scores")
	}
	n := scores.Len()
	if labels != nil && len(labels) != n {
		return nil, errors.NewDimensionError("report.NewScorePlot", n, len(labels), 0)
	}
	for _, sv := range svs {
		if sv < 0 || sv >= n {
			return nil, errors.NewValidationError("support_vectors", "index out of range", sv)
		}
	}
	s := &ScorePlot{
		Title:          "Anomaly scores",
		Scores:         make([]float64, n),
		Labels:         labels,
		SupportVectors: svs,
		Threshold:      threshold,
	}
	for i := range s.Scores {
		s.Scores[i] = scores.AtVec(i)
	}
	return s, nil
}

func (s *ScorePlot) label(i int) int {
	if s.Labels == nil {
		return 0
	}
	return s.Labels[i]
}

// Plot builds the gonum plot.
func (s *ScorePlot) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "score"
	p.Add(plotter.NewGrid())

	groups := []struct {
		name  string
		label int
		color color.Color
		shape draw.GlyphDrawer
	}{
		{"positive", 1, positiveColor, draw.CircleGlyph{}},
		{"unlabeled", 0, unlabeledColor, draw.CircleGlyph{}},
		{"negative", -1, negativeColor, draw.TriangleGlyph{}},
	}
	for _, g := range groups {
		var pts plotter.XYs
		for i, v := range s.Scores {
			if s.label(i) == g.label {
				pts = append(pts, plotter.XY{X: float64(i), Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "report: %s scatter", g.name)
		}
		sc.GlyphStyle.Color = g.color
		sc.GlyphStyle.Shape = g.shape
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add(g.name, sc)
	}

	if len(s.SupportVectors) > 0 {
		pts := make(plotter.XYs, len(s.SupportVectors))
		for k, i := range s.SupportVectors {
			pts[k] = plotter.XY{X: float64(i), Y: s.Scores[i]}
		}
		ring, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, errors.Wrap(err, "report: support vector scatter")
		}
		ring.GlyphStyle.Shape = draw.RingGlyph{}
		ring.GlyphStyle.Radius = vg.Points(6)
		ring.GlyphStyle.Color = color.Black
		p.Add(ring)
		p.Legend.Add("support vector", ring)
	}

	last := float64(len(s.Scores) - 1)
	if last == 0 {
		last = 1
	}
	line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: s.Threshold}, {X: last, Y: s.Threshold}})
	if err != nil {
		return nil, errors.Wrap(err, "report: threshold line")
	}
	line.LineStyle.Color = thresholdColor
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(line)
	p.Legend.Add("threshold", line)
	p.Legend.Top = true

	return p, nil
}

// Save writes the plot to path; the format follows the extension.
func (s *ScorePlot) Save(path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !formats[ext] {
		return errors.NewValidationError("plot", "unsupported file extension", filepath.Ext(path))
	}
	p, err := s.Plot()
	if err != nil {
		return err
	}
	return errors.SafeExecute("report.Save", func() error {
		return errors.Wrapf(p.Save(DefaultWidth, DefaultHeight, path), "report: save %s", path)
	})
}

// WriteTo renders the plot in format ("png", "svg", ...) to w.
func (s *ScorePlot) WriteTo(w io.Writer, format string) (int64, error) {
	format = strings.ToLower(format)
	if !formats[format] {
		return 0, errors.NewValidationError("plot", "unsupported format", format)
	}
	p, err := s.Plot()
	if err != nil {
		return 0, err
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return 0, errors.Wrap(err, "report: render")
	}
	return wt.WriteTo(w)
}
