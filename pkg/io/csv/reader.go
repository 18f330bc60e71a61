// Package csv reads tabular training and test data for the detectors.
//
// Each CSV row is one sample. The returned matrix is transposed into the
// dims × samples layout the detectors expect.
package csv

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// Dataset is the parsed content of a CSV file.
type Dataset struct {
	// X holds one column per sample.
	X *mat.Dense
	// Labels is nil when no label column was configured.
	Labels []int
	// Features names the rows of X when the file has a header.
	Features []string
}

// Samples returns the number of samples.
func (d *Dataset) Samples() int {
	_, n := d.X.Dims()
	return n
}

// Reader reads data from CSV input.
type Reader struct {
	closer    io.Closer
	reader    *csv.Reader
	hasHeader bool
	headers   []string

	labelName  string
	labelIndex int
	hasLabel   bool
}

// Option configures a CSV reader.
type Option func(*Reader)

// WithHeader indicates the CSV has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// WithLabelColumn selects the label column by header name.
func WithLabelColumn(name string) Option {
	return func(r *Reader) {
		r.labelName = name
		r.hasLabel = name != ""
	}
}

// WithLabelIndex selects the label column by position. Negative values count
// from the end, so -1 is the last column.
func WithLabelIndex(i int) Option {
	return func(r *Reader) {
		r.labelIndex = i
		r.labelName = ""
		r.hasLabel = true
	}
}

// WithComma sets the field delimiter.
func WithComma(c rune) Option {
	return func(r *Reader) {
		r.reader.Comma = c
	}
}

// Open opens filename for reading.
func Open(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filename)
	}
	r, err := NewReader(file, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads CSV data from src.
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{
		reader:    csv.NewReader(src),
		hasHeader: true,
	}
	r.reader.TrimLeadingSpace = true
	r.reader.Comment = '#'
	for _, opt := range opts {
		opt(r)
	}

	if r.hasHeader {
		headers, err := r.reader.Read()
		if err != nil {
			return nil, errors.Wrap(err, "read csv header")
		}
		for i := range headers {
			headers[i] = strings.TrimSpace(headers[i])
		}
		r.headers = headers
	}
	return r, nil
}

// Headers returns the column headers.
func (r *Reader) Headers() []string {
	return r.headers
}

// labelColumn resolves the label column for rows of the given width.
func (r *Reader) labelColumn(width int) (int, error) {
	if !r.hasLabel {
		return -1, nil
	}
	if r.labelName != "" {
		for i, h := range r.headers {
			if h == r.labelName {
				return i, nil
			}
		}
		return -1, errors.NewValidationError("label_column", "column not found in header", r.labelName)
	}
	idx := r.labelIndex
	if idx < 0 {
		idx += width
	}
	if idx < 0 || idx >= width {
		return -1, errors.NewValidationError("label_column", "index out of range", r.labelIndex)
	}
	return idx, nil
}

// Read parses every remaining row. Unlike a streaming reader it fails on the
// first malformed row, reporting its line.
func (r *Reader) Read() (*Dataset, error) {
	records, err := r.reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no data rows")
	}

	width := len(records[0])
	labelCol, err := r.labelColumn(width)
	if err != nil {
		return nil, err
	}
	dims := width
	if labelCol >= 0 {
		dims--
	}
	if dims < 1 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no feature columns")
	}

	n := len(records)
	X := mat.NewDense(dims, n, nil)
	var labels []int
	if labelCol >= 0 {
		labels = make([]int, n)
	}

	for j, record := range records {
		if len(record) != width {
			return nil, errors.Newf("row %d has %d fields, want %d", j+1, len(record), width)
		}
		d := 0
		for c, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", j+1, c+1)
			}
			if c == labelCol {
				if v != math.Trunc(v) {
					return nil, errors.NewValidationError("label", "labels must be integers", v)
				}
				labels[j] = int(v)
				continue
			}
			X.Set(d, j, v)
			d++
		}
	}

	ds := &Dataset{X: X, Labels: labels}
	if len(r.headers) == width {
		for c, h := range r.headers {
			if c != labelCol {
				ds.Features = append(ds.Features, h)
			}
		}
	}
	return ds, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadFile is a convenience wrapper around Open, Read and Close.
func ReadFile(filename string, opts ...Option) (*Dataset, error) {
	r, err := Open(filename, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Read()
}
