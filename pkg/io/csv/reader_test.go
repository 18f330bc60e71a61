package csv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

const labeled = `x,y,label
0.0, 0.5, 1
1.5, -2, 0
# comment
3, 4, -1
`

func TestReadLabeledByName(t *testing.T) {
	r, err := NewReader(strings.NewReader(labeled), WithLabelColumn("label"))
	require.NoError(t, err)
	ds, err := r.Read()
	require.NoError(t, err)

	dims, n := ds.X.Dims()
	assert.Equal(t, 2, dims)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, ds.Samples())
	assert.Equal(t, []float64{1.5, -2}, mat.Col(nil, 1, ds.X))
	assert.Equal(t, []int{1, 0, -1}, ds.Labels)
	assert.Equal(t, []string{"x", "y"}, ds.Features)
}

func TestReadLabelByIndexWithoutHeader(t *testing.T) {
	src := "1;0;5\n-1;2;6\n"
	r, err := NewReader(strings.NewReader(src), WithHeader(false), WithComma(';'), WithLabelIndex(0))
	require.NoError(t, err)
	ds, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, []int{1, -1}, ds.Labels)
	assert.Equal(t, []float64{0, 2}, mat.Row(nil, 0, ds.X))
	assert.Equal(t, []float64{5, 6}, mat.Row(nil, 1, ds.X))
	assert.Nil(t, ds.Features)
}

func TestReadUnlabeled(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	ds, err := r.Read()
	require.NoError(t, err)
	assert.Nil(t, ds.Labels)
	dims, n := ds.X.Dims()
	assert.Equal(t, 2, dims)
	assert.Equal(t, 1, n)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []Option
	}{
		{"no rows", "a,b\n", nil},
		{"bad number", "a,b\n1,x\n", nil},
		{"ragged rows", "a,b\n1,2\n3\n", nil},
		{"missing label column", "a,b\n1,2\n", []Option{WithLabelColumn("label")}},
		{"label index out of range", "a,b\n1,2\n", []Option{WithLabelIndex(5)}},
		{"fractional label", "a,label\n1,0.5\n", []Option{WithLabelColumn("label")}},
		{"only a label column", "label\n1\n", []Option{WithLabelColumn("label")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(strings.NewReader(tt.src), tt.opts...)
			require.NoError(t, err)
			_, err = r.Read()
			assert.Error(t, err)
		})
	}

	r, err := NewReader(strings.NewReader("a\n"))
	require.NoError(t, err)
	_, err = r.Read()
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(labeled), 0o600))

	ds, err := ReadFile(path, WithLabelIndex(-1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, -1}, ds.Labels)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	scores := mat.NewVecDense(2, []float64{0.5, -0.25})
	results, err := NewResults(scores, []int{1, -1}, []int{1, 0})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results, true))
	assert.Equal(t, "index,score,prediction,label\n0,0.5,1,1\n1,-0.25,-1,0\n", buf.String())

	_, err = NewResults(scores, []int{1}, nil)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
