package qp

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Triplet is a single (row, col, value) entry used to build a Sparse matrix.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Sparse is a compressed sparse row matrix. It implements mat.Matrix so it can
// be passed anywhere a constraint matrix is expected; the solver detects it and
// uses the row-wise fast paths below.
type Sparse struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

var _ mat.Matrix = (*Sparse)(nil)

// NewSparse builds a rows × cols CSR matrix from triplets. Duplicate entries
// are summed. It panics with mat.ErrIndexOutOfRange on an out-of-range entry.
func NewSparse(rows, cols int, entries []Triplet) *Sparse {
	if rows <= 0 || cols <= 0 {
		panic(mat.ErrZeroLength)
	}
	sorted := make([]Triplet, len(entries))
	copy(sorted, entries)
	for _, e := range sorted {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			panic(mat.ErrIndexOutOfRange)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	s := &Sparse{
		rows:    rows,
		cols:    cols,
		indptr:  make([]int, rows+1),
		indices: make([]int, 0, len(sorted)),
		data:    make([]float64, 0, len(sorted)),
	}
	for k, e := range sorted {
		if k > 0 && e.Row == sorted[k-1].Row && e.Col == sorted[k-1].Col {
			s.data[len(s.data)-1] += e.Value
			continue
		}
		s.indices = append(s.indices, e.Col)
		s.data = append(s.data, e.Value)
		s.indptr[e.Row+1]++
	}
	for i := 0; i < rows; i++ {
		s.indptr[i+1] += s.indptr[i]
	}
	return s
}

// Dims implements mat.Matrix.
func (s *Sparse) Dims() (r, c int) { return s.rows, s.cols }

// At implements mat.Matrix.
func (s *Sparse) At(i, j int) float64 {
	if uint(i) >= uint(s.rows) {
		panic(mat.ErrRowAccess)
	}
	if uint(j) >= uint(s.cols) {
		panic(mat.ErrColAccess)
	}
	lo, hi := s.indptr[i], s.indptr[i+1]
	k := lo + sort.SearchInts(s.indices[lo:hi], j)
	if k < hi && s.indices[k] == j {
		return s.data[k]
	}
	return 0
}

// T implements mat.Matrix.
func (s *Sparse) T() mat.Matrix { return mat.Transpose{Matrix: s} }

// NNZ returns the number of stored entries.
func (s *Sparse) NNZ() int { return len(s.data) }

// MulVec sets dst = S·x. dst must have length rows and x length cols.
func (s *Sparse) MulVec(dst, x []float64) {
	if len(dst) != s.rows || len(x) != s.cols {
		panic(mat.ErrShape)
	}
	for i := 0; i < s.rows; i++ {
		var sum float64
		for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
			sum += s.data[k] * x[s.indices[k]]
		}
		dst[i] = sum
	}
}

// MulTransVec sets dst = Sᵀ·v. dst must have length cols and v length rows.
func (s *Sparse) MulTransVec(dst, v []float64) {
	if len(dst) != s.cols || len(v) != s.rows {
		panic(mat.ErrShape)
	}
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < s.rows; i++ {
		vi := v[i]
		if vi == 0 {
			continue
		}
		for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
			dst[s.indices[k]] += s.data[k] * vi
		}
	}
}

// ScaledGram adds Sᵀ·diag(w)·S to dst, which must be cols × cols.
func (s *Sparse) ScaledGram(dst *mat.Dense, w []float64) {
	if r, c := dst.Dims(); r != s.cols || c != s.cols || len(w) != s.rows {
		panic(mat.ErrShape)
	}
	for i := 0; i < s.rows; i++ {
		wi := w[i]
		if wi == 0 {
			continue
		}
		lo, hi := s.indptr[i], s.indptr[i+1]
		for a := lo; a < hi; a++ {
			ja, va := s.indices[a], wi*s.data[a]
			row := dst.RawRowView(ja)
			for b := lo; b < hi; b++ {
				row[s.indices[b]] += va * s.data[b]
			}
		}
	}
}

// ToDense returns a dense copy.
func (s *Sparse) ToDense() *mat.Dense {
	d := mat.NewDense(s.rows, s.cols, nil)
	for i := 0; i < s.rows; i++ {
		for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
			d.Set(i, s.indices[k], s.data[k])
		}
	}
	return d
}
