package svm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScores returns a score function reading from a per-sample table and
// recording which indices were requested.
func fixedScores(table map[int]float64, calls *[][]int) func(idx []int) ([]float64, error) {
	return func(idx []int) ([]float64, error) {
		*calls = append(*calls, append([]int(nil), idx...))
		out := make([]float64, len(idx))
		for k, i := range idx {
			out[k] = table[i]
		}
		return out, nil
	}
}

func TestInferThresholdCascade(t *testing.T) {
	const prec = 1e-5
	box := []float64{1, 1, 1, 1, 1}

	tests := []struct {
		name     string
		labels   []int
		alphas   []float64
		svs      []int
		scores   map[int]float64
		want     float64
		wantCase string
	}{
		{
			name:     "first unlabeled margin point wins",
			labels:   []int{1, 0, 0, -1, 0},
			alphas:   []float64{0.2, 0.3, 0.4, 0.1, 0},
			svs:      []int{0, 1, 2, 3},
			scores:   map[int]float64{0: 0.9, 1: 0.42, 2: 0.7, 3: 0.1},
			want:     0.42,
			wantCase: caseUnlabeledMargin,
		},
		{
			name:     "positive and negative margins give the midpoint",
			labels:   []int{1, -1, 0},
			alphas:   []float64{0.5, 0.5, 1},
			svs:      []int{0, 1, 2},
			scores:   map[int]float64{0: 0.8, 1: 0.2, 2: 5},
			want:     0.5,
			wantCase: caseMidpoint,
		},
		{
			name:     "only negative margin",
			labels:   []int{-1, 0},
			alphas:   []float64{0.5, 1},
			svs:      []int{0, 1},
			scores:   map[int]float64{0: 0.3, 1: 9},
			want:     0.3 - prec,
			wantCase: caseNegativeMargin,
		},
		{
			name:     "only positive margin",
			labels:   []int{1, 0},
			alphas:   []float64{0.5, 1},
			svs:      []int{0, 1},
			scores:   map[int]float64{0: 0.6, 1: 9},
			want:     0.6 + prec,
			wantCase: casePositiveMargin,
		},
		{
			name:     "last positive and negative margin scores are used",
			labels:   []int{1, 1, -1, -1},
			alphas:   []float64{0.1, 0.1, 0.1, 0.1},
			svs:      []int{0, 1, 2, 3},
			scores:   map[int]float64{0: 1, 1: 0.6, 2: 0.1, 3: 0.2},
			want:     0.5 * (0.6 + 0.2),
			wantCase: caseMidpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls [][]int
			res, err := inferThreshold(thresholdInput{
				svs:       tt.svs,
				alphas:    tt.alphas,
				box:       box[:len(tt.labels)],
				labels:    tt.labels,
				precision: prec,
			}, fixedScores(tt.scores, &calls))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Value, 1e-12)
			assert.Equal(t, tt.wantCase, res.Case)
			assert.False(t, res.Fallback)
			assert.Len(t, calls, 1, "margins are scored once")
		})
	}
}

func TestInferThresholdFallback(t *testing.T) {
	const prec = 1e-5

	tests := []struct {
		name      string
		labels    []int
		scores    map[int]float64
		want      float64
		wantCase  string
		wantSteps []string
	}{
		{
			name:      "unlabeled maximum",
			labels:    []int{0, 0, 0},
			scores:    map[int]float64{0: 0.2, 1: 0.7, 2: 0.4},
			want:      0.7,
			wantCase:  caseGuessUnlabeled,
			wantSteps: []string{caseGuessUnlabeled},
		},
		{
			name:      "positive above unlabeled",
			labels:    []int{0, 1, 1},
			scores:    map[int]float64{0: 0.2, 1: 0.5, 2: 0.9},
			want:      0.9,
			wantCase:  caseGuessPositive,
			wantSteps: []string{caseGuessUnlabeled, caseGuessPositive},
		},
		{
			name:      "negatives only use the maximum",
			labels:    []int{-1, -1},
			scores:    map[int]float64{0: 0.3, 1: 0.8},
			want:      0.8,
			wantCase:  caseGuessNegative,
			wantSteps: []string{caseGuessNegative},
		},
		{
			name:   "middle uses highest positive and lowest negative",
			labels: []int{1, -1, -1, 1},
			scores: map[int]float64{0: 0.6, 1: 0.1, 2: 0.4, 3: 0.8},
			// pos = 0.8, neg = 0.4, neg2 = 0.1
			want:      0.5 * (0.8 + 0.1),
			wantCase:  caseGuessMiddle,
			wantSteps: []string{caseGuessPositive, caseGuessMiddle},
		},
		{
			name:      "negative scores below zero keep zero",
			labels:    []int{-1},
			scores:    map[int]float64{0: -0.5},
			want:      0,
			wantCase:  caseGuessNone,
			wantSteps: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.labels)
			svs := make([]int, n)
			alphas := make([]float64, n)
			box := make([]float64, n)
			for i := range svs {
				svs[i] = i
				alphas[i] = 0.5
				box[i] = 0.5
			}
			var calls [][]int
			res, err := inferThreshold(thresholdInput{
				svs:       svs,
				alphas:    alphas,
				box:       box,
				labels:    tt.labels,
				precision: prec,
			}, fixedScores(tt.scores, &calls))
			require.NoError(t, err)
			assert.True(t, res.Fallback)
			assert.InDelta(t, tt.want, res.Value, 1e-12)
			assert.Equal(t, tt.wantCase, res.Case)

			var steps []string
			for _, s := range res.Steps {
				steps = append(steps, s.Case)
			}
			assert.Equal(t, tt.wantSteps, steps)
			require.Len(t, calls, 1, "no margins means only the fallback scores")
			assert.Equal(t, svs, calls[0])
		})
	}
}

func TestInferThresholdScoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := inferThreshold(thresholdInput{
		svs:       []int{0},
		alphas:    []float64{0.5},
		box:       []float64{1},
		labels:    []int{0},
		precision: 1e-5,
	}, func([]int) ([]float64, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
