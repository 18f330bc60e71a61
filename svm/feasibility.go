package svm

import "math"

const feasibilityTol = 1e-12

// classCapacity holds the largest total alpha each class can carry.
type classCapacity struct {
	pos, unl, neg float64
}

// maxLabeledWeight returns the largest a + n reachable under
//
//	0 ≤ a ≤ pos, 0 ≤ n ≤ neg, 1 - unl ≤ a - n ≤ 1
//
// where a and n are the summed alphas of positive and negative samples and
// the unlabeled sum u = 1 - a + n absorbs the rest of Σ cy α = 1. ok is false
// when the region is empty.
func (c classCapacity) maxLabeledWeight() (best float64, ok bool) {
	lo, hi := 1-c.unl, 1.0

	inRegion := func(a, n float64) bool {
		return a >= -feasibilityTol && a <= c.pos+feasibilityTol &&
			n >= -feasibilityTol && n <= c.neg+feasibilityTol &&
			a-n >= lo-feasibilityTol && a-n <= hi+feasibilityTol
	}

	// Vertices of the region lie on box corners or where a band edge crosses
	// a box edge.
	candidates := [][2]float64{{0, 0}, {c.pos, 0}, {0, c.neg}, {c.pos, c.neg}}
	for _, d := range []float64{lo, hi} {
		candidates = append(candidates,
			[2]float64{0, -d},
			[2]float64{c.pos, c.pos - d},
			[2]float64{d, 0},
			[2]float64{c.neg + d, c.neg},
		)
	}

	best = math.Inf(-1)
	for _, p := range candidates {
		if inRegion(p[0], p[1]) {
			ok = true
			best = math.Max(best, p[0]+p[1])
		}
	}
	return best, ok
}

// cssadFeasible reports whether the CSSAD dual constraints admit a solution.
// The kappa constraint only applies when labeled samples exist.
func cssadFeasible(c classCapacity, kappa, precision float64, labeled bool) (bool, string) {
	best, ok := c.maxLabeledWeight()
	if !ok {
		return false, "box constraints cannot satisfy sum(cy*alpha) = 1"
	}
	if labeled && best < kappa-precision {
		return false, "kappa exceeds the largest reachable labeled weight"
	}
	return true, ""
}

// ocsvmFeasible reports whether 0 ≤ α ≤ C with Σα = 1 is satisfiable.
func ocsvmFeasible(samples int, c float64) bool {
	return float64(samples)*c >= 1-feasibilityTol
}
