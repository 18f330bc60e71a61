package svm

// Threshold cases, reported in logs and ThresholdWarning.
const (
	caseUnlabeledMargin = "unlabeled_margin"
	caseMidpoint        = "midpoint"
	caseNegativeMargin  = "negative_margin"
	casePositiveMargin  = "positive_margin"

	// Fallback sub-cases when no support vector lies strictly inside its box.
	caseGuessNone      = "none"
	caseGuessUnlabeled = "unlabeled"
	caseGuessPositive  = "positive"
	caseGuessNegative  = "negative"
	caseGuessMiddle    = "middle"
)

// thresholdStep is one assignment made while inferring the threshold.
type thresholdStep struct {
	Case  string
	Value float64
}

// thresholdResult is the outcome of inferThreshold. Steps lists the fallback
// assignments in the order they were applied and is empty otherwise.
type thresholdResult struct {
	Value    float64
	Case     string
	Fallback bool
	Steps    []thresholdStep
}

// thresholdInput carries the solution pieces threshold inference reads.
type thresholdInput struct {
	svs       []int
	alphas    []float64
	box       []float64
	labels    []int
	precision float64
}

// inferThreshold places the decision threshold from the dual solution. score
// returns the decision values of the given training sample indices.
//
// Unlabeled support vectors with 0 < α < C lie on the threshold, labeled ones
// on the margins, so those are consulted first. Without any such sample the
// threshold is guessed from all support vectors.
func inferThreshold(in thresholdInput, score func(idx []int) ([]float64, error)) (thresholdResult, error) {
	var margins []int
	for _, i := range in.svs {
		if in.alphas[i] < in.box[i]-in.precision {
			margins = append(margins, i)
		}
	}

	var (
		pos, neg     float64
		hasPos       bool
		hasNeg       bool
		marginScores []float64
		err          error
	)
	if len(margins) > 0 {
		if marginScores, err = score(margins); err != nil {
			return thresholdResult{}, err
		}
	}
	for k, i := range margins {
		switch {
		case in.labels[i] == 0:
			return thresholdResult{Value: marginScores[k], Case: caseUnlabeledMargin}, nil
		case in.labels[i] >= 1:
			pos, hasPos = marginScores[k], true
		case in.labels[i] <= -1:
			neg, hasNeg = marginScores[k], true
		}
	}

	switch {
	case hasPos && hasNeg:
		return thresholdResult{Value: 0.5 * (pos + neg), Case: caseMidpoint}, nil
	case hasNeg:
		return thresholdResult{Value: neg - in.precision, Case: caseNegativeMargin}, nil
	case hasPos:
		return thresholdResult{Value: pos + in.precision, Case: casePositiveMargin}, nil
	}
	return guessThreshold(in, score)
}

// guessThreshold handles the case where no support vector lies strictly inside
// its box. The highest unlabeled and positive scores are tracked; for negatives
// both the highest (neg) and lowest (neg2) are tracked, and the final midpoint
// uses the lowest.
func guessThreshold(in thresholdInput, score func(idx []int) ([]float64, error)) (thresholdResult, error) {
	res := thresholdResult{Case: caseGuessNone, Fallback: true}
	if len(in.svs) == 0 {
		return res, nil
	}
	scores, err := score(in.svs)
	if err != nil {
		return thresholdResult{}, err
	}

	var (
		unl, pos, neg, neg2    float64
		hasUnl, hasPos, hasNeg bool
	)
	for k, i := range in.svs {
		s := scores[k]
		switch {
		case in.labels[i] == 0:
			if !hasUnl || s > unl {
				unl, hasUnl = s, true
			}
		case in.labels[i] >= 1:
			if !hasPos || s > pos {
				pos, hasPos = s, true
			}
		case in.labels[i] <= -1:
			if !hasNeg {
				neg, neg2, hasNeg = s, s, true
			}
			if s > neg {
				neg = s
			}
			if s < neg2 {
				neg2 = s
			}
		}
	}

	apply := func(c string, v float64) {
		res.Value, res.Case = v, c
		res.Steps = append(res.Steps, thresholdStep{Case: c, Value: v})
	}
	if hasUnl {
		apply(caseGuessUnlabeled, unl)
	}
	if hasPos && res.Value < pos {
		apply(caseGuessPositive, pos)
	}
	if hasNeg && res.Value < neg {
		apply(caseGuessNegative, neg)
	}
	if hasPos && hasNeg {
		apply(caseGuessMiddle, 0.5*(pos+neg2))
	}
	return res, nil
}
