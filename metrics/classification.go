// Package metrics は検出器の評価指標を提供します。
//
// ラベルは検出器の規約に従います: 1 が正常、0 または -1 が異常です。
// スコアは大きいほど正常であることを表します。
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// checkPair は2つのベクトルが空でなく同じ長さであることを確認する
func checkPair(op string, yTrue, yPred mat.Vector) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.Wrapf(errors.ErrEmptyData, "%s: empty input", op)
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// isPositive はラベルを二値に変換する。1 は正、0 と -1 は負。
func isPositive(op string, label float64) (bool, error) {
	switch label {
	case 1:
		return true, nil
	case 0, -1:
		return false, nil
	}
	return false, errors.NewValidationError(op, "labels must be 1, 0 or -1", label)
}

// AUC はROC曲線下面積をMann-Whitney順位統計量から計算する。
// 同順位のスコアには平均順位を割り当てる。
// 片方のクラスしか存在しない場合は 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	// nilの*VecDenseをインターフェースに渡さない
	var t, s mat.Vector
	if yTrue != nil {
		t = yTrue
	}
	if yScore != nil {
		s = yScore
	}
	return auc("AUC", t, s)
}

func auc(op string, yTrue, yScore mat.Vector) (float64, error) {
	n, err := checkPair(op, yTrue, yScore)
	if err != nil {
		return 0, err
	}

	positive := make([]bool, n)
	nPos := 0
	for i := 0; i < n; i++ {
		p, err := isPositive(op, yTrue.AtVec(i))
		if err != nil {
			return 0, err
		}
		positive[i] = p
		if p {
			nPos++
		}
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) < yScore.AtVec(order[b])
	})

	// 同順位グループごとに平均順位（1始まり）を加算
	var rankSum float64
	for lo := 0; lo < n; {
		hi := lo + 1
		for hi < n && yScore.AtVec(order[hi]) == yScore.AtVec(order[lo]) {
			hi++
		}
		avg := float64(lo+hi+1) / 2
		for k := lo; k < hi; k++ {
			if positive[order[k]] {
				rankSum += avg
			}
		}
		lo = hi
	}

	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する。先頭列のみを使う。
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, errors.Wrap(errors.ErrEmptyData, "AUCMatrix: nil matrix")
	}
	rt, ct := yTrue.Dims()
	rs, cs := yScore.Dims()
	if rt == 0 || ct == 0 || rs == 0 || cs == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "AUCMatrix: empty matrix")
	}
	if rt != rs {
		return 0, errors.NewDimensionError("AUCMatrix", rt, rs, 0)
	}
	return auc("AUCMatrix", firstColumn(yTrue), firstColumn(yScore))
}

func firstColumn(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

// DetectionAUC は検出器ラベル（1 正常、-1 異常、0 ラベルなし）とスコアからAUCを計算する。
// ラベルなしのサンプルは除外する。
func DetectionAUC(labels []int, scores mat.Vector) (float64, error) {
	if scores == nil || len(labels) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "DetectionAUC: empty input")
	}
	if scores.Len() != len(labels) {
		return 0, errors.NewDimensionError("DetectionAUC", len(labels), scores.Len(), 0)
	}
	var t, s []float64
	for i, l := range labels {
		if l == 0 {
			continue
		}
		t = append(t, float64(l))
		s = append(s, scores.AtVec(i))
	}
	if len(t) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "DetectionAUC: no labeled samples")
	}
	return auc("DetectionAUC", mat.NewVecDense(len(t), t), mat.NewVecDense(len(s), s))
}

// Accuracy は予測ラベルが正解ラベルと一致する割合を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	var t, p mat.Vector
	if yTrue != nil {
		t = yTrue
	}
	if yPred != nil {
		p = yPred
	}
	n, err := checkPair("Accuracy", t, p)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if t.AtVec(i) == p.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// PredictionAccuracy は検出器の予測（+1/-1）と正解ラベルの一致率を計算する。
// ラベルなし（0）のサンプルは除外する。
func PredictionAccuracy(labels, preds []int) (float64, error) {
	if len(labels) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "PredictionAccuracy: empty input")
	}
	if len(preds) != len(labels) {
		return 0, errors.NewDimensionError("PredictionAccuracy", len(labels), len(preds), 0)
	}
	total, correct := 0, 0
	for i, l := range labels {
		if l == 0 {
			continue
		}
		total++
		if preds[i] == l {
			correct++
		}
	}
	if total == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "PredictionAccuracy: no labeled samples")
	}
	return float64(correct) / float64(total), nil
}
