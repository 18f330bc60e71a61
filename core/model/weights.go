package model

import (
	"encoding/json"
	"fmt"
)

// DualWeightsVersion は現在のエクスポート形式のバージョン
const DualWeightsVersion = "1.0"

// DualWeights は双対形式で学習したモデルの状態を表す構造体（シリアライゼーション用）。
// 双対モデルはスコア計算に学習サンプルそのものを必要とするため、学習データも保存する。
type DualWeights struct {
	// ModelType はモデルの種類（CSSADMKL等）
	ModelType string `json:"model_type"`

	// Version は形式のバージョン（互換性チェック用）
	Version string `json:"version"`

	// Dims は特徴量の次元数、Samples は学習サンプル数
	Dims    int `json:"dims"`
	Samples int `json:"samples"`

	// TrainingData は dims × samples の学習データを行優先で並べたもの
	TrainingData []float64 `json:"training_data"`

	// Labels は各サンプルのラベル（+1 正常, -1 異常, 0 ラベルなし）
	Labels []int `json:"labels"`

	// Alphas は双対係数（サンプルごと）
	Alphas []float64 `json:"alphas"`

	// SupportVectors はサポートベクターのインデックス
	SupportVectors []int `json:"support_vectors"`

	// KernelIDs は各サンプルが最後に混合されたカーネルパラメータの番号
	KernelIDs []int `json:"kernel_ids"`

	// Threshold は異常判定の閾値
	Threshold float64 `json:"threshold"`

	// Kernel はカーネルの種類、KernelParams はそのパラメータ列
	Kernel       string    `json:"kernel"`
	KernelParams []float64 `json:"kernel_params"`

	// Hyperparameters はモデルのハイパーパラメータ（kappa, cp, cu, cn, mix, precision）
	Hyperparameters map[string]float64 `json:"hyperparameters"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はDualWeightsをJSON形式にシリアライズ
func (w *DualWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}

// FromJSON はJSON形式からDualWeightsをデシリアライズ
func (w *DualWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, w)
}

// Validate はDualWeightsの妥当性を検証
func (w *DualWeights) Validate() error {
	if w.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	if w.Version == "" {
		return fmt.Errorf("version is required")
	}
	if w.Dims <= 0 || w.Samples <= 0 {
		return fmt.Errorf("dims and samples must be positive, got %d x %d", w.Dims, w.Samples)
	}
	if len(w.TrainingData) != w.Dims*w.Samples {
		return fmt.Errorf("training_data has %d values, want %d", len(w.TrainingData), w.Dims*w.Samples)
	}
	if len(w.Labels) != w.Samples {
		return fmt.Errorf("labels has %d entries, want %d", len(w.Labels), w.Samples)
	}
	if len(w.KernelParams) == 0 {
		return fmt.Errorf("kernel_params must not be empty")
	}
	if !w.IsFitted {
		if len(w.SupportVectors) > 0 {
			return fmt.Errorf("unfitted model should not have support vectors")
		}
		return nil
	}

	if len(w.Alphas) != w.Samples {
		return fmt.Errorf("alphas has %d entries, want %d", len(w.Alphas), w.Samples)
	}
	if len(w.KernelIDs) != w.Samples {
		return fmt.Errorf("kernel_ids has %d entries, want %d", len(w.KernelIDs), w.Samples)
	}
	if len(w.SupportVectors) == 0 {
		return fmt.Errorf("fitted model must have support vectors")
	}
	for _, sv := range w.SupportVectors {
		if sv < 0 || sv >= w.Samples {
			return fmt.Errorf("support vector index %d out of range [0, %d)", sv, w.Samples)
		}
	}
	return nil
}

// Clone はDualWeightsのディープコピーを作成
func (w *DualWeights) Clone() *DualWeights {
	clone := *w
	clone.TrainingData = append([]float64(nil), w.TrainingData...)
	clone.Labels = append([]int(nil), w.Labels...)
	clone.Alphas = append([]float64(nil), w.Alphas...)
	clone.SupportVectors = append([]int(nil), w.SupportVectors...)
	clone.KernelIDs = append([]int(nil), w.KernelIDs...)
	clone.KernelParams = append([]float64(nil), w.KernelParams...)
	clone.Hyperparameters = make(map[string]float64, len(w.Hyperparameters))
	for k, v := range w.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	return &clone
}
