package model

import "gonum.org/v1/gonum/mat"

// DualTrainer は双対問題を解いて学習するモデルのインターフェース
type DualTrainer interface {
	// TrainDual は構築時に与えられたデータでモデルを学習させる
	TrainDual() error
}

// Scorer は列ごとのサンプルに異常スコアを付けるモデルのインターフェース。
// スコアが低いほど異常である。
type Scorer interface {
	ApplyDual(Y mat.Matrix) (*mat.VecDense, error)
}

// Detector は学習・スコア計算・判定（+1 正常 / -1 異常）をまとめたインターフェース
type Detector interface {
	DualTrainer
	Scorer
	Predict(Y mat.Matrix) ([]int, error)
	Threshold() float64
	IsFitted() bool
}

// Exporter は学習済みの状態をDualWeightsとして書き出せるモデルのインターフェース
type Exporter interface {
	Weights() (*DualWeights, error)
}
