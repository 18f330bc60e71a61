package model

import "gonum.org/v1/gonum/mat"

// Transformer は dims × samples のデータを行（特徴量）ごとに変換するインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する。形は変わらない
	Transform(X mat.Matrix) (*mat.Dense, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (*mat.Dense, error)

	// InverseTransform は変換を元に戻す
	InverseTransform(X mat.Matrix) (*mat.Dense, error)

	IsFitted() bool
}
