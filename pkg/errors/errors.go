// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 学習・推論・QPソルバーの失敗を構造化されたエラー型と番兵エラーで表現します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("cssadmkl-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します。nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ThresholdWarning は閾値推定がマージン上のサンプルを見つけられず、
// サポートベクター全体から閾値を推測した場合の警告です。データの分離が悪いことを示します。
type ThresholdWarning struct {
	Case           string  // "unlabeled", "positive", "negative", "middle", "none"
	SupportVectors int     // サポートベクターの数
	Threshold      float64 // 最終的に採用された閾値
}

func (w *ThresholdWarning) Error() string {
	return fmt.Sprintf("no margin examples found among %d support vectors, threshold guessed from %s support vectors: %g",
		w.SupportVectors, w.Case, w.Threshold)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ThresholdWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("case", w.Case).
		Int("support_vectors", w.SupportVectors).
		Float64("threshold", w.Threshold).
		Str("type", "ThresholdWarning")
}

// NewThresholdWarning は新しいThresholdWarningを作成します。
func NewThresholdWarning(kind string, supportVectors int, threshold float64) *ThresholdWarning {
	return &ThresholdWarning{Case: kind, SupportVectors: supportVectors, Threshold: threshold}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で推論系のメソッドを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("cssadmkl: %s: this model is not trained yet. Train it before using %s()", e.ModelName, e.Method)
}

// Unwrap は番兵エラー ErrModelNotTrained を返します。
func (e *NotFittedError) Unwrap() error {
	return ErrModelNotTrained
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows/dims, 1 for columns/samples
}

func (e *DimensionError) Error() string {
	axisName := "samples"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("cssadmkl: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "samples"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cssadmkl: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cssadmkl: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("cssadmkl: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NewInvalidTrainingDataError は学習データが不正な場合のエラーを作成します。
// errors.Is(err, ErrInvalidTrainingData) が真になります。
func NewInvalidTrainingDataError(op, reason string) error {
	return NewModelError(op, reason, ErrInvalidTrainingData)
}

// NewInvalidTestDataError はテストデータが不正な場合のエラーを作成します。
// errors.Is(err, ErrInvalidTestData) が真になります。
func NewInvalidTestDataError(op, reason string) error {
	return NewModelError(op, reason, ErrInvalidTestData)
}

// SolverError はQPソルバーが最適解を返せなかった場合のエラーです。
type SolverError struct {
	Solver     string // ソルバー名（例: "interior-point"）
	Status     string // ソルバーの終了ステータス
	Iterations int    // 実行したイテレーション数
	Err        error  // ErrInfeasibleConstraints または ErrSolverFailed
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("cssadmkl: %s solver stopped with status %q after %d iterations: %v",
		e.Solver, e.Status, e.Iterations, e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SolverError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("solver", e.Solver).
		Str("status", e.Status).
		Int("iterations", e.Iterations).
		Str("type", "SolverError")
}

// NewSolverError は新しいSolverErrorを作成し、スタックトレースを付与します。
// infeasible が真の場合は ErrInfeasibleConstraints、偽の場合は ErrSolverFailed を包みます。
func NewSolverError(solver, status string, iterations int, infeasible bool) error {
	cause := ErrSolverFailed
	if infeasible {
		cause = ErrInfeasibleConstraints
	}
	err := &SolverError{Solver: solver, Status: status, Iterations: iterations, Err: cause}
	return errors.WithStack(err)
}

// NewInfeasibleError は制約集合が空であることが事前に分かった場合のエラーを作成します。
func NewInfeasibleError(op, reason string) error {
	return NewModelError(op, reason, ErrInfeasibleConstraints)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf などを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "kernel.gram", "qp.step"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("cssadmkl: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Mark はエラーに参照エラーの印を付けます。errors.Is(err, reference) が真になります。
func Mark(err, reference error) error {
	return errors.Mark(err, reference)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrInvalidTrainingData はサンプル数または次元数が正でない場合のエラーです。
	ErrInvalidTrainingData = New("invalid training data")

	// ErrInvalidTestData はテストデータの次元不一致または空のバッチの場合のエラーです。
	ErrInvalidTestData = New("invalid test data")

	// ErrModelNotTrained は学習前にスコアリングした場合のエラーです。
	ErrModelNotTrained = New("model not trained")

	// ErrInfeasibleConstraints はQPの制約を満たす解が存在しない場合のエラーです。
	ErrInfeasibleConstraints = New("infeasible constraints")

	// ErrSolverFailed はQPソルバーが収束しなかった、または数値的に破綻した場合のエラーです。
	ErrSolverFailed = New("qp solver failed")

	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
