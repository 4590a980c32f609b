// Package errors はパイプライン全体のエラーハンドリングと警告システムを提供します。
// 構造化されたエラー情報により、どの列・どの行で問題が起きたかを正確に報告できます。
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
		log.Printf("loanpipe-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、UndefinedMetricWarningなどのカスタム警告の処理方法を制御できます。
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

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	// zerologが設定されている場合は優先的に使用
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	// フォールバック: 従来のハンドラ
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、適合率(precision)を計算する際に、陽性クラスの予測が一つもなかった場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	パイプラインのエラー分類
//
// ===========================================================================

// SchemaError は入力テーブルが宣言されたスキーマに適合しない場合のエラーです。
// 必須列の欠落、閉集合外のカテゴリ値、数値列の解析失敗などを表します。
type SchemaError struct {
	Column string
	Row    int // 行が特定できない場合は -1
	Reason string
	Value  string
}

func (e *SchemaError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("loanpipe: schema violation in column '%s' at row %d: %s (value: %q)", e.Column, e.Row, e.Reason, e.Value)
	}
	return fmt.Sprintf("loanpipe: schema violation in column '%s': %s", e.Column, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Int("row", e.Row).
		Str("reason", e.Reason).
		Str("value", e.Value).
		Str("type", "SchemaError")
}

// NewSchemaError は列単位のSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(column, reason string) error {
	err := &SchemaError{Column: column, Row: -1, Reason: reason}
	return errors.WithStack(err)
}

// NewSchemaValueError は行と値の情報を持つSchemaErrorを作成します。
func NewSchemaValueError(column string, row int, value, reason string) error {
	err := &SchemaError{Column: column, Row: row, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ImputationError はk近傍補完が実行できない場合のエラーです。
// 完全観測行の不足、または列の欠損率が閾値を超えた場合に発生します。
type ImputationError struct {
	Column    string
	Row       int // 行が特定できない場合は -1
	Reason    string
	K         int
	Available int
}

func (e *ImputationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("loanpipe: imputation failed for column '%s': %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("loanpipe: imputation failed: %s (k=%d, candidates=%d)", e.Reason, e.K, e.Available)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ImputationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Int("row", e.Row).
		Str("reason", e.Reason).
		Int("k", e.K).
		Int("available", e.Available).
		Str("type", "ImputationError")
}

// NewImputationError は近傍不足を表すImputationErrorを作成します。
func NewImputationError(reason string, k, available int) error {
	err := &ImputationError{Row: -1, Reason: reason, K: k, Available: available}
	return errors.WithStack(err)
}

// NewImputationColumnError は列単位の欠損率超過を表すImputationErrorを作成します。
func NewImputationColumnError(column, reason string) error {
	err := &ImputationError{Column: column, Row: -1, Reason: reason}
	return errors.WithStack(err)
}

// EncodingError は符号化マップに存在しない水準が評価データに現れた場合のエラーです。
// 訓練・評価間のスキーマドリフトを示すため、黙って既定値に落とすことはしません。
type EncodingError struct {
	Column string
	Level  string
	Row    int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("loanpipe: unseen level %q in column '%s' at row %d", e.Level, e.Column, e.Row)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EncodingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("level", e.Level).
		Int("row", e.Row).
		Str("type", "EncodingError")
}

// NewEncodingError は新しいEncodingErrorを作成し、スタックトレースを付与します。
func NewEncodingError(column, level string, row int) error {
	err := &EncodingError{Column: column, Level: level, Row: row}
	return errors.WithStack(err)
}

// PartitionError は層化分割が実行できない場合のエラーです。
// 不正な分割比率、またはクラスあたりの行数不足を表します。
type PartitionError struct {
	Reason   string
	Fraction float64
	Class    string
	Count    int
}

func (e *PartitionError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("loanpipe: cannot split: %s (class %q has %d rows)", e.Reason, e.Class, e.Count)
	}
	return fmt.Sprintf("loanpipe: cannot split: %s (train_fraction=%g)", e.Reason, e.Fraction)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PartitionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Float64("fraction", e.Fraction).
		Str("class", e.Class).
		Int("count", e.Count).
		Str("type", "PartitionError")
}

// NewPartitionError は分割比率の不正を表すPartitionErrorを作成します。
func NewPartitionError(reason string, fraction float64) error {
	err := &PartitionError{Reason: reason, Fraction: fraction}
	return errors.WithStack(err)
}

// NewPartitionClassError はクラスの行数不足を表すPartitionErrorを作成します。
func NewPartitionClassError(reason, class string, count int) error {
	err := &PartitionError{Reason: reason, Class: class, Count: count}
	return errors.WithStack(err)
}

// DegenerateCurveError は全ての行が単一の真クラスに属し、AUCが定義できない場合のエラーです。
type DegenerateCurveError struct {
	Class string
	N     int
}

func (e *DegenerateCurveError) Error() string {
	return fmt.Sprintf("loanpipe: ROC curve is degenerate: all %d rows belong to class %q, AUC is undefined", e.N, e.Class)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateCurveError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("class", e.Class).
		Int("rows", e.N).
		Str("type", "DegenerateCurveError")
}

// NewDegenerateCurveError は新しいDegenerateCurveErrorを作成し、スタックトレースを付与します。
func NewDegenerateCurveError(class string, n int) error {
	err := &DegenerateCurveError{Class: class, N: n}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	汎用エラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `PredictProba` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("loanpipe: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
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
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("loanpipe: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
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
	return fmt.Sprintf("loanpipe: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
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

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("loanpipe: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
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
//	数値計算特有のエラー型
//
// ===========================================================================

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf、オーバーフロー、アンダーフローなどを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "gradient_update", "distance"）
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
	return fmt.Sprintf("loanpipe: numerical instability detected in %s at iteration %d. Values: [%s]",
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
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
