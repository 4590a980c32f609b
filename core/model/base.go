package model

// BaseEstimator は学習状態を持つ全パイプライン部品の基底。
// 符号化器や分類器に埋め込むことで、Fit前のTransform/PredictProba呼び出しを
// NotFittedErrorとして検出できる。
type BaseEstimator struct {
	fitted bool
}

// IsFitted はFitが一度でも成功したかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.fitted
}

// SetFitted は学習済み状態に設定する。各部品のFitが成功時に呼ぶ。
func (e *BaseEstimator) SetFitted() {
	e.fitted = true
}

// Reset は学習状態を破棄する
func (e *BaseEstimator) Reset() {
	e.fitted = false
}
