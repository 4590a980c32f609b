// Package model provides the estimator interfaces shared by the pipeline.
//
// The pipeline depends only on these contracts, never on a specific
// algorithm's internals; any external classifier that satisfies Classifier
// can be plugged into evaluation and hyperparameter search.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	// y は n×1 の列ベクトルで、陽性クラスを1、陰性クラスを0とする
	Fit(X, y mat.Matrix) error
}

// Classifier is the contract every plugged-in classification algorithm
// satisfies. PredictProba returns an n×1 matrix holding the probability of
// the positive class for each input row.
type Classifier interface {
	Fitter

	// PredictProba returns probability estimates of the positive class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
