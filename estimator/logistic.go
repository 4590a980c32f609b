// Package estimator は符号化済み特徴行列に対する二値分類器を提供します。
// 全ての分類器はラベルを 0（陰性）/ 1（陽性）の列ベクトルとして受け取り、
// PredictProbaで陽性クラスの確率を n×1 行列として返します。
package estimator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/core/model"
	"github.com/creditlab/loanpipe/pkg/errors"
)

// LogisticRegression は勾配降下法で学習する二値ロジスティック回帰
type LogisticRegression struct {
	model.BaseEstimator

	// ハイパーパラメータ
	maxIter      int
	learningRate float64
	tol          float64
	l2           float64 // L2正則化係数（0で無効）
	seed         uint64

	// 学習済みパラメータ
	weights   []float64
	intercept float64
	nFeatures int
	nIter     int
}

// LogisticRegressionOption はLogisticRegressionの機能オプション
type LogisticRegressionOption func(*LogisticRegression)

// WithLRMaxIter は勾配降下の最大反復回数を設定する
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRLearningRate は基準学習率を設定する
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

// WithLRTol は収束判定の勾配閾値を設定する
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRL2 はL2正則化係数を設定する
func WithLRL2(lambda float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.l2 = lambda
	}
}

// WithLRSeed は重み初期化の乱数シードを設定する
func WithLRSeed(seed uint64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.seed = seed
	}
}

// NewLogisticRegression は新しいLogisticRegressionを作成する
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		maxIter:      200,
		learningRate: 1.0,
		tol:          1e-4,
		l2:           0,
		seed:         42,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit は (n×d 特徴行列, n×1 の0/1ラベル) からモデルを学習する。
// maxIter以内に勾配がtolを下回らない場合はConvergenceWarningを発する
// （エラーにはしない。部分的に収束したモデルも評価には有用）。
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be a positive integer", lr.maxIter)
	}
	if lr.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", lr.learningRate)
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit", "labels must be binary (0 or 1)")
		}
	}

	lr.nFeatures = nFeatures
	lr.initWeights(nFeatures)

	converged := false
	grad := make([]float64, nFeatures)

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			p := lr.probability(X, i)
			diff := p - y.At(i, 0)
			gradIntercept += diff
			for j := 0; j < nFeatures; j++ {
				grad[j] += diff * X.At(i, j)
			}
		}

		gradIntercept /= float64(nSamples)
		for j := range grad {
			grad[j] /= float64(nSamples)
			if lr.l2 > 0 {
				grad[j] += lr.l2 * lr.weights[j]
			}
		}

		// Decaying step size keeps late iterations from oscillating.
		step := lr.learningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.weights {
			lr.weights[j] -= step * grad[j]
		}
		lr.intercept -= step * gradIntercept
		lr.nIter = iter + 1

		if err := errors.CheckNumericalStability("LogisticRegression.Fit", lr.weights, iter); err != nil {
			return err
		}

		maxGrad := math.Abs(gradIntercept)
		for _, g := range grad {
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter,
			"gradient descent did not reach tolerance; consider raising max_iter"))
	}

	lr.SetFitted()
	return nil
}

// PredictProba は各行の陽性クラス確率を n×1 行列で返す
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, nFeatures, 1)
	}

	probs := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		probs.Set(i, 0, lr.probability(X, i))
	}
	return probs, nil
}

// Predict は既定閾値0.5で確率をクラスラベルに変換する
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := probs.Dims()
	out := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if probs.At(i, 0) >= 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// NIter は実際に実行した反復回数を返す
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

// Coef は学習済みの重みベクトルのコピーを返す
func (lr *LogisticRegression) Coef() []float64 {
	out := make([]float64, len(lr.weights))
	copy(out, lr.weights)
	return out
}

// Intercept は学習済みの切片を返す
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// GetParams はモデルのハイパーパラメータを取得する
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_iter":      lr.maxIter,
		"learning_rate": lr.learningRate,
		"tol":           lr.tol,
		"l2":            lr.l2,
		"seed":          lr.seed,
	}
}

func (lr *LogisticRegression) initWeights(nFeatures int) {
	rng := rand.New(rand.NewPCG(lr.seed, lr.seed))
	lr.weights = make([]float64, nFeatures)
	for j := range lr.weights {
		lr.weights[j] = rng.NormFloat64() * 0.01
	}
	lr.intercept = 0
	lr.nIter = 0
}

func (lr *LogisticRegression) probability(X mat.Matrix, row int) float64 {
	z := lr.intercept
	for j := 0; j < lr.nFeatures; j++ {
		z += X.At(row, j) * lr.weights[j]
	}
	return sigmoid(z)
}

// sigmoid はロジスティック関数を計算する
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
