package estimator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/core/model"
	"github.com/creditlab/loanpipe/pkg/errors"
)

// KNNClassifier はユークリッド距離のk近傍多数決による二値分類器。
//
// 学習は訓練行列の記憶のみ。PredictProbaは近傍k件のうち陽性ラベルの
// 割合を確率として返す。距離の同点は訓練行の元の順序で解消する。
type KNNClassifier struct {
	model.BaseEstimator

	k int

	xTrain *mat.Dense
	yTrain []float64
}

// KNNClassifierOption はKNNClassifierの機能オプション
type KNNClassifierOption func(*KNNClassifier)

// WithNeighbors は近傍数kを設定する
func WithNeighbors(k int) KNNClassifierOption {
	return func(c *KNNClassifier) {
		c.k = k
	}
}

// NewKNNClassifier は新しいKNNClassifierを作成する（既定 k = 5）
func NewKNNClassifier(opts ...KNNClassifierOption) *KNNClassifier {
	c := &KNNClassifier{k: 5}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit は訓練データを記憶する
func (c *KNNClassifier) Fit(X, y mat.Matrix) error {
	if c.k < 1 {
		return errors.NewValidationError("k", "must be a positive integer", c.k)
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("KNNClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("KNNClassifier.Fit", 1, yCols, 1)
	}
	if c.k > nSamples {
		return errors.NewValidationError("k", "exceeds the number of training rows", c.k)
	}

	c.xTrain = mat.NewDense(nSamples, nFeatures, nil)
	c.xTrain.Copy(X)
	c.yTrain = make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValueError("KNNClassifier.Fit", "labels must be binary (0 or 1)")
		}
		c.yTrain[i] = v
	}

	c.SetFitted()
	return nil
}

// PredictProba は各行の陽性クラス確率（近傍中の陽性割合）を n×1 行列で返す
func (c *KNNClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !c.IsFitted() {
		return nil, errors.NewNotFittedError("KNNClassifier", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	_, trainFeatures := c.xTrain.Dims()
	if nFeatures != trainFeatures {
		return nil, errors.NewDimensionError("KNNClassifier.PredictProba", trainFeatures, nFeatures, 1)
	}

	probs := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		neighbors := c.findNeighbors(X, i)
		positive := 0
		for _, nb := range neighbors {
			if c.yTrain[nb] == 1 {
				positive++
			}
		}
		probs.Set(i, 0, float64(positive)/float64(len(neighbors)))
	}
	return probs, nil
}

// Predict は既定閾値0.5で確率をクラスラベルに変換する
func (c *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := c.PredictProba(X)
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

// K は設定された近傍数を返す
func (c *KNNClassifier) K() int {
	return c.k
}

// GetParams はモデルのハイパーパラメータを取得する
func (c *KNNClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"k": c.k}
}

// findNeighbors returns the indices of the k training rows closest to the
// query row, ties broken by original training order.
func (c *KNNClassifier) findNeighbors(X mat.Matrix, row int) []int {
	nTrain, _ := c.xTrain.Dims()

	type neighbor struct {
		index int
		dist  float64
	}
	neighbors := make([]neighbor, nTrain)
	for i := 0; i < nTrain; i++ {
		neighbors[i] = neighbor{index: i, dist: c.euclidean(X, row, i)}
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].dist < neighbors[b].dist
	})

	out := make([]int, c.k)
	for i := range out {
		out[i] = neighbors[i].index
	}
	return out
}

func (c *KNNClassifier) euclidean(X mat.Matrix, row, trainRow int) float64 {
	_, nFeatures := c.xTrain.Dims()
	sum := 0.0
	for j := 0; j < nFeatures; j++ {
		d := X.At(row, j) - c.xTrain.At(trainRow, j)
		sum += d * d
	}
	return math.Sqrt(sum)
}
