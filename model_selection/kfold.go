// Package model_selection は層化交差検証とランダム探索によるモデル選択を提供します。
package model_selection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// Splitter は交差検証の分割器のインターフェース
type Splitter interface {
	Split(X, y mat.Matrix) ([]CVFold, error)
	GetNSplits() int
}

// CVFold は交差検証の1分割
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold はクラス比率を保つk分割交差検証の分割器。
//
// クラスごとに行インデックスをシャッフルし、各分割へ順番に配る。
// 同じシードに対して分割は常に同一。
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewStratifiedKFold は新しいStratifiedKFoldを作成する（最小2分割）
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed uint64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits は分割数を返す
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split はクラス層化された訓練/検証インデックスを各分割について生成する。
// いずれかのクラスの行数が分割数を下回る場合はPartitionError
// （そのクラスを欠く検証分割ができ、AUCが未定義になるため）。
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]CVFold, error) {
	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}
	if nSamples == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	// Map iteration order is randomized; process classes in sorted label
	// order so identical seeds give identical folds.
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	for _, label := range labels {
		if len(classIndices[label]) < skf.NSplits {
			return nil, errors.NewPartitionClassError(
				"class has fewer rows than the number of folds",
				formatLabel(label), len(classIndices[label]))
		}
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(skf.RandomSeed, skf.RandomSeed))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.NSplits)

	// Deal each class across the folds round by round.
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		current := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[current:current+testSize]...)
			current += testSize
		}
	}

	for i := range folds {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds, nil
}

// ExtractSubset は指定インデックスの行だけを持つ (X, y) の部分行列を返す。
// 行は元の順序で並ぶ。
func ExtractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	xSub := mat.NewDense(rows, xCols, nil)
	ySub := mat.NewDense(rows, yCols, nil)
	for i, idx := range sorted {
		for j := 0; j < xCols; j++ {
			xSub.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySub.Set(i, j, y.At(idx, j))
		}
	}
	return xSub, ySub
}

func formatLabel(label float64) string {
	if label == 1 {
		return "positive"
	}
	return "negative"
}
