package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// TrainTestSplit はラベルの層化に基づいてTableを訓練・評価の2つに分割する。
//
// クラスごとに行インデックスを集め、シード付き乱数でクラス内だけを
// シャッフルし、各クラスの先頭 trainFraction 分を訓練側に入れる。
// これによりクラス比率は丸め誤差の範囲で厳密に保存される。
// 同じ (table, trainFraction, seed) に対して結果は常に同一。
func TrainTestSplit(t *Table, trainFraction float64, seed uint64) (*Table, *Table, error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, errors.NewPartitionError("train fraction must be in (0, 1)", trainFraction)
	}
	li := t.Schema.LabelIndex()
	if li < 0 {
		return nil, nil, errors.NewSchemaError("label", "schema declares no label column")
	}

	labelCol := t.ColumnAt(li)
	byClass := make(map[string][]int)
	for row := 0; row < t.NumRows(); row++ {
		byClass[labelCol.Str[row]] = append(byClass[labelCol.Str[row]], row)
	}

	// Iterate classes in declared level order so the rng stream is
	// consumed in a fixed order.
	rng := rand.New(rand.NewPCG(seed, seed))
	var trainIdx, evalIdx []int
	for _, level := range labelCol.Spec.Levels {
		indices := byClass[level]
		if len(indices) == 0 {
			continue
		}
		if len(indices) < 2 {
			return nil, nil, errors.NewPartitionClassError("class too small to split", level, len(indices))
		}

		shuffled := make([]int, len(indices))
		copy(shuffled, indices)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		nTrain := int(math.Round(trainFraction * float64(len(shuffled))))
		// Both partitions keep at least one row of every class.
		if nTrain < 1 {
			nTrain = 1
		}
		if nTrain > len(shuffled)-1 {
			nTrain = len(shuffled) - 1
		}

		trainIdx = append(trainIdx, shuffled[:nTrain]...)
		evalIdx = append(evalIdx, shuffled[nTrain:]...)
	}

	// Restore original row order inside each partition.
	sort.Ints(trainIdx)
	sort.Ints(evalIdx)

	return t.Select(trainIdx), t.Select(evalIdx), nil
}

// ClassProportion はラベルが指定水準である行の割合を返す
func ClassProportion(t *Table, level string) float64 {
	li := t.Schema.LabelIndex()
	if li < 0 || t.NumRows() == 0 {
		return 0
	}
	labelCol := t.ColumnAt(li)
	n := 0
	for row := 0; row < t.NumRows(); row++ {
		if labelCol.Str[row] == level {
			n++
		}
	}
	return float64(n) / float64(t.NumRows())
}
