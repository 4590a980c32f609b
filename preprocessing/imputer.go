// Package preprocessing はテーブルの欠損補完とカテゴリ符号化を提供します。
package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/creditlab/loanpipe/core/parallel"
	"github.com/creditlab/loanpipe/dataset"
	"github.com/creditlab/loanpipe/pkg/errors"
)

// DefaultMissingnessThreshold は列単位の欠損率ガードの既定値。
// 欠損が行の過半を占める列は補完の根拠が弱すぎるため拒否する。
const DefaultMissingnessThreshold = 0.5

// defaultParallelThreshold is the row count above which neighbor distances
// are computed across CPU cores. Results are identical either way.
const defaultParallelThreshold = 64

// KNNImputer は欠損セルをk近傍の観測値で埋める。
//
// 距離は数値列・カテゴリ列の混合メトリック:
//   - 数値列: 観測値のレンジで[0,1]に正規化した絶対差。
//     大きな生の振幅を持つ列が距離を支配しないようにする
//   - カテゴリ列: 水準一致で0、不一致で1（単純マッチング距離）
//
// 近傍候補は特徴列が全て観測済みの行に限る。対象行自身が欠損している列は
// 距離計算から除外する（欠損値を循環的に参照しない）。ラベル列は特徴では
// ないため距離に含めない。
//
// 補完は単一パスで行い、ある行の補完結果を別の行の近傍データとして
// 使うことはない。同じ (table, k) に対して結果は常に同一。
type KNNImputer struct {
	k                    int
	missingnessThreshold float64
	parallelThreshold    int
}

// KNNImputerOption はKNNImputerの振る舞いを調整する
type KNNImputerOption func(*KNNImputer)

// WithMissingnessThreshold は列単位の欠損率ガードの閾値を設定する。
// 閾値を超える列があるとImputationErrorになる。
func WithMissingnessThreshold(threshold float64) KNNImputerOption {
	return func(imp *KNNImputer) {
		imp.missingnessThreshold = threshold
	}
}

// WithParallelThreshold は並列化を始める対象行数を設定する
func WithParallelThreshold(rows int) KNNImputerOption {
	return func(imp *KNNImputer) {
		imp.parallelThreshold = rows
	}
}

// NewKNNImputer は近傍数kのKNNImputerを作成する（参照挙動: k = 5）
func NewKNNImputer(k int, opts ...KNNImputerOption) *KNNImputer {
	imp := &KNNImputer{
		k:                    k,
		missingnessThreshold: DefaultMissingnessThreshold,
		parallelThreshold:    defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Impute は欠損を含む全ての行を補完した新しいTableを返す。
// 入力テーブルは変更しない。
func (imp *KNNImputer) Impute(t *dataset.Table) (*dataset.Table, error) {
	if imp.k < 1 {
		return nil, errors.NewValidationError("k", "must be a positive integer", imp.k)
	}
	if imp.missingnessThreshold <= 0 || imp.missingnessThreshold > 1 {
		return nil, errors.NewValidationError("missingness_threshold", "must be in (0, 1]", imp.missingnessThreshold)
	}
	nRows := t.NumRows()
	if nRows == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}

	features := featureIndices(t.Schema)

	// Ambiguous-missingness guard: reject columns missing in more than
	// missingnessThreshold of rows before any distance work.
	for _, ci := range features {
		col := t.ColumnAt(ci)
		frac := float64(col.MissingCount()) / float64(nRows)
		if frac > imp.missingnessThreshold {
			return nil, errors.NewImputationColumnError(col.Spec.Name,
				fmt.Sprintf("missing in %.1f%% of rows, threshold is %.1f%%",
					frac*100, imp.missingnessThreshold*100))
		}
	}

	var candidates, targets []int
	for row := 0; row < nRows; row++ {
		if rowComplete(t, features, row) {
			candidates = append(candidates, row)
		} else {
			targets = append(targets, row)
		}
	}

	out := t.Clone()
	if len(targets) == 0 {
		return out, nil
	}
	if imp.k > len(candidates) {
		return nil, errors.NewImputationError(
			"k exceeds the number of fully-observed candidate rows", imp.k, len(candidates))
	}

	ranges := numericRanges(t, features)

	// Every target row reads only originally-observed values from t and
	// writes only its own row in out, so chunks are independent.
	parallel.ParallelizeWithThreshold(len(targets), imp.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			imp.imputeRow(t, out, features, ranges, candidates, targets[i])
		}
	})

	return out, nil
}

// K は設定された近傍数を返す
func (imp *KNNImputer) K() int {
	return imp.k
}

// GetParams は補完器のパラメータを取得する
func (imp *KNNImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"k":                     imp.k,
		"missingness_threshold": imp.missingnessThreshold,
	}
}

// imputeRow fills every missing cell of the target row from its k nearest
// fully-observed neighbors.
func (imp *KNNImputer) imputeRow(t, out *dataset.Table, features []int, ranges map[int]float64, candidates []int, row int) {
	type neighbor struct {
		index int
		dist  float64
	}

	neighbors := make([]neighbor, len(candidates))
	for i, cand := range candidates {
		neighbors[i] = neighbor{index: cand, dist: imp.distance(t, features, ranges, row, cand)}
	}

	// Ties broken by original row order: candidates are ascending and the
	// sort is stable, so the lowest index wins.
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].dist < neighbors[j].dist
	})
	nearest := make([]int, imp.k)
	for i := range nearest {
		nearest[i] = neighbors[i].index
	}

	for _, ci := range features {
		col := t.ColumnAt(ci)
		if !col.Missing[row] {
			continue
		}
		outCol := out.ColumnAt(ci)
		outCol.Missing[row] = false
		if col.Spec.Kind == dataset.Numeric {
			sum := 0.0
			for _, nb := range nearest {
				sum += col.Float[nb]
			}
			outCol.Float[row] = sum / float64(len(nearest))
		} else {
			outCol.Str[row] = modeLevel(col, nearest)
		}
	}
}

// distance computes the mixed-type metric between the target row and a
// fully-observed candidate, over the columns the target has observed.
func (imp *KNNImputer) distance(t *dataset.Table, features []int, ranges map[int]float64, row, cand int) float64 {
	d := 0.0
	for _, ci := range features {
		col := t.ColumnAt(ci)
		if col.Missing[row] {
			continue
		}
		if col.Spec.Kind == dataset.Numeric {
			d += math.Abs(col.Float[row]-col.Float[cand]) / ranges[ci]
		} else if col.Str[row] != col.Str[cand] {
			d += 1
		}
	}
	return d
}

// modeLevel returns the most frequent level among the neighbor rows, ties
// broken by the column's declared level order (earliest-declared level wins).
func modeLevel(col *dataset.Column, nearest []int) string {
	counts := make(map[string]int, len(col.Spec.Levels))
	for _, nb := range nearest {
		counts[col.Str[nb]]++
	}

	best := ""
	bestCount := -1
	for _, level := range col.Spec.Levels {
		if c := counts[level]; c > bestCount {
			best = level
			bestCount = c
		}
	}
	return best
}

// featureIndices returns schema positions of every non-label column.
func featureIndices(schema dataset.Schema) []int {
	var out []int
	for i, c := range schema.Columns {
		if c.Kind != dataset.Label {
			out = append(out, i)
		}
	}
	return out
}

// rowComplete reports whether the row has no missing feature cells.
func rowComplete(t *dataset.Table, features []int, row int) bool {
	for _, ci := range features {
		if t.ColumnAt(ci).Missing[row] {
			return false
		}
	}
	return true
}

// numericRanges computes the observed min-max width of each numeric feature.
// Constant columns get width 1 so they contribute zero distance instead of
// dividing by zero.
func numericRanges(t *dataset.Table, features []int) map[int]float64 {
	ranges := make(map[int]float64)
	for _, ci := range features {
		col := t.ColumnAt(ci)
		if col.Spec.Kind != dataset.Numeric {
			continue
		}
		minV := math.Inf(1)
		maxV := math.Inf(-1)
		for row := 0; row < t.NumRows(); row++ {
			if col.Missing[row] {
				continue
			}
			minV = math.Min(minV, col.Float[row])
			maxV = math.Max(maxV, col.Float[row])
		}
		width := maxV - minV
		if width < 1e-12 || math.IsInf(width, 0) {
			width = 1
		}
		ranges[ci] = width
	}
	return ranges
}
