// Package metrics は二値分類の評価指標を提供します。
// 混同行列から導かれる比率とROC/AUCを扱い、陽性クラスは常に
// 「予測確率ベクトルが指す側」= コード1のクラスです。
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// DefaultThreshold は確率を予測クラスに変換する既定の判定閾値
const DefaultThreshold = 0.5

// ConfusionCounts は二値分類の混同行列の4セル。
// 陽性 = ラベル1（"Approved"）で、TPは正しく陽性と予測された行数。
type ConfusionCounts struct {
	TP int
	TN int
	FP int
	FN int
}

// Confusion は (真ラベル, 予測確率) の組から混同行列を集計する。
// 確率が閾値以上の行を陽性予測として扱う。
func Confusion(yTrue, yScore *mat.VecDense, threshold float64) (ConfusionCounts, error) {
	var c ConfusionCounts
	if yTrue == nil || yScore == nil {
		return c, errors.NewValueError("Confusion", "nil input vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return c, errors.NewValueError("Confusion", "empty vector")
	}
	if yScore.Len() != n {
		return c, errors.NewDimensionError("Confusion", n, yScore.Len(), 0)
	}

	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return c, errors.NewValueError("Confusion", "labels must be binary (0 or 1)")
		}
		predPositive := yScore.AtVec(i) >= threshold
		switch {
		case label == 1 && predPositive:
			c.TP++
		case label == 1 && !predPositive:
			c.FN++
		case label == 0 && predPositive:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

// Total は評価した行数を返す。常に TP+TN+FP+FN。
func (c ConfusionCounts) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// rate computes a ratio with the documented zero-denominator policy:
// the metric is reported as NaN and an UndefinedMetricWarning is raised,
// rather than crashing or silently substituting a value.
func rate(metric string, num, den int) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, "zero denominator", math.NaN()))
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// Accuracy は (TP+TN)/(TP+TN+FP+FN) を返す
func (c ConfusionCounts) Accuracy() float64 {
	return rate("accuracy", c.TP+c.TN, c.Total())
}

// Precision は TP/(TP+FP) を返す。陽性予測が1件も無い場合はNaN。
func (c ConfusionCounts) Precision() float64 {
	return rate("precision", c.TP, c.TP+c.FP)
}

// Sensitivity は TP/(TP+FN)（再現率）を返す
func (c ConfusionCounts) Sensitivity() float64 {
	return rate("sensitivity", c.TP, c.TP+c.FN)
}

// Recall はSensitivityの別名
func (c ConfusionCounts) Recall() float64 {
	return c.Sensitivity()
}

// Specificity は TN/(TN+FP) を返す
func (c ConfusionCounts) Specificity() float64 {
	return rate("specificity", c.TN, c.TN+c.FP)
}

// FalsePositiveRate は FP/(FP+TN) を返す
func (c ConfusionCounts) FalsePositiveRate() float64 {
	return rate("false_positive_rate", c.FP, c.FP+c.TN)
}

// FalseNegativeRate は FN/(FN+TP) を返す
func (c ConfusionCounts) FalseNegativeRate() float64 {
	return rate("false_negative_rate", c.FN, c.FN+c.TP)
}

// ROCPoint はROC曲線上の1点
type ROCPoint struct {
	FPR       float64
	TPR       float64
	Threshold float64
}

// ROCCurve は判定閾値を+∞から掃引しながら (FPR, TPR) の列を計算する。
//
// 行は予測確率の降順に処理され、同一確率の行は1つの曲線点に畳み込まれる
// （1行ずつ動かすと閾値の処理順に依存した曲線になり、AUCに偏りが出る）。
// 先頭には閾値+∞の点 (0,0) が置かれ、末尾は必ず (1,1) に到達する。
//
// 全ての行が単一の真クラスに属する場合はDegenerateCurveError。
func ROCCurve(yTrue, yScore *mat.VecDense) ([]ROCPoint, error) {
	if yTrue == nil || yScore == nil {
		return nil, errors.NewValueError("ROCCurve", "nil input vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ROCCurve", "empty vector")
	}
	if yScore.Len() != n {
		return nil, errors.NewDimensionError("ROCCurve", n, yScore.Len(), 0)
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return nil, errors.NewValueError("ROCCurve", "labels must be binary (0 or 1)")
		}
	}
	if nPos == 0 {
		return nil, errors.NewDegenerateCurveError("negative", n)
	}
	if nNeg == 0 {
		return nil, errors.NewDegenerateCurveError("positive", n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) > yScore.AtVec(order[b])
	})

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	for i := 0; i < n; {
		threshold := yScore.AtVec(order[i])
		// Consume the whole tie group before emitting a point.
		for i < n && yScore.AtVec(order[i]) == threshold {
			if yTrue.AtVec(order[i]) == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, ROCPoint{
			FPR:       float64(fp) / float64(nNeg),
			TPR:       float64(tp) / float64(nPos),
			Threshold: threshold,
		})
	}
	return points, nil
}

// AUCFromCurve はROC曲線点列を台形則で積分する
func AUCFromCurve(points []ROCPoint) float64 {
	auc := 0.0
	for i := 1; i < len(points); i++ {
		dx := points[i].FPR - points[i-1].FPR
		auc += dx * (points[i].TPR + points[i-1].TPR) / 2
	}
	return auc
}

// AUC は (真ラベル, 予測確率) から直接AUCを計算する
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	curve, err := ROCCurve(yTrue, yScore)
	if err != nil {
		return 0, err
	}
	return AUCFromCurve(curve), nil
}
