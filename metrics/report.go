package metrics

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// Rate は [0,1] の比率。未定義（ゼロ分母）の指標はNaNで保持され、
// JSONではnullとして直列化される（encoding/jsonはNaNを書けない）。
type Rate float64

// MarshalJSON implements json.Marshaler, mapping NaN to null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(r)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r Rate) csvField() string {
	if math.IsNaN(float64(r)) {
		return "NaN"
	}
	return strconv.FormatFloat(float64(r), 'f', 6, 64)
}

// ModelReport は1モデル分の評価結果
type ModelReport struct {
	Model       string          `json:"model"`
	Threshold   float64         `json:"threshold"`
	Counts      ConfusionCounts `json:"confusion"`
	Accuracy    Rate            `json:"accuracy"`
	Precision   Rate            `json:"precision"`
	Sensitivity Rate            `json:"sensitivity"`
	Specificity Rate            `json:"specificity"`
	FPR         Rate            `json:"false_positive_rate"`
	FNR         Rate            `json:"false_negative_rate"`
	AUC         Rate            `json:"auc"`
	ROC         []ROCPoint      `json:"roc,omitempty"`
}

// NewModelReport は混同行列とROC曲線から全指標を導出したレポートを組み立てる
func NewModelReport(name string, threshold float64, counts ConfusionCounts, curve []ROCPoint) ModelReport {
	return ModelReport{
		Model:       name,
		Threshold:   threshold,
		Counts:      counts,
		Accuracy:    Rate(counts.Accuracy()),
		Precision:   Rate(counts.Precision()),
		Sensitivity: Rate(counts.Sensitivity()),
		Specificity: Rate(counts.Specificity()),
		FPR:         Rate(counts.FalsePositiveRate()),
		FNR:         Rate(counts.FalseNegativeRate()),
		AUC:         Rate(AUCFromCurve(curve)),
		ROC:         curve,
	}
}

// WriteJSON はレポート群をインデント付きJSONで書き出す
func WriteJSON(w io.Writer, reports []ModelReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return errors.Wrap(err, "failed to encode reports as JSON")
	}
	return nil
}

// WriteCSV はレポート群を1モデル1行のCSVで書き出す（ROC点列は含めない）
func WriteCSV(w io.Writer, reports []ModelReport) error {
	cw := csv.NewWriter(w)
	header := []string{
		"model", "threshold", "tp", "tn", "fp", "fn",
		"accuracy", "precision", "sensitivity", "specificity",
		"false_positive_rate", "false_negative_rate", "auc",
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	for _, r := range reports {
		row := []string{
			r.Model,
			strconv.FormatFloat(r.Threshold, 'f', -1, 64),
			strconv.Itoa(r.Counts.TP),
			strconv.Itoa(r.Counts.TN),
			strconv.Itoa(r.Counts.FP),
			strconv.Itoa(r.Counts.FN),
			r.Accuracy.csvField(),
			r.Precision.csvField(),
			r.Sensitivity.csvField(),
			r.Specificity.csvField(),
			r.FPR.csvField(),
			r.FNR.csvField(),
			r.AUC.csvField(),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write CSV row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV output")
	}
	return nil
}
