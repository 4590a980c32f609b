package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/core/model"
	"github.com/creditlab/loanpipe/dataset"
	"github.com/creditlab/loanpipe/pkg/errors"
)

// LevelCode はカテゴリ水準と整数コードの対応
type LevelCode struct {
	Level string
	Code  int
}

// LevelEncoder はカテゴリ列の水準を固定の整数コード表に写像する。
//
// コード表は訓練テーブルの宣言スキーマの水準順から一度だけ導出される
// （データからの発見ではない）。どの水準が実際に出現したかに関わらず
// 訓練・評価の両分割で同一のコードが保証される。コードは 1..L で、
// 0 は距離計算用の欠損表現として予約済み。
//
// ラベル列は宣言順インデックスそのもの（陰性=0、陽性=1）に符号化される。
type LevelEncoder struct {
	model.BaseEstimator

	schema   dataset.Schema
	codes    map[string]map[string]int
	features []string
}

// NewLevelEncoder は新しいLevelEncoderを作成する
func NewLevelEncoder() *LevelEncoder {
	return &LevelEncoder{}
}

// Fit は訓練テーブルの宣言スキーマから符号化マップを構築する
func (e *LevelEncoder) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}

	e.schema = t.Schema
	e.codes = make(map[string]map[string]int)
	e.features = nil

	for _, spec := range t.Schema.Columns {
		if spec.Kind == dataset.Label {
			continue
		}
		e.features = append(e.features, spec.Name)
		if spec.Kind != dataset.Categorical {
			continue
		}
		m := make(map[string]int, len(spec.Levels))
		for i, level := range spec.Levels {
			m[level] = i + 1 // 0 reserved for missing
		}
		e.codes[spec.Name] = m
	}

	e.SetFitted()
	return nil
}

// Transform はテーブルを符号化済み特徴行列とラベルベクトルに変換する。
// 符号化マップに無い水準が現れた場合はEncodingError
// （訓練・評価間のスキーマドリフトの兆候）。
func (e *LevelEncoder) Transform(t *dataset.Table) (*mat.Dense, *mat.VecDense, error) {
	if !e.IsFitted() {
		return nil, nil, errors.NewNotFittedError("LevelEncoder", "Transform")
	}

	nRows := t.NumRows()
	if nRows == 0 {
		return nil, nil, errors.WithStack(errors.ErrEmptyData)
	}

	X := mat.NewDense(nRows, len(e.features), nil)
	for j, name := range e.features {
		col := t.Column(name)
		if col == nil {
			return nil, nil, errors.NewSchemaError(name, "required column is absent")
		}
		for row := 0; row < nRows; row++ {
			if col.Missing[row] {
				return nil, nil, errors.NewValueError("LevelEncoder.Transform",
					fmt.Sprintf("column '%s' has a missing value at row %d; impute before encoding", name, row))
			}
			if col.Spec.Kind == dataset.Numeric {
				X.Set(row, j, col.Float[row])
				continue
			}
			code, ok := e.codes[name][col.Str[row]]
			if !ok {
				return nil, nil, errors.NewEncodingError(name, col.Str[row], row)
			}
			X.Set(row, j, float64(code))
		}
	}

	li := t.Schema.LabelIndex()
	if li < 0 {
		return nil, nil, errors.NewSchemaError("label", "schema declares no label column")
	}
	labelCol := t.ColumnAt(li)
	y := mat.NewVecDense(nRows, nil)
	for row := 0; row < nRows; row++ {
		idx := labelCol.Spec.LevelIndex(labelCol.Str[row])
		if idx < 0 {
			return nil, nil, errors.NewEncodingError(labelCol.Spec.Name, labelCol.Str[row], row)
		}
		y.SetVec(row, float64(idx))
	}

	return X, y, nil
}

// FitTransform は訓練テーブルで符号化マップを構築し、同じテーブルを変換する
func (e *LevelEncoder) FitTransform(t *dataset.Table) (*mat.Dense, *mat.VecDense, error) {
	if err := e.Fit(t); err != nil {
		return nil, nil, err
	}
	return e.Transform(t)
}

// Encoding は列ごとの (水準, コード) の順序付きリストを返す
func (e *LevelEncoder) Encoding() map[string][]LevelCode {
	out := make(map[string][]LevelCode, len(e.codes))
	for _, spec := range e.schema.Columns {
		if spec.Kind != dataset.Categorical {
			continue
		}
		pairs := make([]LevelCode, len(spec.Levels))
		for i, level := range spec.Levels {
			pairs[i] = LevelCode{Level: level, Code: i + 1}
		}
		out[spec.Name] = pairs
	}
	return out
}

// DecodeLevel は整数コードから元の水準を復元する（逆写像）
func (e *LevelEncoder) DecodeLevel(column string, code int) (string, error) {
	if !e.IsFitted() {
		return "", errors.NewNotFittedError("LevelEncoder", "DecodeLevel")
	}
	i := e.schema.Index(column)
	if i < 0 {
		return "", errors.NewSchemaError(column, "required column is absent")
	}
	spec := e.schema.Columns[i]
	if code < 1 || code > len(spec.Levels) {
		return "", errors.NewValueError("LevelEncoder.DecodeLevel",
			fmt.Sprintf("code %d out of range for column '%s'", code, column))
	}
	return spec.Levels[code-1], nil
}

// FeatureNames は符号化後の特徴列の順序を返す
func (e *LevelEncoder) FeatureNames() []string {
	out := make([]string, len(e.features))
	copy(out, e.features)
	return out
}
