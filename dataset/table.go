// Package dataset はローン審査データの表形式データモデルを提供します。
// 型付き列・閉集合のカテゴリ水準・欠損マスクを持つTableと、
// その読み込み・正規化・層化分割を担います。
package dataset

import (
	"github.com/creditlab/loanpipe/pkg/errors"
)

// ColumnKind は列の型タグを表す
type ColumnKind int

const (
	// Numeric は浮動小数点の数値列
	Numeric ColumnKind = iota
	// Categorical は閉集合の水準を持つカテゴリ列
	Categorical
	// Label は目的変数の列（カテゴリ列の特殊形）
	Label
)

// String はColumnKindの文字列表現を返す
func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Label:
		return "label"
	default:
		return "unknown"
	}
}

// Positive / negative class labels. "Approved" is the positive class for
// every downstream metric (TP = correctly predicted Approved).
const (
	PositiveLabel = "Approved"
	NegativeLabel = "Not Approved"
)

// ColumnSpec は1列の宣言を表す。
// Categorical/Label列のLevelsは閉集合かつ順序付きで、
// この宣言順がエンコード値と同数決定のタイブレークを支配する。
type ColumnSpec struct {
	Name   string
	Kind   ColumnKind
	Levels []string
}

// LevelIndex は水準の宣言順インデックスを返す（存在しない場合 -1）
func (c ColumnSpec) LevelIndex(level string) int {
	for i, l := range c.Levels {
		if l == level {
			return i
		}
	}
	return -1
}

// Schema は宣言済みの列集合。一度宣言したら不変。
type Schema struct {
	Columns []ColumnSpec
}

// Index は列名から列位置を返す（存在しない場合 -1）
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// LabelIndex はLabel列の位置を返す（存在しない場合 -1）
func (s Schema) LabelIndex() int {
	for i, c := range s.Columns {
		if c.Kind == Label {
			return i
		}
	}
	return -1
}

// Column は1列分のデータ。数値列はFloat、カテゴリ列はStrを使い、
// 欠損は並行するMissingマスクで表現する（番兵値は使わない）。
type Column struct {
	Spec    ColumnSpec
	Float   []float64
	Str     []string
	Missing []bool
}

// MissingCount は欠損セル数を返す
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Table はスキーマを共有する行の順序付き集合
type Table struct {
	Schema Schema
	cols   []*Column
	nRows  int
}

// NewTable は指定したスキーマと行数で空のTableを確保する
func NewTable(schema Schema, nRows int) *Table {
	cols := make([]*Column, len(schema.Columns))
	for i, spec := range schema.Columns {
		col := &Column{
			Spec:    spec,
			Missing: make([]bool, nRows),
		}
		if spec.Kind == Numeric {
			col.Float = make([]float64, nRows)
		} else {
			col.Str = make([]string, nRows)
		}
		cols[i] = col
	}
	return &Table{Schema: schema, cols: cols, nRows: nRows}
}

// NumRows は行数を返す
func (t *Table) NumRows() int {
	return t.nRows
}

// Column は列名で列を取得する（存在しない場合 nil）
func (t *Table) Column(name string) *Column {
	i := t.Schema.Index(name)
	if i < 0 {
		return nil
	}
	return t.cols[i]
}

// ColumnAt はスキーマ位置で列を取得する
func (t *Table) ColumnAt(i int) *Column {
	return t.cols[i]
}

// MissingTotal は全列の欠損セル数の合計を返す
func (t *Table) MissingTotal() int {
	total := 0
	for _, c := range t.cols {
		total += c.MissingCount()
	}
	return total
}

// RowHasMissing は行に1つ以上の欠損があるかを返す
func (t *Table) RowHasMissing(row int) bool {
	for _, c := range t.cols {
		if c.Missing[row] {
			return true
		}
	}
	return false
}

// LabelAt は行の目的変数の値を返す。Label列が無い場合はエラー。
func (t *Table) LabelAt(row int) (string, error) {
	li := t.Schema.LabelIndex()
	if li < 0 {
		return "", errors.NewSchemaError("label", "schema declares no label column")
	}
	return t.cols[li].Str[row], nil
}

// Clone はTableの深いコピーを返す
func (t *Table) Clone() *Table {
	out := NewTable(t.Schema, t.nRows)
	for i, c := range t.cols {
		copy(out.cols[i].Missing, c.Missing)
		if c.Spec.Kind == Numeric {
			copy(out.cols[i].Float, c.Float)
		} else {
			copy(out.cols[i].Str, c.Str)
		}
	}
	return out
}

// Select は行インデックスの部分集合から新しいTableを作る。
// インデックスの順序はそのまま保たれる。
func (t *Table) Select(indices []int) *Table {
	out := NewTable(t.Schema, len(indices))
	for ci, c := range t.cols {
		oc := out.cols[ci]
		for i, idx := range indices {
			oc.Missing[i] = c.Missing[idx]
			if c.Spec.Kind == Numeric {
				oc.Float[i] = c.Float[idx]
			} else {
				oc.Str[i] = c.Str[idx]
			}
		}
	}
	return out
}

// LoanSchema はローン申請データセットの宣言スキーマを返す。
// 水準の宣言順はエンコード値と同数タイブレークの基準になるため固定。
func LoanSchema() Schema {
	return Schema{Columns: []ColumnSpec{
		{Name: "gender", Kind: Categorical, Levels: []string{"Female", "Male"}},
		{Name: "married", Kind: Categorical, Levels: []string{"No", "Yes"}},
		{Name: "dependents", Kind: Categorical, Levels: []string{"0", "1", "2", "3+"}},
		{Name: "education", Kind: Categorical, Levels: []string{"Graduate", "Not Graduate"}},
		{Name: "self_employed", Kind: Categorical, Levels: []string{"No", "Yes"}},
		{Name: "applicant_income", Kind: Numeric},
		{Name: "coapplicant_income", Kind: Numeric},
		{Name: "loan_amount", Kind: Numeric},
		{Name: "loan_amount_term", Kind: Numeric},
		{Name: "credit_history", Kind: Categorical, Levels: []string{"Bad", "Good"}},
		{Name: "property_area", Kind: Categorical, Levels: []string{"Rural", "Semiurban", "Urban"}},
		{Name: "loan_status", Kind: Label, Levels: []string{NegativeLabel, PositiveLabel}},
	}}
}
