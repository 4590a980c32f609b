package dataset

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// relabels maps raw on-disk codes to the declared human-readable levels.
// credit_history arrives as a 0/1 flag (sometimes written as a float by
// spreadsheet exports), loan_status as Y/N.
var relabels = map[string]map[string]string{
	"credit_history": {
		"0": "Bad", "0.0": "Bad",
		"1": "Good", "1.0": "Good",
	},
	"loan_status": {
		"N": NegativeLabel,
		"Y": PositiveLabel,
	},
}

// headerAliases fixes up raw headers whose camel-case spelling folds to a
// single run of letters, so they still land on the schema's snake_case names.
var headerAliases = map[string]string{
	"applicantincome":   "applicant_income",
	"coapplicantincome": "coapplicant_income",
	"loanamount":        "loan_amount",
}

// NormalizeName は生のヘッダ名を正規化する。
// 小文字化し、英数字以外の区切りを単一のアンダースコアに畳み込む。
func NormalizeName(raw string) string {
	var b strings.Builder
	lastUnderscore := true // leading separators are dropped
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// Normalize は生のデータフレームを宣言スキーマに適合するTableへ変換する。
//
// 処理は次の順で行う:
//  1. ヘッダ名を正規化してスキーマ列と対応付ける（欠けていればSchemaError）
//  2. 空文字列を欠損マーカーへ変換する。欠損数の集計より前に行わないと
//     空文字列が観測値として数えられてしまう
//  3. credit_history / loan_status の生コードを宣言水準へ付け替える
//  4. カテゴリ値が閉集合に含まれるか、数値が解析可能かを検証する
//
// スキーマに無い列（識別子など）は黙って無視される。
func Normalize(df dataframe.DataFrame, schema Schema) (*Table, error) {
	byNorm := make(map[string]string, len(df.Names()))
	for _, raw := range df.Names() {
		norm := NormalizeName(raw)
		if alias, ok := headerAliases[norm]; ok {
			norm = alias
		}
		byNorm[norm] = raw
	}

	nRows := df.Nrow()
	out := NewTable(schema, nRows)

	for ci, spec := range schema.Columns {
		rawName, ok := byNorm[spec.Name]
		if !ok {
			return nil, errors.NewSchemaError(spec.Name, "required column is absent")
		}

		records := df.Col(rawName).Records()
		if len(records) != nRows {
			return nil, errors.NewDimensionError("Normalize", nRows, len(records), 0)
		}

		col := out.ColumnAt(ci)
		for row, raw := range records {
			v := strings.TrimSpace(raw)
			// Blank-to-missing happens before any validation or counting.
			// gota renders missing string cells as "NaN"; treat both forms
			// as the missing marker.
			if v == "" || v == "NaN" {
				if spec.Kind == Label {
					return nil, errors.NewSchemaValueError(spec.Name, row, raw, "label may not be missing")
				}
				col.Missing[row] = true
				continue
			}

			switch spec.Kind {
			case Numeric:
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, errors.NewSchemaValueError(spec.Name, row, raw, "cannot parse numeric value")
				}
				col.Float[row] = f

			case Categorical, Label:
				if m, ok := relabels[spec.Name]; ok {
					if mapped, ok := m[v]; ok {
						v = mapped
					}
				}
				if spec.LevelIndex(v) < 0 {
					return nil, errors.NewSchemaValueError(spec.Name, row, raw, "value outside declared level set")
				}
				col.Str[row] = v
			}
		}
	}

	return out, nil
}
