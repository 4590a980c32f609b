package dataset

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// ReadCSV はヘッダ付きCSVをデータフレームに読み込む。
// 型推論は行わず全列を文字列として読む。空文字列は正規化の段階で
// 欠損マーカーに変換されるため、ここで潰してはいけない。
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		return dataframe.DataFrame{}, errors.Wrap(df.Error(), "loanpipe: failed to parse CSV input")
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, errors.WithStack(errors.ErrEmptyData)
	}
	return df, nil
}

// LoadCSV はファイルパスからCSVを読み込む
func LoadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "loanpipe: cannot open %s", path)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}
