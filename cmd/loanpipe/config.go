package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// Config は1回のパイプライン実行の全設定
type Config struct {
	// 入出力
	Input      string `json:"input" yaml:"input"`             // 申請データCSVのパス
	ReportJSON string `json:"report_json" yaml:"report_json"` // 評価レポート(JSON)の出力先（空で無効）
	ReportCSV  string `json:"report_csv" yaml:"report_csv"`   // 評価レポート(CSV)の出力先（空で無効）
	ROCPlot    string `json:"roc_plot" yaml:"roc_plot"`       // ROC曲線画像の出力先（空で無効）

	LogLevel string `json:"log_level" yaml:"log_level"`

	// 前処理と分割
	Seed                 uint64  `json:"seed" yaml:"seed"`
	TrainFraction        float64 `json:"train_fraction" yaml:"train_fraction"`
	ImputeNeighbors      int     `json:"impute_neighbors" yaml:"impute_neighbors"`
	MissingnessThreshold float64 `json:"missingness_threshold" yaml:"missingness_threshold"`

	// 評価
	DecisionThreshold float64 `json:"decision_threshold" yaml:"decision_threshold"`

	// モデル別ハイパーパラメータ
	Logistic LogisticConfig `json:"logistic" yaml:"logistic"`
	KNN      KNNConfig      `json:"knn" yaml:"knn"`

	// ランダム探索（無効ならモデルは固定パラメータで学習）
	Search SearchConfig `json:"search" yaml:"search"`
}

// LogisticConfig はロジスティック回帰のハイパーパラメータ
type LogisticConfig struct {
	MaxIter      int     `json:"max_iter" yaml:"max_iter"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	L2           float64 `json:"l2" yaml:"l2"`
}

// KNNConfig はk近傍分類器のハイパーパラメータ
type KNNConfig struct {
	Neighbors int `json:"neighbors" yaml:"neighbors"`
}

// SearchConfig はランダム探索の設定
type SearchConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Trials  int    `json:"trials" yaml:"trials"`
	Folds   int    `json:"folds" yaml:"folds"`
	Scoring string `json:"scoring" yaml:"scoring"` // "auc" または "accuracy"
}

// NewConfig は既定値入りのConfigを作成する
func NewConfig() Config {
	return Config{
		LogLevel:             "info",
		Seed:                 42,
		TrainFraction:        0.8,
		ImputeNeighbors:      5,
		MissingnessThreshold: 0.5,
		DecisionThreshold:    0.5,
		Logistic: LogisticConfig{
			MaxIter:      200,
			LearningRate: 1.0,
			L2:           0,
		},
		KNN: KNNConfig{Neighbors: 5},
		Search: SearchConfig{
			Enabled: false,
			Trials:  20,
			Folds:   5,
			Scoring: "auc",
		},
	}
}

// LoadConfig は設定ファイルを読み込み、既定値の上に重ねる。
// 形式は拡張子で決まる（.json / .yaml / .yml）。
func LoadConfig(path string) (Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, errors.Newf("unsupported config file format: %s", path)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	return cfg, nil
}

// Validate は設定値の整合性を検証する
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.NewValidationError("input", "path to the applications CSV is required", c.Input)
	}
	if c.TrainFraction <= 0 || c.TrainFraction >= 1 {
		return errors.NewValidationError("train_fraction", "must be strictly between 0 and 1", c.TrainFraction)
	}
	if c.ImputeNeighbors < 1 {
		return errors.NewValidationError("impute_neighbors", "must be a positive integer", c.ImputeNeighbors)
	}
	if c.MissingnessThreshold <= 0 || c.MissingnessThreshold > 1 {
		return errors.NewValidationError("missingness_threshold", "must be in (0, 1]", c.MissingnessThreshold)
	}
	if c.DecisionThreshold < 0 || c.DecisionThreshold > 1 {
		return errors.NewValidationError("decision_threshold", "must be in [0, 1]", c.DecisionThreshold)
	}
	if c.KNN.Neighbors < 1 {
		return errors.NewValidationError("knn.neighbors", "must be a positive integer", c.KNN.Neighbors)
	}
	if c.Logistic.MaxIter < 1 {
		return errors.NewValidationError("logistic.max_iter", "must be a positive integer", c.Logistic.MaxIter)
	}
	if c.Search.Enabled {
		if c.Search.Trials < 1 {
			return errors.NewValidationError("search.trials", "must be a positive integer", c.Search.Trials)
		}
		if c.Search.Folds < 2 {
			return errors.NewValidationError("search.folds", "must be at least 2", c.Search.Folds)
		}
		if c.Search.Scoring != "auc" && c.Search.Scoring != "accuracy" {
			return errors.NewValidationError("search.scoring", "must be auc or accuracy", c.Search.Scoring)
		}
	}
	return nil
}
