// Command loanpipe は融資申請CSVから承認分類パイプラインを実行します。
//
// 読み込み → スキーマ正規化 → k近傍補完 → 層化分割 → 符号化 →
// 学習（任意でランダム探索） → 評価レポート出力、の順に進みます。
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/core/model"
	"github.com/creditlab/loanpipe/dataset"
	"github.com/creditlab/loanpipe/estimator"
	"github.com/creditlab/loanpipe/metrics"
	"github.com/creditlab/loanpipe/model_selection"
	"github.com/creditlab/loanpipe/pkg/errors"
	"github.com/creditlab/loanpipe/pkg/log"
	"github.com/creditlab/loanpipe/preprocessing"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	input := flag.String("input", "", "path to the applications CSV (overrides config)")
	logLevel := flag.String("loglevel", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg := NewConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loanpipe: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *input != "" {
		cfg.Input = *input
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log.SetupLogger(cfg.LogLevel)
	logger := log.GetLoggerWithName("loanpipe")

	// Model warnings (non-convergence, undefined metrics) go through the
	// structured logger instead of the library default.
	errors.SetWarningHandler(func(w error) {
		logger.Warn("pipeline warning", log.ErrAttr(w))
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.ErrAttr(err))
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("pipeline failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(cfg Config, logger log.Logger) error {
	start := time.Now()

	df, err := dataset.LoadCSV(cfg.Input)
	if err != nil {
		return err
	}

	table, err := dataset.Normalize(df, dataset.LoanSchema())
	if err != nil {
		return err
	}
	logger.Info("loaded applications",
		log.StageKey, "load",
		log.RowsKey, table.NumRows(),
		log.ColumnsKey, len(table.Schema.Columns),
		log.MissingKey, table.MissingTotal())

	imputer := preprocessing.NewKNNImputer(cfg.ImputeNeighbors,
		preprocessing.WithMissingnessThreshold(cfg.MissingnessThreshold))
	imputed, err := imputer.Impute(table)
	if err != nil {
		return err
	}
	logger.Info("imputed missing cells",
		log.StageKey, "impute",
		log.MissingKey, table.MissingTotal())

	train, test, err := dataset.TrainTestSplit(imputed, cfg.TrainFraction, cfg.Seed)
	if err != nil {
		return err
	}
	logger.Info("split into partitions",
		log.StageKey, "split",
		log.SeedKey, cfg.Seed,
		"train_rows", train.NumRows(),
		"test_rows", test.NumRows())

	encoder := preprocessing.NewLevelEncoder()
	trainX, trainY, err := encoder.FitTransform(train)
	if err != nil {
		return err
	}
	testX, testY, err := encoder.Transform(test)
	if err != nil {
		return err
	}

	reports := make([]metrics.ModelReport, 0, 2)
	curves := make(map[string][]metrics.ROCPoint, 2)
	for _, name := range []string{"logistic", "knn"} {
		clf, err := buildClassifier(cfg, name, trainX, trainY, logger)
		if err != nil {
			return err
		}
		report, err := evaluate(cfg, name, clf, trainX, trainY, testX, testY, logger)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		curves[name] = report.ROC
	}

	if err := writeReports(cfg, reports, curves); err != nil {
		return err
	}

	logger.Info("pipeline complete",
		log.StageKey, "report",
		log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

// buildClassifier constructs a model either from the configured fixed
// hyperparameters or from the best candidate of a random search on the
// training partition.
func buildClassifier(cfg Config, name string, trainX, trainY mat.Matrix, logger log.Logger) (model.Classifier, error) {
	factory, sampler := searchSpace(cfg, name)

	if !cfg.Search.Enabled {
		return factory(fixedCandidate(cfg, name))
	}

	rs := model_selection.NewRandomSearch(factory, sampler,
		model_selection.WithTrials(cfg.Search.Trials),
		model_selection.WithSplits(cfg.Search.Folds),
		model_selection.WithScoring(model_selection.Scoring(cfg.Search.Scoring)),
		model_selection.WithSearchSeed(cfg.Seed))
	result, err := rs.Run(trainX, trainY)
	if err != nil {
		return nil, err
	}
	logger.Info("random search selected candidate",
		log.StageKey, "fit",
		log.ModelNameKey, name,
		log.TrialKey, result.Best.Index,
		log.ScoreKey, result.Best.MeanScore,
		"params", fmt.Sprintf("%v", result.Best.Params))
	return factory(result.Best.Params)
}

func searchSpace(cfg Config, name string) (model_selection.Factory, model_selection.Sampler) {
	switch name {
	case "logistic":
		factory := func(c model_selection.Candidate) (model.Classifier, error) {
			return estimator.NewLogisticRegression(
				estimator.WithLRMaxIter(cfg.Logistic.MaxIter),
				estimator.WithLRLearningRate(c["learning_rate"].(float64)),
				estimator.WithLRL2(c["l2"].(float64)),
				estimator.WithLRSeed(cfg.Seed)), nil
		}
		sampler := func(rng *rand.Rand) model_selection.Candidate {
			l2Grid := []float64{0, 1e-3, 1e-2, 1e-1}
			return model_selection.Candidate{
				"learning_rate": 0.05 + rng.Float64()*1.95,
				"l2":            l2Grid[rng.IntN(len(l2Grid))],
			}
		}
		return factory, sampler
	default:
		factory := func(c model_selection.Candidate) (model.Classifier, error) {
			return estimator.NewKNNClassifier(
				estimator.WithNeighbors(c["k"].(int))), nil
		}
		sampler := func(rng *rand.Rand) model_selection.Candidate {
			return model_selection.Candidate{"k": 1 + rng.IntN(15)}
		}
		return factory, sampler
	}
}

func fixedCandidate(cfg Config, name string) model_selection.Candidate {
	if name == "logistic" {
		return model_selection.Candidate{
			"learning_rate": cfg.Logistic.LearningRate,
			"l2":            cfg.Logistic.L2,
		}
	}
	return model_selection.Candidate{"k": cfg.KNN.Neighbors}
}

// evaluate fits the classifier on the training partition and derives the
// full metric report on the held-out partition.
func evaluate(cfg Config, name string, clf model.Classifier,
	trainX, trainY, testX mat.Matrix, testY *mat.VecDense, logger log.Logger) (metrics.ModelReport, error) {

	if err := clf.Fit(trainX, trainY); err != nil {
		return metrics.ModelReport{}, err
	}

	probs, err := clf.PredictProba(testX)
	if err != nil {
		return metrics.ModelReport{}, err
	}
	n, _ := probs.Dims()
	pVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		pVec.SetVec(i, probs.At(i, 0))
	}

	counts, err := metrics.Confusion(testY, pVec, cfg.DecisionThreshold)
	if err != nil {
		return metrics.ModelReport{}, err
	}
	curve, err := metrics.ROCCurve(testY, pVec)
	if err != nil {
		return metrics.ModelReport{}, err
	}

	report := metrics.NewModelReport(name, cfg.DecisionThreshold, counts, curve)
	logger.Info("evaluated model",
		log.StageKey, "evaluate",
		log.ModelNameKey, name,
		log.AccuracyKey, float64(report.Accuracy),
		log.AUCKey, float64(report.AUC))
	return report, nil
}

func writeReports(cfg Config, reports []metrics.ModelReport, curves map[string][]metrics.ROCPoint) error {
	if cfg.ReportJSON != "" {
		f, err := os.Create(cfg.ReportJSON)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", cfg.ReportJSON)
		}
		defer f.Close()
		if err := metrics.WriteJSON(f, reports); err != nil {
			return err
		}
	}
	if cfg.ReportCSV != "" {
		f, err := os.Create(cfg.ReportCSV)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", cfg.ReportCSV)
		}
		defer f.Close()
		if err := metrics.WriteCSV(f, reports); err != nil {
			return err
		}
	}
	if cfg.ROCPlot != "" {
		if err := metrics.SaveROCPlot(cfg.ROCPlot, curves); err != nil {
			return err
		}
	}
	if cfg.ReportJSON == "" && cfg.ReportCSV == "" {
		// No file sinks configured: print JSON to stdout.
		return metrics.WriteJSON(os.Stdout, reports)
	}
	return nil
}
