// Package log defines standard attribute keys for pipeline operations.
//
// Using these keys consistently across all stages makes log output filterable
// by stage, column, and data shape when diagnosing a failed run.

package log

// Pipeline and Operation Context
const (
	// StageKey identifies the pipeline stage emitting the log record.
	// Standard values: "load", "normalize", "impute", "split", "encode",
	// "fit", "evaluate", "report"
	StageKey = "pipeline.stage"

	// ModelNameKey identifies the classifier under training or evaluation.
	// Examples: "LogisticRegression", "KNNClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict_proba", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dataset", "preprocessing", "metrics", "model_selection"
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
const (
	// RowsKey indicates the number of rows in the table being processed.
	RowsKey = "data.rows"

	// ColumnsKey indicates the number of columns in the table.
	ColumnsKey = "data.columns"

	// MissingKey indicates the number of missing cells before imputation.
	MissingKey = "data.missing"

	// ColumnKey names the column a record refers to.
	ColumnKey = "data.column"

	// SeedKey records the pseudo-random seed of a stochastic operation.
	SeedKey = "data.seed"
)

// Performance and Result Metrics
const (
	// DurationMsKey records elapsed wall time in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy on the evaluation partition.
	AccuracyKey = "metric.accuracy"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metric.auc"

	// TrialKey identifies a hyperparameter search trial.
	TrialKey = "search.trial"

	// ScoreKey records a search trial's cross-validated score.
	ScoreKey = "search.score"
)
