// Package loanpipe provides a loan-application approval classification
// pipeline for Go, from raw CSV to evaluated models.
//
// The pipeline is deterministic end to end: given the same input file,
// seed and hyperparameters it produces byte-identical partitions, imputed
// values and metric reports.
//
// # Stages
//
//   - dataset: CSV loading, schema normalization and stratified splitting
//   - preprocessing: k-nearest-neighbor imputation and level encoding
//   - estimator: logistic regression and k-NN classifiers
//   - model_selection: stratified k-fold CV and random hyperparameter search
//   - metrics: confusion-matrix metrics, ROC curves and AUC
//
// # Quick Start
//
// Train and evaluate on a normalized table:
//
//	df, err := dataset.LoadCSV("applications.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := dataset.Normalize(df, dataset.LoanSchema())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	imputed, err := preprocessing.NewKNNImputer(5).Impute(table)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	train, test, err := dataset.TrainTestSplit(imputed, 0.8, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	enc := preprocessing.NewLevelEncoder()
//	trainX, trainY, _ := enc.FitTransform(train)
//	testX, testY, _ := enc.Transform(test)
//
//	clf := estimator.NewLogisticRegression()
//	if err := clf.Fit(trainX, trainY); err != nil {
//	    log.Fatal(err)
//	}
//	probs, _ := clf.PredictProba(testX)
//	_ = probs // score with the metrics package against testY
//	_ = testY
//
// The cmd/loanpipe command wires the same stages behind a YAML/JSON config.
package loanpipe
