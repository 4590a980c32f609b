package model_selection

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/core/model"
	"github.com/creditlab/loanpipe/estimator"
)

// searchData is a separable problem large enough for 3-fold CV.
func searchData() (*mat.Dense, *mat.Dense) {
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			X.Set(i, 0, float64(i%10))
		} else {
			X.Set(i, 0, 100+float64(i%10))
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func knnFactory(c Candidate) (model.Classifier, error) {
	return estimator.NewKNNClassifier(estimator.WithNeighbors(c["k"].(int))), nil
}

func knnSampler(rng *rand.Rand) Candidate {
	return Candidate{"k": 1 + rng.IntN(5)}
}

func TestRandomSearchFindsWorkingCandidate(t *testing.T) {
	X, y := searchData()

	rs := NewRandomSearch(knnFactory, knnSampler,
		WithTrials(5), WithSplits(3), WithSearchSeed(11))
	result, err := rs.Run(X, y)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Trials) != 5 {
		t.Fatalf("got %d trials, want 5", len(result.Trials))
	}
	// The clusters are 100 apart; any k should separate them perfectly.
	if result.Best.MeanScore != 1.0 {
		t.Errorf("best mean AUC = %v, want 1.0", result.Best.MeanScore)
	}
	if _, ok := result.Best.Params["k"]; !ok {
		t.Error("best trial is missing its sampled parameters")
	}
}

func TestRandomSearchDeterministic(t *testing.T) {
	X, y := searchData()

	run := func() *SearchResult {
		rs := NewRandomSearch(knnFactory, knnSampler,
			WithTrials(4), WithSplits(3), WithSearchSeed(5))
		result, err := rs.Run(X, y)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	a, b := run(), run()
	if a.Best.Index != b.Best.Index {
		t.Errorf("best index differs: %d vs %d", a.Best.Index, b.Best.Index)
	}
	for i := range a.Trials {
		if a.Trials[i].Params["k"] != b.Trials[i].Params["k"] {
			t.Errorf("trial %d sampled different k across runs", i)
		}
		if a.Trials[i].MeanScore != b.Trials[i].MeanScore {
			t.Errorf("trial %d scored differently across runs", i)
		}
	}
}

func TestRandomSearchTieBreaksByTrialIndex(t *testing.T) {
	X, y := searchData()

	// Constant sampler: every trial evaluates the identical candidate, so
	// all mean scores tie and the first trial must win.
	constSampler := func(*rand.Rand) Candidate { return Candidate{"k": 3} }
	rs := NewRandomSearch(knnFactory, constSampler,
		WithTrials(4), WithSplits(3), WithSearchSeed(2))
	result, err := rs.Run(X, y)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Best.Index != 0 {
		t.Errorf("tied trials: best index = %d, want 0", result.Best.Index)
	}
}

func TestRandomSearchSkipsFailingTrials(t *testing.T) {
	X, y := searchData()

	// Fold training sets hold 20 rows, so sampled k > 20 makes Fit fail
	// while small k succeeds. Whatever the draws, failed trials must carry
	// their error and never be selected as best.
	wideSampler := func(rng *rand.Rand) Candidate {
		return Candidate{"k": 1 + rng.IntN(25)}
	}
	rs := NewRandomSearch(knnFactory, wideSampler,
		WithTrials(8), WithSplits(3), WithSearchSeed(3))
	result, err := rs.Run(X, y)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, tr := range result.Trials {
		k := tr.Params["k"].(int)
		if k > 20 && tr.Err == nil {
			t.Errorf("trial %d: k=%d should have failed", tr.Index, k)
		}
		if k <= 20 && tr.Err != nil {
			t.Errorf("trial %d: k=%d failed unexpectedly: %v", tr.Index, k, tr.Err)
		}
	}
	if result.Best.Err != nil {
		t.Error("a failed trial was selected as best")
	}
}

func TestRandomSearchAllTrialsFail(t *testing.T) {
	X, y := searchData()

	badSampler := func(*rand.Rand) Candidate { return Candidate{"k": 1000} }
	rs := NewRandomSearch(knnFactory, badSampler, WithTrials(3), WithSplits(3))
	if _, err := rs.Run(X, y); err == nil {
		t.Fatal("expected error when every trial fails")
	}
}

func TestRandomSearchAccuracyScoring(t *testing.T) {
	X, y := searchData()

	rs := NewRandomSearch(knnFactory, knnSampler,
		WithTrials(3), WithSplits(3), WithScoring(ScoringAccuracy), WithSearchSeed(13))
	result, err := rs.Run(X, y)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Best.MeanScore != 1.0 {
		t.Errorf("best mean accuracy = %v, want 1.0", result.Best.MeanScore)
	}
}
