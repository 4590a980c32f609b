package model_selection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/core/model"
	"github.com/creditlab/loanpipe/core/parallel"
	"github.com/creditlab/loanpipe/metrics"
	"github.com/creditlab/loanpipe/pkg/errors"
)

// Scoring は交差検証で最大化するスコアの種類
type Scoring string

const (
	// ScoringAUC はROC曲線下面積で候補を比較する
	ScoringAUC Scoring = "auc"
	// ScoringAccuracy は既定閾値0.5の正解率で候補を比較する
	ScoringAccuracy Scoring = "accuracy"
)

// Candidate はサンプリングされた1候補のハイパーパラメータ
type Candidate map[string]interface{}

// Sampler は乱数生成器から1候補を引く
type Sampler func(rng *rand.Rand) Candidate

// Factory は候補パラメータから未学習の分類器を構築する
type Factory func(c Candidate) (model.Classifier, error)

// TrialResult は1試行の評価結果。Errが非nilの試行は選考から除外される。
type TrialResult struct {
	Index     int
	Params    Candidate
	Scores    []float64
	MeanScore float64
	Err       error
}

// SearchResult はランダム探索全体の結果
type SearchResult struct {
	Best   TrialResult
	Trials []TrialResult
}

// RandomSearch はハイパーパラメータのランダム探索。
//
// 各試行は seed+trialIndex をシードに候補を1つ引き、同じシードの
// 層化k分割交差検証で平均スコアを測る。試行同士は独立なので
// 並列に実行しても結果は逐次実行と同一。
//
// 最良候補は平均スコア最大の試行で、同点なら試行番号の小さい方。
type RandomSearch struct {
	factory Factory
	sampler Sampler

	nTrials int
	nSplits int
	scoring Scoring
	seed    uint64
}

// RandomSearchOption はRandomSearchの機能オプション
type RandomSearchOption func(*RandomSearch)

// WithTrials は試行回数を設定する
func WithTrials(n int) RandomSearchOption {
	return func(rs *RandomSearch) {
		rs.nTrials = n
	}
}

// WithSplits は交差検証の分割数を設定する
func WithSplits(n int) RandomSearchOption {
	return func(rs *RandomSearch) {
		rs.nSplits = n
	}
}

// WithScoring は比較に使うスコアを設定する
func WithScoring(s Scoring) RandomSearchOption {
	return func(rs *RandomSearch) {
		rs.scoring = s
	}
}

// WithSearchSeed は探索全体の基準シードを設定する
func WithSearchSeed(seed uint64) RandomSearchOption {
	return func(rs *RandomSearch) {
		rs.seed = seed
	}
}

// NewRandomSearch は新しいRandomSearchを作成する
func NewRandomSearch(factory Factory, sampler Sampler, opts ...RandomSearchOption) *RandomSearch {
	rs := &RandomSearch{
		factory: factory,
		sampler: sampler,
		nTrials: 10,
		nSplits: 5,
		scoring: ScoringAUC,
		seed:    42,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Run は全試行を実行し、最良の試行を選んで返す。
// 全試行が失敗した場合のみエラー（個別の失敗はTrialResult.Errに残る）。
func (rs *RandomSearch) Run(X, y mat.Matrix) (*SearchResult, error) {
	if rs.nTrials < 1 {
		return nil, errors.NewValidationError("trials", "must be a positive integer", rs.nTrials)
	}
	if rs.scoring != ScoringAUC && rs.scoring != ScoringAccuracy {
		return nil, errors.NewValidationError("scoring", "must be auc or accuracy", string(rs.scoring))
	}

	trials := make([]TrialResult, rs.nTrials)
	parallel.ForEach(rs.nTrials, func(i int) {
		trials[i] = rs.runTrial(X, y, i)
	})

	best := -1
	for i, tr := range trials {
		if tr.Err != nil {
			continue
		}
		if best < 0 || tr.MeanScore > trials[best].MeanScore {
			best = i
		}
	}
	if best < 0 {
		return nil, errors.Wrap(trials[0].Err, "all search trials failed")
	}

	return &SearchResult{Best: trials[best], Trials: trials}, nil
}

// runTrial samples one candidate and scores it with seeded stratified CV.
// Panics inside a trial are contained so one bad candidate cannot take
// down the whole search.
func (rs *RandomSearch) runTrial(X, y mat.Matrix, index int) TrialResult {
	trialSeed := rs.seed + uint64(index)
	rng := rand.New(rand.NewPCG(trialSeed, trialSeed))

	result := TrialResult{Index: index, Params: rs.sampler(rng)}
	result.Err = errors.SafeExecute("search trial", func() error {
		folds, err := NewStratifiedKFold(rs.nSplits, true, trialSeed).Split(X, y)
		if err != nil {
			return err
		}

		result.Scores = make([]float64, len(folds))
		for f, fold := range folds {
			clf, err := rs.factory(result.Params)
			if err != nil {
				return err
			}
			trainX, trainY := ExtractSubset(X, y, fold.TrainIndices)
			testX, testY := ExtractSubset(X, y, fold.TestIndices)

			if err := clf.Fit(trainX, trainY); err != nil {
				return err
			}
			probs, err := clf.PredictProba(testX)
			if err != nil {
				return err
			}
			score, err := rs.score(testY, probs)
			if err != nil {
				return err
			}
			result.Scores[f] = score
		}
		result.MeanScore = mean(result.Scores)
		return nil
	})
	if result.Err != nil {
		result.MeanScore = math.Inf(-1)
	}
	return result
}

func (rs *RandomSearch) score(yTrue *mat.Dense, probs mat.Matrix) (float64, error) {
	n, _ := yTrue.Dims()
	yVec := mat.NewVecDense(n, nil)
	pVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yVec.SetVec(i, yTrue.At(i, 0))
		pVec.SetVec(i, probs.At(i, 0))
	}

	if rs.scoring == ScoringAUC {
		return metrics.AUC(yVec, pVec)
	}
	counts, err := metrics.Confusion(yVec, pVec, metrics.DefaultThreshold)
	if err != nil {
		return 0, err
	}
	return counts.Accuracy(), nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
