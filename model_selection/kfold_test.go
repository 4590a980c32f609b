package model_selection

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// balancedData builds n rows with alternating labels and a single feature.
func balancedData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i%2))
	}
	return X, y
}

func TestStratifiedKFoldCoversAllRows(t *testing.T) {
	X, y := balancedData(20)
	folds, err := NewStratifiedKFold(4, true, 1).Split(X, y)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(folds) != 4 {
		t.Fatalf("got %d folds, want 4", len(folds))
	}

	seen := make(map[int]int)
	for _, fold := range folds {
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
		if len(fold.TrainIndices)+len(fold.TestIndices) != 20 {
			t.Errorf("fold train+test = %d rows, want 20",
				len(fold.TrainIndices)+len(fold.TestIndices))
		}
	}
	for i := 0; i < 20; i++ {
		if seen[i] != 1 {
			t.Errorf("row %d appears in %d test sets, want exactly 1", i, seen[i])
		}
	}
}

func TestStratifiedKFoldPreservesClassBalance(t *testing.T) {
	X, y := balancedData(20)
	folds, err := NewStratifiedKFold(5, true, 7).Split(X, y)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	for f, fold := range folds {
		pos := 0
		for _, idx := range fold.TestIndices {
			if y.At(idx, 0) == 1 {
				pos++
			}
		}
		// 10 positives dealt over 5 folds: exactly 2 per test set.
		if pos != 2 {
			t.Errorf("fold %d has %d positives in test set, want 2", f, pos)
		}
	}
}

func TestStratifiedKFoldDeterminism(t *testing.T) {
	X, y := balancedData(16)

	a, err := NewStratifiedKFold(4, true, 99).Split(X, y)
	if err != nil {
		t.Fatalf("first split: %v", err)
	}
	b, err := NewStratifiedKFold(4, true, 99).Split(X, y)
	if err != nil {
		t.Fatalf("second split: %v", err)
	}

	for f := range a {
		if len(a[f].TestIndices) != len(b[f].TestIndices) {
			t.Fatalf("fold %d sizes differ", f)
		}
		for i := range a[f].TestIndices {
			if a[f].TestIndices[i] != b[f].TestIndices[i] {
				t.Fatalf("fold %d differs at position %d", f, i)
			}
		}
	}
}

func TestStratifiedKFoldTooFewClassRows(t *testing.T) {
	// 3 positives cannot be dealt into 4 folds.
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 3; i++ {
		y.Set(i, 0, 1)
	}

	_, err := NewStratifiedKFold(4, false, 0).Split(X, y)
	if err == nil {
		t.Fatal("expected error for class smaller than fold count")
	}
	var pErr *errors.PartitionError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *PartitionError, got %T", err)
	}
}

func TestExtractSubsetKeepsRowOrder(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, 1})

	xSub, ySub := ExtractSubset(X, y, []int{3, 0})
	if got := xSub.At(0, 0); got != 1 {
		t.Errorf("subset rows should be sorted by original index, got first row starting %v", got)
	}
	if got := xSub.At(1, 1); got != 8 {
		t.Errorf("second subset row should be original row 3, got %v", got)
	}
	if ySub.At(0, 0) != 0 || ySub.At(1, 0) != 1 {
		t.Error("labels not aligned with extracted rows")
	}
}
