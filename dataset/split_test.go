package dataset

import (
	"math"
	"testing"

	"github.com/creditlab/loanpipe/pkg/errors"
)

// labeledTable builds a table with nPos Approved rows followed by nNeg
// Not Approved rows and a single numeric feature equal to the row index.
func labeledTable(nPos, nNeg int) *Table {
	schema := Schema{Columns: []ColumnSpec{
		{Name: "x", Kind: Numeric},
		{Name: "loan_status", Kind: Label, Levels: []string{NegativeLabel, PositiveLabel}},
	}}
	t := NewTable(schema, nPos+nNeg)
	x := t.Column("x")
	label := t.Column("loan_status")
	for i := 0; i < nPos+nNeg; i++ {
		x.Float[i] = float64(i)
		if i < nPos {
			label.Str[i] = PositiveLabel
		} else {
			label.Str[i] = NegativeLabel
		}
	}
	return t
}

func TestTrainTestSplitStratification(t *testing.T) {
	table := labeledTable(70, 30)

	train, eval, err := TrainTestSplit(table, 0.8, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}

	if train.NumRows()+eval.NumRows() != table.NumRows() {
		t.Errorf("rows lost: %d + %d != %d", train.NumRows(), eval.NumRows(), table.NumRows())
	}

	full := ClassProportion(table, PositiveLabel)
	pTrain := ClassProportion(train, PositiveLabel)
	pEval := ClassProportion(eval, PositiveLabel)

	minSize := math.Min(float64(train.NumRows()), float64(eval.NumRows()))
	bound := 1.0 / minSize
	if math.Abs(pTrain-pEval) > bound {
		t.Errorf("proportions diverge: train=%v eval=%v bound=%v", pTrain, pEval, bound)
	}
	if math.Abs(pTrain-full) > bound {
		t.Errorf("train proportion %v too far from full-table %v", pTrain, full)
	}
}

func TestTrainTestSplitDeterminism(t *testing.T) {
	table := labeledTable(40, 20)

	t1, e1, err := TrainTestSplit(table, 0.75, 7)
	if err != nil {
		t.Fatalf("first split: %v", err)
	}
	t2, e2, err := TrainTestSplit(table, 0.75, 7)
	if err != nil {
		t.Fatalf("second split: %v", err)
	}

	if t1.NumRows() != t2.NumRows() || e1.NumRows() != e2.NumRows() {
		t.Fatal("split sizes differ across runs with the same seed")
	}
	x1 := t1.Column("x").Float
	x2 := t2.Column("x").Float
	for i := range x1 {
		if x1[i] != x2[i] {
			t.Fatalf("row %d differs across runs: %v vs %v", i, x1[i], x2[i])
		}
	}
}

func TestTrainTestSplitSeedChangesSelection(t *testing.T) {
	table := labeledTable(40, 20)

	t1, _, _ := TrainTestSplit(table, 0.75, 1)
	t2, _, _ := TrainTestSplit(table, 0.75, 2)

	same := true
	x1 := t1.Column("x").Float
	x2 := t2.Column("x").Float
	for i := range x1 {
		if x1[i] != x2[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical train partitions")
	}
}

func TestTrainTestSplitInvalidFraction(t *testing.T) {
	table := labeledTable(10, 10)

	for _, f := range []float64{0, 1, -0.5, 1.5} {
		_, _, err := TrainTestSplit(table, f, 1)
		if err == nil {
			t.Errorf("fraction %v should be rejected", f)
			continue
		}
		var partErr *errors.PartitionError
		if !errors.As(err, &partErr) {
			t.Errorf("fraction %v: expected *PartitionError, got %T", f, err)
		}
	}
}

func TestTrainTestSplitClassTooSmall(t *testing.T) {
	table := labeledTable(1, 10)

	_, _, err := TrainTestSplit(table, 0.8, 1)
	if err == nil {
		t.Fatal("expected error for singleton class")
	}
	var partErr *errors.PartitionError
	if !errors.As(err, &partErr) {
		t.Fatalf("expected *PartitionError, got %T", err)
	}
	if partErr.Class != PositiveLabel {
		t.Errorf("Class = %q, want %q", partErr.Class, PositiveLabel)
	}
}
