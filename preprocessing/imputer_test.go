package preprocessing

import (
	"math"
	"testing"

	"github.com/creditlab/loanpipe/dataset"
	"github.com/creditlab/loanpipe/pkg/errors"
)

func fixtureSchema() dataset.Schema {
	return dataset.Schema{Columns: []dataset.ColumnSpec{
		{Name: "income", Kind: dataset.Numeric},
		{Name: "area", Kind: dataset.Categorical, Levels: []string{"Rural", "Urban"}},
		{Name: "amount", Kind: dataset.Numeric},
		{Name: "loan_status", Kind: dataset.Label, Levels: []string{dataset.NegativeLabel, dataset.PositiveLabel}},
	}}
}

// fixtureTable builds the 10-row fixture used by the hand-computed distance
// scenario: 8 fully-observed rows and 2 rows with a missing amount.
//
// Ranges: income 10..80 (width 70), amount 100..180 (width 80).
//
// Row 8 (income 15, Rural): nearest by (|Δincome|/70 + area mismatch) are
// rows 0 and 1 (5/70 each) and row 4 (35/70); mean amount (100+110+150)/3 = 120.
// Row 9 (income 75, Urban): nearest are rows 7 (5/70), 5 (15/70) and
// 3 (35/70); mean amount (180+160+140)/3 = 160.
func fixtureTable() *dataset.Table {
	income := []float64{10, 20, 30, 40, 50, 60, 70, 80, 15, 75}
	area := []string{"Rural", "Rural", "Urban", "Urban", "Rural", "Urban", "Rural", "Urban", "Rural", "Urban"}
	amount := []float64{100, 110, 130, 140, 150, 160, 170, 180, 0, 0}

	t := dataset.NewTable(fixtureSchema(), 10)
	for i := 0; i < 10; i++ {
		t.Column("income").Float[i] = income[i]
		t.Column("area").Str[i] = area[i]
		t.Column("amount").Float[i] = amount[i]
		t.Column("loan_status").Str[i] = dataset.PositiveLabel
	}
	t.Column("amount").Missing[8] = true
	t.Column("amount").Missing[9] = true
	return t
}

func TestImputeHandComputedNeighbors(t *testing.T) {
	table := fixtureTable()

	imputed, err := NewKNNImputer(3).Impute(table)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}

	amount := imputed.Column("amount")
	if amount.Missing[8] || amount.Missing[9] {
		t.Fatal("imputed cells still flagged missing")
	}
	if math.Abs(amount.Float[8]-120) > 1e-9 {
		t.Errorf("row 8 imputed %v, want 120 (mean of rows 0,1,4)", amount.Float[8])
	}
	if math.Abs(amount.Float[9]-160) > 1e-9 {
		t.Errorf("row 9 imputed %v, want 160 (mean of rows 3,5,7)", amount.Float[9])
	}

	// Originally-observed cells are untouched.
	if amount.Float[0] != 100 || amount.Float[7] != 180 {
		t.Error("observed values were modified")
	}
	// Input table is not mutated.
	if !table.Column("amount").Missing[8] {
		t.Error("input table was mutated in place")
	}
}

func TestImputeCategoricalModeTieBreak(t *testing.T) {
	schema := fixtureSchema()
	table := dataset.NewTable(schema, 5)
	income := []float64{10, 11, 12, 80, 10.5}
	area := []string{"Urban", "Rural", "Urban", "Rural", ""}
	for i := 0; i < 5; i++ {
		table.Column("income").Float[i] = income[i]
		table.Column("area").Str[i] = area[i]
		table.Column("amount").Float[i] = 100
		table.Column("loan_status").Str[i] = dataset.PositiveLabel
	}
	table.Column("area").Missing[4] = true

	// Neighbors of row 4 at k=2 are rows 0 and 1 with one vote each for
	// Urban and Rural; the declared level order makes Rural win.
	imputed, err := NewKNNImputer(2).Impute(table)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if got := imputed.Column("area").Str[4]; got != "Rural" {
		t.Errorf("mode tie-break: got %q, want Rural (earliest declared level)", got)
	}
}

func TestImputeDeterminism(t *testing.T) {
	table := fixtureTable()
	imp := NewKNNImputer(3)

	a, err := imp.Impute(table)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := imp.Impute(table)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for row := 0; row < table.NumRows(); row++ {
		if a.Column("amount").Float[row] != b.Column("amount").Float[row] {
			t.Fatalf("row %d differs across runs", row)
		}
	}
}

func TestImputeNoResidualMissing(t *testing.T) {
	table := fixtureTable()
	table.Column("income").Missing[2] = true
	table.Column("area").Missing[6] = true

	imputed, err := NewKNNImputer(3).Impute(table)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if n := imputed.MissingTotal(); n != 0 {
		t.Errorf("%d missing cells remain after imputation", n)
	}
}

func TestImputeParallelMatchesSequential(t *testing.T) {
	table := fixtureTable()

	seq, err := NewKNNImputer(3, WithParallelThreshold(1000)).Impute(table)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := NewKNNImputer(3, WithParallelThreshold(0)).Impute(table)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for row := 0; row < table.NumRows(); row++ {
		if seq.Column("amount").Float[row] != par.Column("amount").Float[row] {
			t.Fatalf("parallel result differs at row %d", row)
		}
	}
}

func TestImputeTooFewCandidates(t *testing.T) {
	table := fixtureTable()

	_, err := NewKNNImputer(9).Impute(table)
	if err == nil {
		t.Fatal("expected error: k=9 with 8 fully-observed rows")
	}
	var impErr *errors.ImputationError
	if !errors.As(err, &impErr) {
		t.Fatalf("expected *ImputationError, got %T", err)
	}
	if impErr.K != 9 || impErr.Available != 8 {
		t.Errorf("got k=%d available=%d, want k=9 available=8", impErr.K, impErr.Available)
	}
}

func TestImputeMissingnessGuard(t *testing.T) {
	table := fixtureTable()
	amount := table.Column("amount")
	for i := 0; i < 6; i++ {
		amount.Missing[i] = true
	}

	_, err := NewKNNImputer(2).Impute(table)
	if err == nil {
		t.Fatal("expected error: amount missing in 80% of rows")
	}
	var impErr *errors.ImputationError
	if !errors.As(err, &impErr) {
		t.Fatalf("expected *ImputationError, got %T", err)
	}
	if impErr.Column != "amount" {
		t.Errorf("Column = %q, want amount", impErr.Column)
	}

	// A looser threshold admits the same table.
	if _, err := NewKNNImputer(2, WithMissingnessThreshold(0.9)).Impute(table); err != nil {
		t.Errorf("threshold 0.9 should admit 80%% missingness: %v", err)
	}
}

func TestImputeInvalidK(t *testing.T) {
	_, err := NewKNNImputer(0).Impute(fixtureTable())
	if err == nil {
		t.Fatal("k=0 must be rejected")
	}
	var valErr *errors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}
