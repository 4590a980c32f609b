package dataset

import (
	"testing"
)

func TestLoanSchema(t *testing.T) {
	schema := LoanSchema()

	li := schema.LabelIndex()
	if li < 0 {
		t.Fatal("loan schema must declare a label column")
	}
	label := schema.Columns[li]
	if label.Name != "loan_status" {
		t.Errorf("label column = %q, want loan_status", label.Name)
	}
	// Positive class must be declared after the negative class so that its
	// integer code is the larger one.
	if label.LevelIndex(PositiveLabel) != 1 || label.LevelIndex(NegativeLabel) != 0 {
		t.Errorf("unexpected label level order: %v", label.Levels)
	}

	for _, spec := range schema.Columns {
		if spec.Kind != Numeric && len(spec.Levels) == 0 {
			t.Errorf("categorical column %q has no declared levels", spec.Name)
		}
	}
}

func TestTableCloneIsIndependent(t *testing.T) {
	table := NewTable(LoanSchema(), 2)
	table.Column("loan_amount").Float[0] = 100
	table.Column("gender").Str[0] = "Male"
	table.Column("gender").Missing[1] = true

	clone := table.Clone()
	clone.Column("loan_amount").Float[0] = 999
	clone.Column("gender").Missing[1] = false

	if table.Column("loan_amount").Float[0] != 100 {
		t.Error("clone mutation leaked into original numeric column")
	}
	if !table.Column("gender").Missing[1] {
		t.Error("clone mutation leaked into original missing mask")
	}
}

func TestTableSelectPreservesOrder(t *testing.T) {
	table := NewTable(LoanSchema(), 5)
	for i := 0; i < 5; i++ {
		table.Column("applicant_income").Float[i] = float64(i * 10)
	}

	sub := table.Select([]int{4, 0, 2})
	got := sub.Column("applicant_income").Float
	want := []float64{40, 0, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Select order: got %v, want %v", got, want)
			break
		}
	}
}

func TestRowHasMissing(t *testing.T) {
	table := NewTable(LoanSchema(), 3)
	// fill labels so the table is otherwise valid
	for i := 0; i < 3; i++ {
		table.Column("loan_status").Str[i] = PositiveLabel
	}
	table.Column("loan_amount").Missing[1] = true

	if table.RowHasMissing(0) {
		t.Error("row 0 should be complete")
	}
	if !table.RowHasMissing(1) {
		t.Error("row 1 has a missing cell")
	}
}
