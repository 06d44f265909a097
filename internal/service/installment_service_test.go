package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bpkad/budget-exec/internal/model"
)

func newInstallmentFixture(t *testing.T) (*fakeStore, *InstallmentService, model.Principal, model.Contract) {
	t.Helper()
	store := newFakeStore()
	orgUnit := uuid.New()
	contract := store.addContract(model.Contract{
		ContractNumber: "K-001",
		Value:          90_000_000,
		ExecutionStart: date(2025, time.February, 1),
		ExecutionEnd:   date(2025, time.June, 30),
		OrgUnitID:      orgUnit,
	})
	return store, NewInstallmentService(store, store, 0.01), testPrincipal(orgUnit), contract
}

func TestNextLabel(t *testing.T) {
	_, svc, _, _ := newInstallmentFixture(t)

	if got := svc.NextLabel(nil); got != "I" {
		t.Errorf("NextLabel(empty) = %q, want I", got)
	}
	three := []model.Installment{{Label: "I"}, {Label: "II"}, {Label: "III"}}
	if got := svc.NextLabel(three); got != "IV" {
		t.Errorf("NextLabel(3 rows) = %q, want IV", got)
	}
	ten := make([]model.Installment, 10)
	if got := svc.NextLabel(ten); got != "11" {
		t.Errorf("NextLabel(10 rows) = %q, want 11", got)
	}
}

func TestRecomputeShares(t *testing.T) {
	_, svc, _, _ := newInstallmentFixture(t)

	tests := []struct {
		n    int
		want []float64
	}{
		{1, []float64{100}},
		{2, []float64{50, 50}},
		{3, []float64{34, 33, 33}},
		{4, []float64{25, 25, 25, 25}},
		{6, []float64{17, 17, 17, 17, 16, 16}},
		{7, []float64{15, 15, 14, 14, 14, 14, 14}},
	}

	for _, tt := range tests {
		rows := make([]model.Installment, tt.n)
		for i := range rows {
			rows[i].Label = ordinalLabel(i + 1)
		}
		svc.RecomputeShares(rows)

		var total float64
		for i, row := range rows {
			if row.PercentShare != tt.want[i] {
				t.Errorf("n=%d row %d share = %v, want %v", tt.n, i, row.PercentShare, tt.want[i])
			}
			total += row.PercentShare
		}
		if total != 100 {
			t.Errorf("n=%d shares total %v, want exactly 100", tt.n, total)
		}
	}
}

func TestRecomputeSharesSortsFirst(t *testing.T) {
	_, svc, _, _ := newInstallmentFixture(t)

	// Submitted out of order: the extra point from the remainder must land
	// on the earliest tranche, not the first slice element.
	rows := []model.Installment{{Label: "III"}, {Label: "I"}, {Label: "II"}}
	svc.RecomputeShares(rows)

	if rows[0].Label != "I" || rows[0].PercentShare != 34 {
		t.Fatalf("first row = %+v, want label I with share 34", rows[0])
	}
	if rows[2].Label != "III" || rows[2].PercentShare != 33 {
		t.Fatalf("last row = %+v, want label III with share 33", rows[2])
	}
}

func TestInstallmentValidateProgressTotal(t *testing.T) {
	_, svc, _, contract := newInstallmentFixture(t)

	rows := func(progress ...float64) []model.Installment {
		out := make([]model.Installment, len(progress))
		for i, p := range progress {
			out[i] = model.Installment{Label: ordinalLabel(i + 1), Amount: 1_000_000, ProgressPercent: p}
		}
		return out
	}

	tests := []struct {
		name     string
		progress []float64
		ok       bool
	}{
		{"exact hundred", []float64{40, 35, 25}, true},
		{"within tolerance", []float64{33.33, 33.33, 33.34}, true},
		{"just inside tolerance", []float64{50, 49.995}, true},
		{"short total", []float64{40, 35, 22}, false},
		{"over total", []float64{60, 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(&contract, rows(tt.progress...))
			if tt.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tt.ok {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("error = %v, want ErrValidation", err)
				}
				if !strings.Contains(err.Error(), "must total 100") {
					t.Fatalf("error %q does not name the progress total", err.Error())
				}
			}
		})
	}
}

func TestInstallmentValidateRowRules(t *testing.T) {
	_, svc, _, contract := newInstallmentFixture(t)

	tests := []struct {
		name    string
		rows    []model.Installment
		message string
	}{
		{"empty set", nil, "at least one installment"},
		{"missing label", []model.Installment{{Amount: 1, ProgressPercent: 100}}, "has no label"},
		{"zero amount", []model.Installment{{Label: "I", ProgressPercent: 100}}, "amount must be greater than zero"},
		{"progress out of range", []model.Installment{{Label: "I", Amount: 1, ProgressPercent: 120}}, "progress must be between 0 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(&contract, tt.rows)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestInstallmentAmountOverageIsAdvisory(t *testing.T) {
	_, svc, _, contract := newInstallmentFixture(t) // contract value 90M

	within := []model.Installment{
		{Label: "I", Amount: 45_000_000, ProgressPercent: 50},
		{Label: "II", Amount: 45_000_000, ProgressPercent: 50},
	}
	if overage, ok := svc.AmountOverage(&contract, within); ok || overage != 0 {
		t.Fatalf("AmountOverage(within) = (%d, %v), want (0, false)", overage, ok)
	}
	// Exactly the contract value is not an overage.
	if err := svc.Validate(&contract, within); err != nil {
		t.Fatalf("Validate(within): %v", err)
	}

	over := []model.Installment{
		{Label: "I", Amount: 50_000_000, ProgressPercent: 50},
		{Label: "II", Amount: 45_000_000, ProgressPercent: 50},
	}
	overage, ok := svc.AmountOverage(&contract, over)
	if !ok || overage != 5_000_000 {
		t.Fatalf("AmountOverage(over) = (%d, %v), want (5000000, true)", overage, ok)
	}
	// The overage never blocks the save path.
	if err := svc.Validate(&contract, over); err != nil {
		t.Fatalf("Validate(over): %v", err)
	}
}

func TestInstallmentReplaceSwapsFullSet(t *testing.T) {
	store, svc, principal, contract := newInstallmentFixture(t)
	ctx := context.Background()

	old := store.addInstallment(model.Installment{
		ContractID: contract.ID, Label: "I", Amount: 90_000_000, ProgressPercent: 100,
	})

	saved, err := svc.Replace(ctx, principal, contract.ID, []model.Installment{
		{Label: "II", PercentShare: 50, Amount: 45_000_000, ProgressPercent: 50},
		{Label: "I", PercentShare: 50, Amount: 45_000_000, ProgressPercent: 50},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d rows, want 2", len(saved))
	}
	// Rows come back in payment order regardless of submission order.
	if saved[0].Label != "I" || saved[1].Label != "II" {
		t.Fatalf("saved order = [%s, %s], want [I, II]", saved[0].Label, saved[1].Label)
	}
	if _, ok := store.installments[old.ID]; ok {
		t.Fatal("old installment survived Replace")
	}
	if len(store.installments) != 2 {
		t.Fatalf("persisted rows = %d, want 2", len(store.installments))
	}
}

func TestInstallmentReplacePartialFailureLeavesPartialSet(t *testing.T) {
	store, svc, principal, contract := newInstallmentFixture(t)
	ctx := context.Background()

	store.addInstallment(model.Installment{
		ContractID: contract.ID, Label: "I", Amount: 90_000_000, ProgressPercent: 100,
	})
	store.failCreateInstallmentAt = 2

	saved, err := svc.Replace(ctx, principal, contract.ID, []model.Installment{
		{Label: "I", Amount: 45_000_000, ProgressPercent: 50},
		{Label: "II", Amount: 45_000_000, ProgressPercent: 50},
	})
	if err == nil {
		t.Fatal("Replace succeeded, want partial failure")
	}
	if !errors.Is(err, errStorageFault) {
		t.Fatalf("error = %v, want wrapped storage fault", err)
	}
	// The first new row made it in before the fault; the old set is gone.
	if len(saved) != 1 || saved[0].Label != "I" {
		t.Fatalf("saved = %+v, want exactly the first new row", saved)
	}
	if len(store.installments) != 1 {
		t.Fatalf("persisted rows = %d, want the 1 partial row", len(store.installments))
	}

	// The re-sync path shows the caller the partial truth.
	current, err := svc.ListByContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("ListByContract: %v", err)
	}
	if len(current) != 1 || current[0].Label != "I" {
		t.Fatalf("re-synced set = %+v, want the single partial row", current)
	}
}

func TestInstallmentReplaceValidatesBeforeDeleting(t *testing.T) {
	store, svc, principal, contract := newInstallmentFixture(t)
	ctx := context.Background()

	old := store.addInstallment(model.Installment{
		ContractID: contract.ID, Label: "I", Amount: 90_000_000, ProgressPercent: 100,
	})

	_, err := svc.Replace(ctx, principal, contract.ID, []model.Installment{
		{Label: "I", Amount: 45_000_000, ProgressPercent: 50},
		{Label: "II", Amount: 45_000_000, ProgressPercent: 47},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	// A rejected set must leave the persisted rows untouched.
	if _, ok := store.installments[old.ID]; !ok {
		t.Fatal("rejected Replace deleted the existing set")
	}
}

func TestInstallmentReplaceChecksOwnership(t *testing.T) {
	_, svc, _, contract := newInstallmentFixture(t)

	outsider := testPrincipal(uuid.New())
	_, err := svc.Replace(context.Background(), outsider, contract.ID, []model.Installment{
		{Label: "I", Amount: 1, ProgressPercent: 100},
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("error = %v, want ErrPermissionDenied", err)
	}

	_, err = svc.Replace(context.Background(), outsider, uuid.New(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown contract error = %v, want ErrNotFound", err)
	}
}
