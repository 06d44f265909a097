package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bpkad/budget-exec/internal/model"
)

func newTargetFixture(t *testing.T) (*fakeStore, *TargetService, model.Principal, model.Contract) {
	t.Helper()
	store := newFakeStore()
	orgUnit := uuid.New()
	contract := store.addContract(model.Contract{
		ContractNumber: "K-001",
		Value:          50_000_000,
		ExecutionStart: date(2025, time.February, 1),
		ExecutionEnd:   date(2025, time.June, 30),
		OrgUnitID:      orgUnit,
	})
	return store, NewTargetService(store, store), testPrincipal(orgUnit), contract
}

func TestTargetDateMustFallInExecutionWindow(t *testing.T) {
	_, svc, principal, contract := newTargetFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		day  time.Time
		ok   bool
	}{
		{"first day", date(2025, time.February, 1), true},
		{"last day", date(2025, time.June, 30), true},
		{"mid window", date(2025, time.April, 15), true},
		{"day before start", date(2025, time.January, 31), false},
		{"day after end", date(2025, time.July, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, principal, TargetInput{
				ContractID:       contract.ID,
				Date:             tt.day,
				PhysicalPercent:  50,
				FinancialPercent: 40,
			})
			if tt.ok {
				if err != nil {
					t.Fatalf("Create: %v", err)
				}
				return
			}
			var rangeErr *DateRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("error = %v, want DateRangeError", err)
			}
			if rangeErr.Field != "target date" {
				t.Fatalf("field = %q, want %q", rangeErr.Field, "target date")
			}
		})
	}
}

func TestTargetWindowComparesCalendarDaysOnly(t *testing.T) {
	_, svc, principal, contract := newTargetFixture(t)

	// A timestamp late on the final day is still inside the window.
	lastDayEvening := time.Date(2025, time.June, 30, 18, 30, 0, 0, time.UTC)
	if _, err := svc.Create(context.Background(), principal, TargetInput{
		ContractID:       contract.ID,
		Date:             lastDayEvening,
		PhysicalPercent:  10,
		FinancialPercent: 10,
	}); err != nil {
		t.Fatalf("Create on last-day evening: %v", err)
	}
}

func TestTargetTerminalEntryMustCompleteBothAxes(t *testing.T) {
	_, svc, principal, contract := newTargetFixture(t)
	ctx := context.Background()
	day := date(2025, time.June, 30)

	tests := []struct {
		name      string
		physical  float64
		financial float64
		wantErr   error
	}{
		{"both terminal", 100, 100, nil},
		{"neither terminal", 90, 85, nil},
		{"physical only", 100, 80, ErrIncompleteTerminal},
		{"financial only", 95, 100, ErrIncompleteTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, principal, TargetInput{
				ContractID:       contract.ID,
				Date:             day,
				PhysicalPercent:  tt.physical,
				FinancialPercent: tt.financial,
			})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Create: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTargetFinancialAmountDerivedFromPercent(t *testing.T) {
	_, svc, principal, contract := newTargetFixture(t)
	ctx := context.Background()

	derived, err := svc.Create(ctx, principal, TargetInput{
		ContractID:       contract.ID,
		Date:             date(2025, time.March, 1),
		PhysicalPercent:  30,
		FinancialPercent: 25,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if derived.FinancialAmount != 12_500_000 { // 25% of 50M
		t.Fatalf("derived amount = %d, want 12500000", derived.FinancialAmount)
	}

	explicit, err := svc.Create(ctx, principal, TargetInput{
		ContractID:       contract.ID,
		Date:             date(2025, time.April, 1),
		PhysicalPercent:  30,
		FinancialPercent: 25,
		FinancialAmount:  12_499_000,
	})
	if err != nil {
		t.Fatalf("Create with explicit amount: %v", err)
	}
	if explicit.FinancialAmount != 12_499_000 {
		t.Fatalf("explicit amount = %d, want 12499000 stored as-is", explicit.FinancialAmount)
	}
}

func TestTargetPercentBounds(t *testing.T) {
	_, svc, principal, contract := newTargetFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, principal, TargetInput{
		ContractID:       contract.ID,
		Date:             date(2025, time.March, 1),
		PhysicalPercent:  101,
		FinancialPercent: 50,
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("physical 101 error = %v, want ErrValidation", err)
	}

	if _, err := svc.Create(ctx, principal, TargetInput{
		ContractID:       contract.ID,
		Date:             date(2025, time.March, 1),
		PhysicalPercent:  50,
		FinancialPercent: -1,
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("financial -1 error = %v, want ErrValidation", err)
	}
}

func TestTargetUpdateKeepsContractBinding(t *testing.T) {
	store, svc, principal, contract := newTargetFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, principal, TargetInput{
		ContractID:       contract.ID,
		Date:             date(2025, time.March, 1),
		PhysicalPercent:  30,
		FinancialPercent: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The update input names a different contract id; the stored binding
	// wins.
	updated, err := svc.Update(ctx, principal, created.ID, TargetInput{
		ContractID:       uuid.New(),
		Date:             date(2025, time.March, 15),
		PhysicalPercent:  40,
		FinancialPercent: 40,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ContractID != contract.ID {
		t.Fatalf("contract binding = %s, want %s", updated.ContractID, contract.ID)
	}

	if err := svc.Delete(ctx, principal, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.targets) != 0 {
		t.Fatalf("targets remaining = %d, want 0", len(store.targets))
	}
}
