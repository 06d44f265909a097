package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type LedgerStore interface {
	GetAllocation(ctx context.Context, accountCodeID uuid.UUID, scope model.Scope) (*model.Allocation, error)
	ListWorkPackagesByAllocation(ctx context.Context, allocationID uuid.UUID) ([]model.WorkPackage, error)
	ListContractsByWorkPackageIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contract, error)
}

// Ledger answers "how much of this account code's allocation is still
// uncommitted". There is no persisted running total anywhere: every call
// walks allocation → work packages → contracts and sums the live sibling
// set, so concurrent edits are always judged against current data rather
// than a stale cached balance. (Two operators racing the same ceiling can
// still jointly over-allocate; no version stamps are used.)
type Ledger struct {
	store LedgerStore
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// Remaining computes the balance for an account code within a scope.
// An account code without an allocation yields all zeros: nothing can be
// committed against it.
func (l *Ledger) Remaining(ctx context.Context, accountCodeID uuid.UUID, scope model.Scope) (model.Balance, error) {
	return l.RemainingExcluding(ctx, accountCodeID, scope, uuid.Nil)
}

// RemainingExcluding is Remaining with one contract left out of the used
// total, so an in-place edit is judged without its own prior value.
func (l *Ledger) RemainingExcluding(ctx context.Context, accountCodeID uuid.UUID, scope model.Scope, excludeContractID uuid.UUID) (model.Balance, error) {
	allocation, err := l.store.GetAllocation(ctx, accountCodeID, scope)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.Balance{}, nil
		}
		return model.Balance{}, err
	}

	workPackages, err := l.store.ListWorkPackagesByAllocation(ctx, allocation.ID)
	if err != nil {
		return model.Balance{}, err
	}

	ids := make([]uuid.UUID, 0, len(workPackages))
	for _, wp := range workPackages {
		ids = append(ids, wp.ID)
	}

	contracts, err := l.store.ListContractsByWorkPackageIDs(ctx, ids)
	if err != nil {
		return model.Balance{}, err
	}

	var used int64
	for _, contract := range contracts {
		if contract.ID == excludeContractID {
			continue
		}
		used += contract.Value
	}

	return model.Balance{
		Ceiling:   allocation.Ceiling,
		Used:      used,
		Remaining: allocation.Ceiling - used,
	}, nil
}
