package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type InstallmentStore interface {
	ListInstallmentsByContract(ctx context.Context, contractID uuid.UUID) ([]model.Installment, error)
	CreateInstallment(ctx context.Context, row model.Installment) (*model.Installment, error)
	DeleteInstallment(ctx context.Context, id uuid.UUID) error
}

// InstallmentService partitions a contract's value and completion into
// payment tranches. It always operates on the full set for one contract,
// never on single rows: saving replaces everything persisted for the
// contract with the submitted set.
type InstallmentService struct {
	store     InstallmentStore
	contracts ContractGetter
	tolerance float64
}

const defaultProgressTolerance = 0.01

func NewInstallmentService(store InstallmentStore, contracts ContractGetter, tolerance float64) *InstallmentService {
	if tolerance <= 0 {
		tolerance = defaultProgressTolerance
	}
	return &InstallmentService{store: store, contracts: contracts, tolerance: tolerance}
}

// NextLabel picks the label for a row appended after the given set.
func (s *InstallmentService) NextLabel(existing []model.Installment) string {
	return ordinalLabel(len(existing) + 1)
}

// Sort orders rows by payment sequence: Roman numerals, Indonesian ordinal
// words and plain integers by value, anything unrecognized last.
func (s *InstallmentService) Sort(rows []model.Installment) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessLabel(rows[i].Label, rows[j].Label)
	})
}

// RecomputeShares redistributes percent shares evenly: floor(100/n) each,
// with the remainder handed out one point apiece to the first rows in
// sorted order. Shares therefore always sum to exactly 100 with no
// floating-point drift.
func (s *InstallmentService) RecomputeShares(rows []model.Installment) {
	n := len(rows)
	if n == 0 {
		return
	}
	s.Sort(rows)

	base := 100 / n
	remainder := 100 % n
	for i := range rows {
		share := base
		if i < remainder {
			share++
		}
		rows[i].PercentShare = float64(share)
	}
}

// Validate applies the save-blocking rules to the full set: labeled rows
// with positive amounts and progress percentages that total 100 within
// tolerance. The amount ceiling is deliberately NOT checked here; see
// AmountOverage.
func (s *InstallmentService) Validate(contract *model.Contract, rows []model.Installment) error {
	if len(rows) == 0 {
		return validationf("at least one installment is required")
	}

	var progressTotal float64
	for i, row := range rows {
		if row.Label == "" {
			return validationf("installment %d has no label", i+1)
		}
		if row.Amount <= 0 {
			return validationf("installment %q amount must be greater than zero", row.Label)
		}
		if row.ProgressPercent < 0 || row.ProgressPercent > 100 {
			return validationf("installment %q progress must be between 0 and 100", row.Label)
		}
		progressTotal += row.ProgressPercent
	}

	if math.Abs(progressTotal-100) > s.tolerance {
		return validationf("installment progress must total 100, got %.2f", progressTotal)
	}
	return nil
}

// AmountOverage reports how far the installment amounts exceed the contract
// value. This is advisory only — surfaced as a warning, never blocking a
// save — unlike the progress-total rule.
func (s *InstallmentService) AmountOverage(contract *model.Contract, rows []model.Installment) (int64, bool) {
	var total int64
	for _, row := range rows {
		total += row.Amount
	}
	if total > contract.Value {
		return total - contract.Value, true
	}
	return 0, false
}

// Replace swaps the persisted installment set for the submitted one. The
// swap is delete-then-recreate without a wrapping transaction: a failure
// partway through leaves the contract with fewer installments than intended
// until the next successful save, and callers recover by re-fetching the
// set and re-attempting.
func (s *InstallmentService) Replace(ctx context.Context, principal model.Principal, contractID uuid.UUID, rows []model.Installment) ([]model.Installment, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccess(contract.OrgUnitID) {
		return nil, ErrPermissionDenied
	}

	s.Sort(rows)
	if err := s.Validate(contract, rows); err != nil {
		return nil, err
	}

	existing, err := s.store.ListInstallmentsByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	for _, row := range existing {
		if err := s.store.DeleteInstallment(ctx, row.ID); err != nil {
			return nil, fmt.Errorf("delete installment %q: %w", row.Label, err)
		}
	}

	saved := make([]model.Installment, 0, len(rows))
	for _, row := range rows {
		created, err := s.store.CreateInstallment(ctx, model.Installment{
			ContractID:      contractID,
			Label:           row.Label,
			PercentShare:    row.PercentShare,
			Amount:          row.Amount,
			ProgressPercent: row.ProgressPercent,
		})
		if err != nil {
			// Old rows are already gone; the set is now partial until the
			// caller re-syncs and saves again.
			return saved, fmt.Errorf("recreate installment %q: %w", row.Label, err)
		}
		saved = append(saved, *created)
	}
	return saved, nil
}

// ListByContract is the re-sync path after a partial Replace failure.
func (s *InstallmentService) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.Installment, error) {
	rows, err := s.store.ListInstallmentsByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	s.Sort(rows)
	return rows, nil
}
