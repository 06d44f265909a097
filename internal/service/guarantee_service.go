package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type GuaranteeStore interface {
	ListGuaranteesByContract(ctx context.Context, contractID uuid.UUID) ([]model.Guarantee, error)
	CreateGuarantee(ctx context.Context, row model.Guarantee) (*model.Guarantee, error)
	DeleteGuarantee(ctx context.Context, id uuid.UUID) error
}

// GuaranteeService records bond instruments securing contract performance.
// Every instrument must be issued before work begins and its validity range
// must cover the whole execution window; together the instruments may not
// exceed the contract value.
type GuaranteeService struct {
	store     GuaranteeStore
	contracts ContractGetter
}

func NewGuaranteeService(store GuaranteeStore, contracts ContractGetter) *GuaranteeService {
	return &GuaranteeService{store: store, contracts: contracts}
}

// ApplyDefaults prefills an unset validity range from the contract's
// execution window. Both dates stay editable.
func (s *GuaranteeService) ApplyDefaults(contract *model.Contract, row *model.Guarantee) {
	if row.ValidFrom.IsZero() {
		row.ValidFrom = contract.ExecutionStart
	}
	if row.ValidTo.IsZero() {
		row.ValidTo = contract.ExecutionEnd
	}
}

// Validate applies the per-row date ordering rules and the aggregate value
// ceiling, all blocking.
func (s *GuaranteeService) Validate(contract *model.Contract, rows []model.Guarantee) error {
	start := dateOnly(contract.ExecutionStart)
	end := dateOnly(contract.ExecutionEnd)

	var total int64
	for i, row := range rows {
		if strings.TrimSpace(row.Number) == "" {
			return validationf("guarantee %d has no number", i+1)
		}
		if row.Value <= 0 {
			return validationf("guarantee %q value must be greater than zero", row.Number)
		}
		if row.IssueDate.IsZero() {
			return validationf("guarantee %q issue date is required", row.Number)
		}

		issue := dateOnly(row.IssueDate)
		from := dateOnly(row.ValidFrom)
		to := dateOnly(row.ValidTo)

		// Issued before work begins.
		if !issue.Before(start) {
			return &DateRangeError{
				Field:  "guarantee issue date",
				Date:   row.IssueDate,
				Detail: fmt.Sprintf("must be before execution start %s", start.Format("2006-01-02")),
			}
		}
		// Coverage spans the whole execution period.
		if from.After(start) {
			return &DateRangeError{
				Field:  "guarantee valid-from date",
				Date:   row.ValidFrom,
				Detail: fmt.Sprintf("must be on or before execution start %s", start.Format("2006-01-02")),
			}
		}
		if to.Before(end) {
			return &DateRangeError{
				Field:  "guarantee valid-to date",
				Date:   row.ValidTo,
				Detail: fmt.Sprintf("must be on or after execution end %s", end.Format("2006-01-02")),
			}
		}
		if !from.Before(to) {
			return validationf("guarantee %q validity range is empty", row.Number)
		}

		total += row.Value
	}

	if total > contract.Value {
		return validationf("guarantee values total %d exceeds contract value %d", total, contract.Value)
	}
	return nil
}

// Replace swaps the persisted guarantee set for the submitted one: the same
// delete-then-recreate pattern as installments, and deliberately without a
// per-row confirmation step since the whole set is replaced at once.
func (s *GuaranteeService) Replace(ctx context.Context, principal model.Principal, contractID uuid.UUID, rows []model.Guarantee) ([]model.Guarantee, error) {
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

	for i := range rows {
		s.ApplyDefaults(contract, &rows[i])
	}
	if err := s.Validate(contract, rows); err != nil {
		return nil, err
	}

	existing, err := s.store.ListGuaranteesByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	for _, row := range existing {
		if err := s.store.DeleteGuarantee(ctx, row.ID); err != nil {
			return nil, fmt.Errorf("delete guarantee %q: %w", row.Number, err)
		}
	}

	saved := make([]model.Guarantee, 0, len(rows))
	for _, row := range rows {
		created, err := s.store.CreateGuarantee(ctx, model.Guarantee{
			ContractID: contractID,
			Number:     strings.TrimSpace(row.Number),
			Type:       strings.TrimSpace(row.Type),
			IssueDate:  row.IssueDate,
			ValidFrom:  row.ValidFrom,
			ValidTo:    row.ValidTo,
			Value:      row.Value,
			Issuer:     strings.TrimSpace(row.Issuer),
		})
		if err != nil {
			return saved, fmt.Errorf("recreate guarantee %q: %w", row.Number, err)
		}
		saved = append(saved, *created)
	}
	return saved, nil
}

// ListByContract is the re-sync path after a partial Replace failure.
func (s *GuaranteeService) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.Guarantee, error) {
	return s.store.ListGuaranteesByContract(ctx, contractID)
}
