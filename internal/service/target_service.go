package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type TargetStore interface {
	GetTarget(ctx context.Context, id uuid.UUID) (*model.ProgressTarget, error)
	CreateTarget(ctx context.Context, target model.ProgressTarget) (*model.ProgressTarget, error)
	UpdateTarget(ctx context.Context, target model.ProgressTarget) error
	DeleteTarget(ctx context.Context, id uuid.UUID) error
}

type ContractGetter interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
}

// TargetService records dated physical/financial completion checkpoints
// for a contract. Target dates must fall inside the execution window, and
// an entry claiming 100% must claim it on both axes at once.
type TargetService struct {
	targets   TargetStore
	contracts ContractGetter
}

func NewTargetService(targets TargetStore, contracts ContractGetter) *TargetService {
	return &TargetService{targets: targets, contracts: contracts}
}

type TargetInput struct {
	ContractID       uuid.UUID
	Date             time.Time
	PhysicalPercent  float64
	FinancialPercent float64
	FinancialAmount  int64
}

func (s *TargetService) Create(ctx context.Context, principal model.Principal, input TargetInput) (*model.ProgressTarget, error) {
	contract, err := s.validateTarget(ctx, principal, input)
	if err != nil {
		return nil, err
	}

	return s.targets.CreateTarget(ctx, model.ProgressTarget{
		ContractID:       contract.ID,
		Date:             input.Date,
		PhysicalPercent:  input.PhysicalPercent,
		FinancialPercent: input.FinancialPercent,
		FinancialAmount:  financialAmount(input, contract.Value),
	})
}

func (s *TargetService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input TargetInput) (*model.ProgressTarget, error) {
	existing, err := s.targets.GetTarget(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	input.ContractID = existing.ContractID

	contract, err := s.validateTarget(ctx, principal, input)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Date = input.Date
	updated.PhysicalPercent = input.PhysicalPercent
	updated.FinancialPercent = input.FinancialPercent
	updated.FinancialAmount = financialAmount(input, contract.Value)

	if err := s.targets.UpdateTarget(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete is unconditional: nothing references a progress target.
func (s *TargetService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	existing, err := s.targets.GetTarget(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}

	contract, err := s.contracts.GetContract(ctx, existing.ContractID)
	if err != nil {
		return err
	}
	if !principal.CanAccess(contract.OrgUnitID) {
		return ErrPermissionDenied
	}

	return s.targets.DeleteTarget(ctx, id)
}

func (s *TargetService) validateTarget(ctx context.Context, principal model.Principal, input TargetInput) (*model.Contract, error) {
	if input.ContractID == uuid.Nil {
		return nil, validationf("contract must be selected")
	}
	if input.Date.IsZero() {
		return nil, validationf("target date is required")
	}
	if input.PhysicalPercent < 0 || input.PhysicalPercent > 100 {
		return nil, validationf("physical percent must be between 0 and 100")
	}
	if input.FinancialPercent < 0 || input.FinancialPercent > 100 {
		return nil, validationf("financial percent must be between 0 and 100")
	}

	contract, err := s.contracts.GetContract(ctx, input.ContractID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccess(contract.OrgUnitID) {
		return nil, ErrPermissionDenied
	}

	date := dateOnly(input.Date)
	if date.Before(dateOnly(contract.ExecutionStart)) || date.After(dateOnly(contract.ExecutionEnd)) {
		return nil, &DateRangeError{
			Field: "target date",
			Date:  input.Date,
			Detail: fmt.Sprintf("must fall within execution window [%s, %s]",
				contract.ExecutionStart.Format("2006-01-02"),
				contract.ExecutionEnd.Format("2006-01-02")),
		}
	}

	// Terminal completeness: a dangling half-complete 100% entry is never
	// allowed.
	if (input.PhysicalPercent == 100) != (input.FinancialPercent == 100) {
		return nil, ErrIncompleteTerminal
	}

	return contract, nil
}

// financialAmount derives the nominal amount from the financial percent
// when the caller sends none; an explicit amount is a manual rounding
// adjustment and is stored as-is.
func financialAmount(input TargetInput, contractValue int64) int64 {
	if input.FinancialAmount > 0 {
		return input.FinancialAmount
	}
	return int64(math.Round(input.FinancialPercent / 100 * float64(contractValue)))
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
