package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type ContractStore interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	FindContractByNumber(ctx context.Context, number string) (*model.Contract, error)
	CreateContract(ctx context.Context, contract model.Contract) (*model.Contract, error)
	UpdateContract(ctx context.Context, contract model.Contract) error
	DeleteContract(ctx context.Context, id uuid.UUID) error
	CountContractChildren(ctx context.Context, contractID uuid.UUID) (int64, error)
}

type AllocationStore interface {
	GetWorkPackage(ctx context.Context, id uuid.UUID) (*model.WorkPackage, error)
	GetAllocationByID(ctx context.Context, id uuid.UUID) (*model.Allocation, error)
}

// ContractService registers procurement contracts against work packages.
// Contract numbers are unique across the whole system (case-insensitive,
// trimmed) and contract values are bounded by the remaining allocation of
// the account code reachable from the work package.
type ContractService struct {
	contracts ContractStore
	budget    AllocationStore
	ledger    *Ledger
}

func NewContractService(contracts ContractStore, budget AllocationStore, ledger *Ledger) *ContractService {
	return &ContractService{contracts: contracts, budget: budget, ledger: ledger}
}

type ContractInput struct {
	WorkPackageID     uuid.UUID
	ContractNumber    string
	ContractDate      time.Time
	WorkOrderNumber   string
	WorkOrderDate     time.Time
	DurationValue     int
	DurationUnit      string
	Provider          string
	ProcurementMethod string
	Value             int64
	AccountCodeID     uuid.UUID
	EstimatedPrice    int64
	ExecutionStart    time.Time
	ExecutionEnd      time.Time
	Location          string
}

// validateContractInput walks the required fields in presentation order.
// The first unmet requirement wins: operators are told about the earliest
// missing field on the form, never an arbitrary one.
func validateContractInput(input ContractInput) (model.DurationUnit, error) {
	if input.WorkPackageID == uuid.Nil {
		return "", validationf("work package must be selected")
	}
	if strings.TrimSpace(input.ContractNumber) == "" {
		return "", validationf("contract number is required")
	}
	if input.ContractDate.IsZero() {
		return "", validationf("contract date is required")
	}
	if strings.TrimSpace(input.WorkOrderNumber) == "" {
		return "", validationf("work order (SPMK) number is required")
	}
	if input.WorkOrderDate.IsZero() {
		return "", validationf("work order (SPMK) date is required")
	}
	if input.DurationValue <= 0 {
		return "", validationf("duration must be greater than zero")
	}
	unit, ok := model.ParseDurationUnit(input.DurationUnit)
	if !ok {
		return "", validationf("duration unit must be one of day, week, month, year")
	}
	if strings.TrimSpace(input.Provider) == "" {
		return "", validationf("provider is required")
	}
	if strings.TrimSpace(input.ProcurementMethod) == "" {
		return "", validationf("procurement method is required")
	}
	if input.Value <= 0 {
		return "", validationf("contract value must be greater than zero")
	}
	if input.AccountCodeID == uuid.Nil {
		return "", validationf("budget code is required")
	}
	if input.EstimatedPrice <= 0 {
		return "", validationf("estimated price (HPS) is required")
	}
	if input.ExecutionStart.IsZero() {
		return "", validationf("execution start is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return "", validationf("work location is required")
	}
	return unit, nil
}

func (s *ContractService) Create(ctx context.Context, principal model.Principal, input ContractInput) (*model.Contract, error) {
	unit, err := validateContractInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicateNumber(ctx, input.ContractNumber, uuid.Nil); err != nil {
		return nil, err
	}

	workPackage, allocation, err := s.resolveAllocation(ctx, input)
	if err != nil {
		return nil, err
	}

	scope := model.Scope{ActivityID: allocation.ActivityID, BudgetYear: allocation.BudgetYear}
	if err := s.checkRemaining(ctx, allocation.AccountCodeID, scope, input.Value, uuid.Nil); err != nil {
		return nil, err
	}

	end := input.ExecutionEnd
	if end.IsZero() {
		end = model.DeriveExecutionEnd(input.ExecutionStart, input.DurationValue, unit)
	}

	return s.contracts.CreateContract(ctx, model.Contract{
		WorkPackageID:     workPackage.ID,
		AccountCodeID:     allocation.AccountCodeID,
		ContractNumber:    strings.TrimSpace(input.ContractNumber),
		ContractDate:      input.ContractDate,
		WorkOrderNumber:   strings.TrimSpace(input.WorkOrderNumber),
		WorkOrderDate:     input.WorkOrderDate,
		DurationValue:     input.DurationValue,
		DurationUnit:      unit,
		Provider:          strings.TrimSpace(input.Provider),
		ProcurementMethod: strings.TrimSpace(input.ProcurementMethod),
		Value:             input.Value,
		EstimatedPrice:    input.EstimatedPrice,
		ExecutionStart:    input.ExecutionStart,
		ExecutionEnd:      end,
		Location:          strings.TrimSpace(input.Location),
		BudgetYear:        allocation.BudgetYear,
		OrgUnitID:         principal.OrgUnitID,
		CreatedByUserID:   principal.UserID,
	})
}

func (s *ContractService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input ContractInput) (*model.Contract, error) {
	existing, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccess(existing.OrgUnitID) {
		return nil, ErrPermissionDenied
	}
	if input.WorkPackageID == uuid.Nil {
		input.WorkPackageID = existing.WorkPackageID
	}
	if input.WorkPackageID != existing.WorkPackageID {
		return nil, validationf("contract cannot be moved to another work package")
	}

	unit, err := validateContractInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicateNumber(ctx, input.ContractNumber, existing.ID); err != nil {
		return nil, err
	}

	_, allocation, err := s.resolveAllocation(ctx, input)
	if err != nil {
		return nil, err
	}

	// The contract's own prior value is excluded from the used total so an
	// in-place edit is evaluated against the correct remaining balance.
	scope := model.Scope{ActivityID: allocation.ActivityID, BudgetYear: allocation.BudgetYear}
	if err := s.checkRemaining(ctx, allocation.AccountCodeID, scope, input.Value, existing.ID); err != nil {
		return nil, err
	}

	// The end date is re-derived whenever start or duration change in this
	// request; otherwise an explicit end date is a manual override and is
	// stored as-is (holiday adjustments).
	end := input.ExecutionEnd
	durationChanged := !input.ExecutionStart.Equal(existing.ExecutionStart) ||
		input.DurationValue != existing.DurationValue ||
		unit != existing.DurationUnit
	if durationChanged {
		end = model.DeriveExecutionEnd(input.ExecutionStart, input.DurationValue, unit)
	} else if end.IsZero() {
		end = existing.ExecutionEnd
	}

	updated := *existing
	updated.ContractNumber = strings.TrimSpace(input.ContractNumber)
	updated.ContractDate = input.ContractDate
	updated.WorkOrderNumber = strings.TrimSpace(input.WorkOrderNumber)
	updated.WorkOrderDate = input.WorkOrderDate
	updated.DurationValue = input.DurationValue
	updated.DurationUnit = unit
	updated.Provider = strings.TrimSpace(input.Provider)
	updated.ProcurementMethod = strings.TrimSpace(input.ProcurementMethod)
	updated.Value = input.Value
	updated.EstimatedPrice = input.EstimatedPrice
	updated.ExecutionStart = input.ExecutionStart
	updated.ExecutionEnd = end
	updated.Location = strings.TrimSpace(input.Location)

	if err := s.contracts.UpdateContract(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *ContractService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	existing, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if !principal.CanAccess(existing.OrgUnitID) {
		return ErrPermissionDenied
	}

	children, err := s.contracts.CountContractChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrContractInUse
	}

	return s.contracts.DeleteContract(ctx, id)
}

func (s *ContractService) checkDuplicateNumber(ctx context.Context, number string, selfID uuid.UUID) error {
	found, err := s.contracts.FindContractByNumber(ctx, number)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if found.ID == selfID {
		return nil
	}
	return &DuplicateKeyError{Key: strings.TrimSpace(number)}
}

func (s *ContractService) resolveAllocation(ctx context.Context, input ContractInput) (*model.WorkPackage, *model.Allocation, error) {
	workPackage, err := s.budget.GetWorkPackage(ctx, input.WorkPackageID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	allocation, err := s.budget.GetAllocationByID(ctx, workPackage.AllocationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if input.AccountCodeID != allocation.AccountCodeID {
		return nil, nil, validationf("budget code does not match the work package allocation")
	}
	return workPackage, allocation, nil
}

func (s *ContractService) checkRemaining(ctx context.Context, accountCodeID uuid.UUID, scope model.Scope, value int64, excludeContractID uuid.UUID) error {
	balance, err := s.ledger.RemainingExcluding(ctx, accountCodeID, scope, excludeContractID)
	if err != nil {
		return err
	}
	if value > balance.Remaining {
		return &AllocationExceededError{
			Shortfall: value - balance.Remaining,
			Remaining: balance.Remaining,
		}
	}
	return nil
}
