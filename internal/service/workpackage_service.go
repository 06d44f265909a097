package service

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type WorkPackageStore interface {
	GetAllocationByID(ctx context.Context, id uuid.UUID) (*model.Allocation, error)
	GetWorkPackage(ctx context.Context, id uuid.UUID) (*model.WorkPackage, error)
	ListWorkPackagesByAllocation(ctx context.Context, allocationID uuid.UUID) ([]model.WorkPackage, error)
	CreateWorkPackage(ctx context.Context, wp model.WorkPackage) (*model.WorkPackage, error)
	UpdateWorkPackage(ctx context.Context, wp model.WorkPackage) error
	DeleteWorkPackage(ctx context.Context, id uuid.UUID) error
	CountContractsForWorkPackage(ctx context.Context, workPackageID uuid.UUID) (int64, error)
}

// WorkPackageService registers priced line items against an allocation.
// The sum of work package amounts for one allocation may never exceed the
// allocation ceiling; the sibling total is re-fetched on every mutation.
type WorkPackageService struct {
	store WorkPackageStore
}

func NewWorkPackageService(store WorkPackageStore) *WorkPackageService {
	return &WorkPackageService{store: store}
}

type WorkPackageInput struct {
	AllocationID uuid.UUID
	Description  string
	Volume       float64
	Unit         string
	UnitPrice    int64
}

func (s *WorkPackageService) Create(ctx context.Context, principal model.Principal, input WorkPackageInput) (*model.WorkPackage, error) {
	if err := validateWorkPackageInput(input); err != nil {
		return nil, err
	}
	amount := packageAmount(input.Volume, input.UnitPrice)

	allocation, err := s.store.GetAllocationByID(ctx, input.AllocationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	siblingTotal, err := s.siblingTotal(ctx, allocation.ID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if siblingTotal+amount > allocation.Ceiling {
		return nil, &AllocationExceededError{
			Shortfall: siblingTotal + amount - allocation.Ceiling,
			Remaining: allocation.Ceiling - siblingTotal,
		}
	}

	return s.store.CreateWorkPackage(ctx, model.WorkPackage{
		AllocationID: allocation.ID,
		Description:  strings.TrimSpace(input.Description),
		Volume:       input.Volume,
		Unit:         strings.TrimSpace(input.Unit),
		UnitPrice:    input.UnitPrice,
		Amount:       amount,
		BudgetYear:   allocation.BudgetYear,
		OrgUnitID:    principal.OrgUnitID,
	})
}

func (s *WorkPackageService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input WorkPackageInput) (*model.WorkPackage, error) {
	existing, err := s.store.GetWorkPackage(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccess(existing.OrgUnitID) {
		return nil, ErrPermissionDenied
	}

	if err := validateWorkPackageInput(input); err != nil {
		return nil, err
	}
	amount := packageAmount(input.Volume, input.UnitPrice)

	allocation, err := s.store.GetAllocationByID(ctx, existing.AllocationID)
	if err != nil {
		return nil, err
	}

	// The row being edited is excluded from the sibling total so the new
	// amount is judged against the correct remaining balance.
	siblingTotal, err := s.siblingTotal(ctx, allocation.ID, existing.ID)
	if err != nil {
		return nil, err
	}
	if siblingTotal+amount > allocation.Ceiling {
		return nil, &AllocationExceededError{
			Shortfall: siblingTotal + amount - allocation.Ceiling,
			Remaining: allocation.Ceiling - siblingTotal,
		}
	}

	updated := *existing
	updated.Description = strings.TrimSpace(input.Description)
	updated.Volume = input.Volume
	updated.Unit = strings.TrimSpace(input.Unit)
	updated.UnitPrice = input.UnitPrice
	updated.Amount = amount

	if err := s.store.UpdateWorkPackage(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *WorkPackageService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	existing, err := s.store.GetWorkPackage(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if !principal.CanAccess(existing.OrgUnitID) {
		return ErrPermissionDenied
	}

	contractCount, err := s.store.CountContractsForWorkPackage(ctx, id)
	if err != nil {
		return err
	}
	if contractCount > 0 {
		return ErrWorkPackageInUse
	}

	return s.store.DeleteWorkPackage(ctx, id)
}

func (s *WorkPackageService) siblingTotal(ctx context.Context, allocationID, excludeID uuid.UUID) (int64, error) {
	siblings, err := s.store.ListWorkPackagesByAllocation(ctx, allocationID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, sibling := range siblings {
		if sibling.ID == excludeID {
			continue
		}
		total += sibling.Amount
	}
	return total, nil
}

func validateWorkPackageInput(input WorkPackageInput) error {
	if input.AllocationID == uuid.Nil {
		return validationf("allocation must be selected")
	}
	if strings.TrimSpace(input.Description) == "" {
		return validationf("description is required")
	}
	if input.Volume <= 0 {
		return validationf("volume must be greater than zero")
	}
	if input.UnitPrice <= 0 {
		return validationf("unit price must be greater than zero")
	}
	return nil
}

func packageAmount(volume float64, unitPrice int64) int64 {
	return int64(math.Round(volume * float64(unitPrice)))
}
