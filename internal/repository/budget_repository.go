package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

// BudgetRepository covers allocations (read-only, created upstream by budget
// planning) and the work packages drawn against them.
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) GetAllocation(ctx context.Context, accountCodeID uuid.UUID, scope model.Scope) (*model.Allocation, error) {
	var allocation model.Allocation
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, account_code_id, activity_id, budget_year, ceiling
		FROM allocations
		WHERE account_code_id = ? AND activity_id = ? AND budget_year = ?
		LIMIT 1
	`, accountCodeID, scope.ActivityID, scope.BudgetYear).Scan(&allocation).Error
	if err != nil {
		return nil, err
	}
	if allocation.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &allocation, nil
}

func (r *BudgetRepository) GetAllocationByID(ctx context.Context, id uuid.UUID) (*model.Allocation, error) {
	var allocation model.Allocation
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, account_code_id, activity_id, budget_year, ceiling
		FROM allocations
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&allocation).Error
	if err != nil {
		return nil, err
	}
	if allocation.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &allocation, nil
}

func (r *BudgetRepository) ListAllocations(ctx context.Context, orgUnitID uuid.UUID, budgetYear int) ([]model.Allocation, error) {
	var allocations []model.Allocation
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT a.id, a.account_code_id, a.activity_id, a.budget_year, a.ceiling
		FROM allocations a
		LEFT JOIN work_packages wp ON wp.allocation_id = a.id
		WHERE a.budget_year = ? AND (wp.org_unit_id = ? OR wp.id IS NULL)
	`, budgetYear, orgUnitID).Scan(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *BudgetRepository) GetWorkPackage(ctx context.Context, id uuid.UUID) (*model.WorkPackage, error) {
	var wp model.WorkPackage
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, allocation_id, description, volume, unit, unit_price, amount, budget_year, org_unit_id
		FROM work_packages
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&wp).Error
	if err != nil {
		return nil, err
	}
	if wp.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &wp, nil
}

func (r *BudgetRepository) ListWorkPackagesByAllocation(ctx context.Context, allocationID uuid.UUID) ([]model.WorkPackage, error) {
	var rows []model.WorkPackage
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, allocation_id, description, volume, unit, unit_price, amount, budget_year, org_unit_id
		FROM work_packages
		WHERE allocation_id = ?
		ORDER BY description ASC
	`, allocationID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WorkPackageFilter mirrors the list-endpoint query parameters.
type WorkPackageFilter struct {
	AllocationIDs  []uuid.UUID
	AccountCodeIDs []uuid.UUID
	BudgetYear     int
	OrgUnitID      uuid.UUID
}

func (r *BudgetRepository) ListWorkPackages(ctx context.Context, filter WorkPackageFilter) ([]model.WorkPackage, error) {
	baseQuery := `
		SELECT wp.id, wp.allocation_id, wp.description, wp.volume, wp.unit,
			wp.unit_price, wp.amount, wp.budget_year, wp.org_unit_id
		FROM work_packages wp
		JOIN allocations a ON a.id = wp.allocation_id
		WHERE 1=1
	`
	var args []interface{}
	var filters []string
	if len(filter.AllocationIDs) > 0 {
		filters = append(filters, "wp.allocation_id = ANY(?)")
		args = append(args, filter.AllocationIDs)
	}
	if len(filter.AccountCodeIDs) > 0 {
		filters = append(filters, "a.account_code_id = ANY(?)")
		args = append(args, filter.AccountCodeIDs)
	}
	if filter.BudgetYear != 0 {
		filters = append(filters, "wp.budget_year = ?")
		args = append(args, filter.BudgetYear)
	}
	if filter.OrgUnitID != uuid.Nil {
		filters = append(filters, "wp.org_unit_id = ?")
		args = append(args, filter.OrgUnitID)
	}

	if len(filters) > 0 {
		baseQuery += " AND " + strings.Join(filters, " AND ")
	}
	baseQuery += " ORDER BY wp.description ASC"

	var rows []model.WorkPackage
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BudgetRepository) CreateWorkPackage(ctx context.Context, wp model.WorkPackage) (*model.WorkPackage, error) {
	var saved model.WorkPackage
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO work_packages (
			allocation_id, description, volume, unit, unit_price, amount, budget_year, org_unit_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, allocation_id, description, volume, unit, unit_price, amount, budget_year, org_unit_id
	`,
		wp.AllocationID,
		wp.Description,
		wp.Volume,
		wp.Unit,
		wp.UnitPrice,
		wp.Amount,
		wp.BudgetYear,
		wp.OrgUnitID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *BudgetRepository) UpdateWorkPackage(ctx context.Context, wp model.WorkPackage) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE work_packages
		SET
			description = ?,
			volume = ?,
			unit = ?,
			unit_price = ?,
			amount = ?
		WHERE id = ?
	`, wp.Description, wp.Volume, wp.Unit, wp.UnitPrice, wp.Amount, wp.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BudgetRepository) DeleteWorkPackage(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM work_packages WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BudgetRepository) CountContractsForWorkPackage(ctx context.Context, workPackageID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM contracts WHERE work_package_id = ?
	`, workPackageID).Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("count contracts for work package: %w", err)
	}
	return count, nil
}
