package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id, work_package_id, account_code_id, contract_number, contract_date,
	work_order_number, work_order_date, duration_value, duration_unit,
	provider, procurement_method, value, estimated_price,
	execution_start, execution_end, location, budget_year, org_unit_id,
	created_by_user_id, created_at
`

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

// FindContractByNumber matches case-insensitively on the trimmed number.
func (r *ContractRepository) FindContractByNumber(ctx context.Context, number string) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE LOWER(TRIM(contract_number)) = ?
		LIMIT 1
	`, strings.ToLower(strings.TrimSpace(number))).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

// ContractFilter mirrors the list-endpoint query parameters.
type ContractFilter struct {
	AccountCodeIDs []uuid.UUID
	WorkPackageIDs []uuid.UUID
	BudgetYear     int
	OrgUnitID      uuid.UUID
}

func (r *ContractRepository) ListContracts(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	baseQuery := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE 1=1
	`
	var args []interface{}
	var filters []string
	if len(filter.AccountCodeIDs) > 0 {
		filters = append(filters, "account_code_id = ANY(?)")
		args = append(args, filter.AccountCodeIDs)
	}
	if len(filter.WorkPackageIDs) > 0 {
		filters = append(filters, "work_package_id = ANY(?)")
		args = append(args, filter.WorkPackageIDs)
	}
	if filter.BudgetYear != 0 {
		filters = append(filters, "budget_year = ?")
		args = append(args, filter.BudgetYear)
	}
	if filter.OrgUnitID != uuid.Nil {
		filters = append(filters, "org_unit_id = ?")
		args = append(args, filter.OrgUnitID)
	}

	if len(filters) > 0 {
		baseQuery += " AND " + strings.Join(filters, " AND ")
	}
	baseQuery += " ORDER BY contract_date ASC, contract_number ASC"

	var contracts []model.Contract
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) ListContractsByWorkPackageIDs(ctx context.Context, ids []uuid.UUID) ([]model.Contract, error) {
	if len(ids) == 0 {
		return []model.Contract{}, nil
	}

	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE work_package_id = ANY(?)
		ORDER BY contract_date ASC
	`, ids).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) CreateContract(ctx context.Context, contract model.Contract) (*model.Contract, error) {
	var saved model.Contract
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contracts (
			work_package_id,
			account_code_id,
			contract_number,
			contract_date,
			work_order_number,
			work_order_date,
			duration_value,
			duration_unit,
			provider,
			procurement_method,
			value,
			estimated_price,
			execution_start,
			execution_end,
			location,
			budget_year,
			org_unit_id,
			created_by_user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+contractColumns+`
	`,
		contract.WorkPackageID,
		contract.AccountCodeID,
		contract.ContractNumber,
		contract.ContractDate,
		contract.WorkOrderNumber,
		contract.WorkOrderDate,
		contract.DurationValue,
		contract.DurationUnit,
		contract.Provider,
		contract.ProcurementMethod,
		contract.Value,
		contract.EstimatedPrice,
		contract.ExecutionStart,
		contract.ExecutionEnd,
		contract.Location,
		contract.BudgetYear,
		contract.OrgUnitID,
		contract.CreatedByUserID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ContractRepository) UpdateContract(ctx context.Context, contract model.Contract) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE contracts
		SET
			contract_number = ?,
			contract_date = ?,
			work_order_number = ?,
			work_order_date = ?,
			duration_value = ?,
			duration_unit = ?,
			provider = ?,
			procurement_method = ?,
			value = ?,
			estimated_price = ?,
			execution_start = ?,
			execution_end = ?,
			location = ?
		WHERE id = ?
	`,
		contract.ContractNumber,
		contract.ContractDate,
		contract.WorkOrderNumber,
		contract.WorkOrderDate,
		contract.DurationValue,
		contract.DurationUnit,
		contract.Provider,
		contract.ProcurementMethod,
		contract.Value,
		contract.EstimatedPrice,
		contract.ExecutionStart,
		contract.ExecutionEnd,
		contract.Location,
		contract.ID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContractRepository) DeleteContract(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM contracts WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountContractChildren counts targets, installments and guarantees still
// referencing the contract. Deletion is refused while any remain.
func (r *ContractRepository) CountContractChildren(ctx context.Context, contractID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM progress_targets WHERE contract_id = ?) +
			(SELECT COUNT(*) FROM installments WHERE contract_id = ?) +
			(SELECT COUNT(*) FROM guarantees WHERE contract_id = ?)
	`, contractID, contractID, contractID).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
