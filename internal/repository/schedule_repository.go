package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

// ScheduleRepository covers the three per-contract schedules: progress
// targets, payment installments and performance guarantees.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) GetTarget(ctx context.Context, id uuid.UUID) (*model.ProgressTarget, error) {
	var target model.ProgressTarget
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, target_date AS date, physical_percent, financial_percent, financial_amount
		FROM progress_targets
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&target).Error
	if err != nil {
		return nil, err
	}
	if target.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &target, nil
}

func (r *ScheduleRepository) ListTargetsByContract(ctx context.Context, contractID uuid.UUID) ([]model.ProgressTarget, error) {
	var targets []model.ProgressTarget
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, target_date AS date, physical_percent, financial_percent, financial_amount
		FROM progress_targets
		WHERE contract_id = ?
		ORDER BY target_date ASC
	`, contractID).Scan(&targets).Error
	if err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *ScheduleRepository) CreateTarget(ctx context.Context, target model.ProgressTarget) (*model.ProgressTarget, error) {
	var saved model.ProgressTarget
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO progress_targets (
			contract_id, target_date, physical_percent, financial_percent, financial_amount
		) VALUES (?, ?, ?, ?, ?)
		RETURNING id, contract_id, target_date AS date, physical_percent, financial_percent, financial_amount
	`,
		target.ContractID,
		target.Date,
		target.PhysicalPercent,
		target.FinancialPercent,
		target.FinancialAmount,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ScheduleRepository) UpdateTarget(ctx context.Context, target model.ProgressTarget) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE progress_targets
		SET
			target_date = ?,
			physical_percent = ?,
			financial_percent = ?,
			financial_amount = ?
		WHERE id = ?
	`, target.Date, target.PhysicalPercent, target.FinancialPercent, target.FinancialAmount, target.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ScheduleRepository) DeleteTarget(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM progress_targets WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ScheduleRepository) ListInstallmentsByContract(ctx context.Context, contractID uuid.UUID) ([]model.Installment, error) {
	var rows []model.Installment
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, label, percent_share, amount, progress_percent
		FROM installments
		WHERE contract_id = ?
		ORDER BY label ASC
	`, contractID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepository) CreateInstallment(ctx context.Context, row model.Installment) (*model.Installment, error) {
	var saved model.Installment
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO installments (contract_id, label, percent_share, amount, progress_percent)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, contract_id, label, percent_share, amount, progress_percent
	`,
		row.ContractID,
		row.Label,
		row.PercentShare,
		row.Amount,
		row.ProgressPercent,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ScheduleRepository) DeleteInstallment(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM installments WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ScheduleRepository) ListGuaranteesByContract(ctx context.Context, contractID uuid.UUID) ([]model.Guarantee, error) {
	var rows []model.Guarantee
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, number, type, issue_date, valid_from, valid_to, value, issuer
		FROM guarantees
		WHERE contract_id = ?
		ORDER BY valid_from ASC, number ASC
	`, contractID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepository) CreateGuarantee(ctx context.Context, row model.Guarantee) (*model.Guarantee, error) {
	var saved model.Guarantee
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO guarantees (contract_id, number, type, issue_date, valid_from, valid_to, value, issuer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, contract_id, number, type, issue_date, valid_from, valid_to, value, issuer
	`,
		row.ContractID,
		row.Number,
		row.Type,
		row.IssueDate,
		row.ValidFrom,
		row.ValidTo,
		row.Value,
		row.Issuer,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ScheduleRepository) DeleteGuarantee(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM guarantees WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
