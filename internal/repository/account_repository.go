package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bpkad/budget-exec/internal/model"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// ListByIDs bulk-fetches account codes. Ids not present in the table are
// simply absent from the result; the resolver decides how to represent them.
func (r *AccountRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.AccountCode, error) {
	if len(ids) == 0 {
		return []model.AccountCode{}, nil
	}

	var accounts []model.AccountCode
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name
		FROM account_codes
		WHERE id = ANY(?)
		ORDER BY code ASC
	`, ids).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AccountCode, error) {
	var account model.AccountCode
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name
		FROM account_codes
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &account, nil
}
