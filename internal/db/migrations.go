package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'duration_unit') THEN
			CREATE TYPE duration_unit AS ENUM ('day', 'week', 'month', 'year');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS account_codes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(64) NOT NULL,
		name TEXT NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_account_codes_code ON account_codes (code);`,
	`CREATE TABLE IF NOT EXISTS allocations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		account_code_id UUID NOT NULL REFERENCES account_codes(id),
		activity_id UUID NOT NULL,
		budget_year INT NOT NULL,
		ceiling BIGINT NOT NULL CHECK (ceiling >= 0)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_allocations_scope
		ON allocations (account_code_id, activity_id, budget_year);`,
	`CREATE TABLE IF NOT EXISTS work_packages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		allocation_id UUID NOT NULL REFERENCES allocations(id),
		description TEXT NOT NULL,
		volume NUMERIC(18,3) NOT NULL,
		unit VARCHAR(32) NOT NULL DEFAULT '',
		unit_price BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		budget_year INT NOT NULL,
		org_unit_id UUID NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_packages_allocation_id ON work_packages (allocation_id);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		work_package_id UUID NOT NULL REFERENCES work_packages(id),
		account_code_id UUID NOT NULL REFERENCES account_codes(id),
		contract_number VARCHAR(128) NOT NULL,
		contract_date DATE NOT NULL,
		work_order_number VARCHAR(128) NOT NULL,
		work_order_date DATE NOT NULL,
		duration_value INT NOT NULL,
		duration_unit duration_unit NOT NULL,
		provider TEXT NOT NULL,
		procurement_method VARCHAR(64) NOT NULL,
		value BIGINT NOT NULL,
		estimated_price BIGINT NOT NULL,
		execution_start DATE NOT NULL,
		execution_end DATE NOT NULL,
		location TEXT NOT NULL,
		budget_year INT NOT NULL,
		org_unit_id UUID NOT NULL,
		created_by_user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_number ON contracts (LOWER(TRIM(contract_number)));`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_work_package_id ON contracts (work_package_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_account_code_id ON contracts (account_code_id);`,
	`CREATE TABLE IF NOT EXISTS progress_targets (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		target_date DATE NOT NULL,
		physical_percent NUMERIC(5,2) NOT NULL,
		financial_percent NUMERIC(5,2) NOT NULL,
		financial_amount BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_progress_targets_contract_id ON progress_targets (contract_id);`,
	`CREATE TABLE IF NOT EXISTS installments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		label VARCHAR(64) NOT NULL,
		percent_share NUMERIC(5,2) NOT NULL,
		amount BIGINT NOT NULL,
		progress_percent NUMERIC(5,2) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_installments_contract_id ON installments (contract_id);`,
	`CREATE TABLE IF NOT EXISTS guarantees (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		number VARCHAR(128) NOT NULL,
		type VARCHAR(64) NOT NULL,
		issue_date DATE NOT NULL,
		valid_from DATE NOT NULL,
		valid_to DATE NOT NULL,
		value BIGINT NOT NULL,
		issuer TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_guarantees_contract_id ON guarantees (contract_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
