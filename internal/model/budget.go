package model

import "github.com/google/uuid"

// Scope pins every budget entity to one activity within one budget year.
type Scope struct {
	ActivityID uuid.UUID
	BudgetYear int
}

// Allocation is a ceiling amount assigned to one account code within a
// scope. Allocations are created upstream by budget planning and are
// read-only here.
type Allocation struct {
	ID            uuid.UUID `json:"id"`
	AccountCodeID uuid.UUID `json:"accountCodeId"`
	ActivityID    uuid.UUID `json:"activityId"`
	BudgetYear    int       `json:"budgetYear"`
	Ceiling       int64     `json:"ceilingAmount"`
}

// WorkPackage is a priced line item (volume × unit price) drawn against an
// allocation, preceding contract formation. For one allocation the sum of
// work package amounts must not exceed the allocation ceiling.
type WorkPackage struct {
	ID           uuid.UUID `json:"id"`
	AllocationID uuid.UUID `json:"allocationId"`
	Description  string    `json:"description"`
	Volume       float64   `json:"volume"`
	Unit         string    `json:"unit"`
	UnitPrice    int64     `json:"unitPrice"`
	Amount       int64     `json:"amount"`
	BudgetYear   int       `json:"budgetYear"`
	OrgUnitID    uuid.UUID `json:"organizationalUnitId"`
}

// Balance is a ledger snapshot for one account code within a scope.
// It is recomputed from the live sibling set on every query; nothing
// persists a running total.
type Balance struct {
	Ceiling   int64 `json:"ceiling"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}
