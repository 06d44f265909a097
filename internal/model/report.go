package model

import "time"

// RealizationRow is one account code line in the budget realization report:
// the allocation ceiling against everything committed below it.
type RealizationRow struct {
	Account      AccountCode
	Ceiling      int64
	WorkPackages int64
	Committed    int64
	Remaining    int64
	Contracts    []Contract
}

// RealizationReport is the budget realization recap for one organizational
// unit and budget year.
type RealizationReport struct {
	OrgUnitName string
	BudgetYear  int
	GeneratedAt time.Time
	Rows        []RealizationRow
}

// ContractDocument bundles everything printed on a contract summary sheet.
type ContractDocument struct {
	Contract     Contract
	WorkPackage  WorkPackage
	Account      AccountCode
	Balance      Balance
	Targets      []ProgressTarget
	Installments []Installment
	Guarantees   []Guarantee
}
