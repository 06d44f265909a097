package model

import (
	"time"

	"github.com/google/uuid"
)

// ProgressTarget is a dated checkpoint of expected physical/financial
// completion for a contract. Dates must fall inside the contract's
// execution window. If either percent reaches 100 in one entry, both must.
type ProgressTarget struct {
	ID               uuid.UUID `json:"id"`
	ContractID       uuid.UUID `json:"contractId"`
	Date             time.Time `json:"date"`
	PhysicalPercent  float64   `json:"physicalPercent"`
	FinancialPercent float64   `json:"financialPercent"`
	FinancialAmount  int64     `json:"financialAmount"`
}

// Installment ("Termin") is one payment tranche partitioning a contract's
// value and completion progress. Saved as a full set per contract.
type Installment struct {
	ID              uuid.UUID `json:"id"`
	ContractID      uuid.UUID `json:"contractId"`
	Label           string    `json:"label"`
	PercentShare    float64   `json:"percentShare"`
	Amount          int64     `json:"amount"`
	ProgressPercent float64   `json:"progressPercent"`
}

// Guarantee ("Jaminan") is a bond instrument securing contract performance.
// Its validity range must span the whole execution window and it must be
// issued before work begins.
type Guarantee struct {
	ID         uuid.UUID `json:"id"`
	ContractID uuid.UUID `json:"contractId"`
	Number     string    `json:"number"`
	Type       string    `json:"type"`
	IssueDate  time.Time `json:"issueDate"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidTo    time.Time `json:"validTo"`
	Value      int64     `json:"value"`
	Issuer     string    `json:"issuer"`
}
