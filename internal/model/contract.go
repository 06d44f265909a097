package model

import (
	"time"

	"github.com/google/uuid"
)

type DurationUnit string

const (
	DurationDay   DurationUnit = "day"
	DurationWeek  DurationUnit = "week"
	DurationMonth DurationUnit = "month"
	DurationYear  DurationUnit = "year"
)

func ParseDurationUnit(raw string) (DurationUnit, bool) {
	switch DurationUnit(raw) {
	case DurationDay, DurationWeek, DurationMonth, DurationYear:
		return DurationUnit(raw), true
	default:
		return "", false
	}
}

// Contract is a procurement commitment against a work package. ContractNumber
// is globally unique, case-insensitive. ExecutionEnd is derived from
// ExecutionStart plus the duration but stays independently editable
// afterwards (manual override for holidays).
type Contract struct {
	ID                uuid.UUID    `json:"id"`
	WorkPackageID     uuid.UUID    `json:"workPackageId"`
	AccountCodeID     uuid.UUID    `json:"accountCodeId"`
	ContractNumber    string       `json:"contractNumber"`
	ContractDate      time.Time    `json:"contractDate"`
	WorkOrderNumber   string       `json:"workOrderNumber"` // SPMK number
	WorkOrderDate     time.Time    `json:"workOrderDate"`
	DurationValue     int          `json:"durationValue"`
	DurationUnit      DurationUnit `json:"durationUnit"`
	Provider          string       `json:"provider"`
	ProcurementMethod string       `json:"procurementMethod"`
	Value             int64        `json:"value"`
	EstimatedPrice    int64        `json:"estimatedPrice"` // HPS
	ExecutionStart    time.Time    `json:"executionStart"`
	ExecutionEnd      time.Time    `json:"executionEnd"`
	Location          string       `json:"location"`
	BudgetYear        int          `json:"budgetYear"`
	OrgUnitID         uuid.UUID    `json:"organizationalUnitId"`
	CreatedByUserID   uuid.UUID    `json:"createdByUserId"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// DeriveExecutionEnd adds the contract duration to a start date.
func DeriveExecutionEnd(start time.Time, value int, unit DurationUnit) time.Time {
	switch unit {
	case DurationDay:
		return start.AddDate(0, 0, value)
	case DurationWeek:
		return start.AddDate(0, 0, 7*value)
	case DurationMonth:
		return start.AddDate(0, value, 0)
	case DurationYear:
		return start.AddDate(value, 0, 0)
	default:
		return start
	}
}
