package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("invalid input")

	// ErrIncompleteTerminal rejects a progress entry claiming 100% on
	// exactly one of physical/financial completion.
	ErrIncompleteTerminal = errors.New("a terminal entry must reach 100% on both physical and financial progress")

	ErrWorkPackageInUse = errors.New("work package still has contracts attached")
	ErrContractInUse    = errors.New("contract still has schedule entries attached")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// AllocationExceededError reports a commitment that would push the account
// code past its allocation ceiling. Shortfall is the exact overage shown to
// the operator; Remaining is the ceiling that was still available.
type AllocationExceededError struct {
	Shortfall int64
	Remaining int64
}

func (e *AllocationExceededError) Error() string {
	return fmt.Sprintf("allocation exceeded by %d (remaining %d)", e.Shortfall, e.Remaining)
}

// DateRangeError reports a date violating an ordering rule relative to the
// contract's execution window. Detail spells out the rule that failed.
type DateRangeError struct {
	Field  string
	Date   time.Time
	Detail string
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("%s %s %s", e.Field, e.Date.Format("2006-01-02"), e.Detail)
}

// DuplicateKeyError reports a unique-key collision, currently only contract
// numbers.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q", e.Key)
}
