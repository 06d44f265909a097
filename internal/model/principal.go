package model

import "github.com/google/uuid"

// Principal identifies the authenticated operator. Every operator acts on
// behalf of exactly one organizational unit within one budget year.
type Principal struct {
	UserID     uuid.UUID
	OrgUnitID  uuid.UUID
	Role       string
	BudgetYear int
}

const (
	RoleOperator = "OPERATOR"
	RoleAdmin    = "ADMIN"
)

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may touch entities of the given
// organizational unit. Entities are never shared across units.
func (p Principal) CanAccess(orgUnitID uuid.UUID) bool {
	return p.IsAdmin() || p.OrgUnitID == orgUnitID
}
