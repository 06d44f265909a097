package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bpkad/budget-exec/internal/model"
)

// Parser validates HMAC-signed access tokens and extracts the operator
// principal carried in the claims.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type accessClaims struct {
	UserID     string `json:"user_id"`
	OrgUnitID  string `json:"org_unit_id"`
	Role       string `json:"role"`
	BudgetYear int    `json:"budget_year"`
	jwt.RegisteredClaims
}

func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}
	if !token.Valid {
		return model.Principal{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	orgUnitID, err := uuid.Parse(claims.OrgUnitID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid org_unit_id claim: %w", err)
	}

	return model.Principal{
		UserID:     userID,
		OrgUnitID:  orgUnitID,
		Role:       claims.Role,
		BudgetYear: claims.BudgetYear,
	}, nil
}
