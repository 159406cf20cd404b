package token

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Subject carries the user id. Multi-tenant invariant: TenantID must be
// present on every token; downstream data access is scoped by it.
// FamilyID and Sequence are set on refresh tokens only.
type Claims struct {
	jwt.RegisteredClaims

	TenantID  string    `json:"tenant_id"`
	Roles     []string  `json:"roles,omitempty"`
	TokenType TokenType `json:"token_type"`
	FamilyID  string    `json:"family_id,omitempty"`
	Sequence  int64     `json:"seq,omitempty"`
}
