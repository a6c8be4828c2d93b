package auth

import (
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.UserRole
	Anonymous bool
	// JTI doubles as the refresh session key; generated when empty.
	JTI string
}

// AccessTokenClaims is the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID      `json:"user_id"`
	Role      enums.UserRole `json:"role"`
	Anonymous bool           `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants the admin surface.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.UserRoleAdmin
}
