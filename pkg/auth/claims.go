package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   string
	Role     enums.Role
	Category string
}

// AccessTokenClaims represents the typed JWT issued to clients. Identity is
// owned by the external provider; the core only trusts user id, role, and
// category as given per call.
type AccessTokenClaims struct {
	UserID   string     `json:"user_id"`
	Role     enums.Role `json:"role"`
	Category string     `json:"category,omitempty"`
	jwt.RegisteredClaims
}
