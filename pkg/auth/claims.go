package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/pkg/types"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	Email      string
	Role       types.ActorRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Email      string          `json:"email"`
	Role       types.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the request principal.
func (c *AccessTokenClaims) Actor() types.Actor {
	return types.Actor{
		CustomerID: c.CustomerID,
		Email:      c.Email,
		Role:       c.Role,
	}
}
