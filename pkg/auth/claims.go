package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/journeyos/backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	Email         string
	Role          enums.UserRole
	InstitutionID *uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID        uuid.UUID      `json:"user_id"`
	Email         string         `json:"email"`
	Role          enums.UserRole `json:"role"`
	InstitutionID *uuid.UUID     `json:"institution_id,omitempty"`
	jwt.RegisteredClaims
}
