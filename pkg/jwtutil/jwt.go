package jwtutil

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/config"
)

var signingKey []byte

// Roles a principal can hold within a tenant
const (
	RoleAdmin  = "admin"
	RoleOps    = "ops"
	RoleViewer = "viewer"
)

// UserClaims represents the JWT claims supplied by the identity provider.
// The service performs no authentication itself; it trusts the validated
// claims and enforces tenant scoping from them.
type UserClaims struct {
	Email      string `json:"email"`
	UserID     uint   `json:"user_id"`
	TenantID   *uint  `json:"tenant_id,omitempty"`
	TenantName string `json:"tenant_name,omitempty"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Initialize stores the signing key from configuration
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// CanMutate reports whether a role may create or review transactions
func CanMutate(role string) bool {
	return role == RoleAdmin || role == RoleOps
}
