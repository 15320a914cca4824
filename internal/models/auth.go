package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role allowed to purge attempts or change policy
const RoleAdmin = "admin"

// TokenClaims are the claims carried by operator bearer tokens.
// The operator name travels in the registered "sub" claim.
type TokenClaims struct {
	Type string `json:"type"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}
