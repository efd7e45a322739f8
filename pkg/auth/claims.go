// Package auth provides bearer-JWT authentication for staff endpoints.
// Connector-facing endpoints never use it - connectors act through a
// recommendation-link token instead of a login.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing validated staff claims.
const ClaimsKey contextKey = "claims"

// Claims are the JWT claims carried by staff tokens. RegisteredClaims covers
// the standard fields (sub, iss, exp); email and roles are the custom ones
// the engine cares about.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// GetClaims retrieves staff claims from the request context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}
