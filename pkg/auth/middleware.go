package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authentication errors returned while extracting a staff token.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// Middleware protects staff endpoints with bearer-JWT authentication.
type Middleware struct {
	verifier Verifier
	logger   *zap.Logger
}

// NewMiddleware creates auth middleware around the given verifier.
func NewMiddleware(verifier Verifier, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		logger:   logger.Named("auth"),
	}
}

// RequireStaff validates the bearer token and puts the claims in context.
func (m *Middleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			m.logger.Debug("no staff token in request",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.unauthorized(w)
			return
		}

		claims, err := m.verifier.ValidateToken(tokenString)
		if err != nil {
			m.logger.Debug("staff token validation failed",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthFormat
	}
	return parts[1], nil
}

func (m *Middleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": "Authentication required",
	})
}
