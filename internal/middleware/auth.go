// Package middleware guards the dashboard API: every protected request must
// carry an operator access token, and destructive routes additionally need
// the OWNER role.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/legphel-eats/fnb-dashboard/internal/auth"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
)

type contextKey string

const claimsKey contextKey = "operator_claims"

var (
	errNoToken        = errors.New("operator access token required")
	errMalformedToken = errors.New("authorization header must be \"Bearer <token>\"")
)

// DashboardRoles may read and edit bills. Deletes are limited to OWNER.
var DashboardRoles = []string{enum.RoleOwner, enum.RoleManager}

// Authenticate resolves the operator behind the bearer token and stores the
// claims in the request context. Refresh tokens are rejected.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				slog.Debug("Rejected operator token", "path", r.URL.Path, "error", err)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "operator session expired or invalid"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole admits operators whose role is one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errNoToken.Error()})
				return
			}
			if slices.Contains(allowed, claims.Role) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("Operator role refused", "email", claims.Email, "role", claims.Role, "path", r.URL.Path)
			writeJSON(w, http.StatusForbidden, roleError{
				Error:    "role " + claims.Role + " may not perform this action",
				Required: allowed,
			})
		})
	}
}

// RequireOwner admits OWNER operators only.
func RequireOwner(next http.Handler) http.Handler {
	return RequireRole(enum.RoleOwner)(next)
}

type roleError struct {
	Error    string   `json:"error"`
	Required []string `json:"required_roles"`
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedToken
	}
	return strings.TrimSpace(token), nil
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the authenticated operator, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
