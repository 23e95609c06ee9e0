package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/lp2808/retail-pos/internal/auth"
	"github.com/lp2808/retail-pos/internal/core/domain"
)

type contextKey string

const claimsKey contextKey = "claims"

// Middleware authenticates requests and enforces role privileges.
type Middleware struct {
	tokens *auth.TokenService
}

func NewMiddleware(tokens *auth.TokenService) *Middleware {
	return &Middleware{tokens: tokens}
}

// Authenticate validates the bearer token and stores its claims on the
// request context.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, codeBadRequest, "missing bearer token", nil)
			return
		}

		claims, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeBadRequest, "invalid or expired token", nil)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// RequireRole rejects callers whose role does not contain the required
// privilege bits.
func (m *Middleware) RequireRole(required domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, codeBadRequest, "missing bearer token", nil)
			return
		}

		role, err := domain.ParseRole(claims.Role)
		if err != nil || !role.HasPrivilege(required) {
			writeError(w, http.StatusForbidden, codeBadRequest, "insufficient privileges", nil)
			return
		}

		next(w, r)
	}
}

// ClaimsFrom returns the authenticated caller's claims, or nil when the
// request did not pass Authenticate.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
