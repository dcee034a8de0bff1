// Package middleware authenticates storefront API requests.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/auth"
)

const BlockedMessage = "You were blocked by admin."

type claimsKey struct{}

// UserLookup resolves the account a token was issued for.
type UserLookup func(ctx context.Context, userID string) (auth.User, bool)

// Guard admits requests whose bearer token is valid and whose account still
// exists and is not blocked. Blocking an account therefore revokes every
// token issued to it.
type Guard struct {
	jwt    *auth.JWTService
	lookup UserLookup
}

func NewGuard(jwt *auth.JWTService, lookup UserLookup) *Guard {
	return &Guard{jwt: jwt, lookup: lookup}
}

// Authenticated wraps next with the token and account checks.
func (g *Guard) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		claims, err := g.jwt.Verify(token)
		if err != nil {
			respondError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		u, found := g.lookup(r.Context(), claims.UserID)
		switch {
		case !found:
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return
		case u.Blocked:
			respondError(w, BlockedMessage, http.StatusForbidden)
			return
		}
		// The stored role wins over the one in the token.
		claims.Role = u.Role

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Admin is Authenticated plus an admin role check.
func (g *Guard) Admin(next http.Handler) http.Handler {
	return g.Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			respondError(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// UserID is the authenticated user, or "" outside the guard.
func UserID(ctx context.Context) string {
	if claims, ok := ClaimsFrom(ctx); ok {
		return claims.UserID
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	claims, ok := ClaimsFrom(ctx)
	return ok && claims.Role == auth.RoleAdmin
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
