package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "sessionIdentity"

// Identity is the authenticated caller extracted from a session token.
type Identity struct {
	AccountID string
	Role      string
	Token     string
}

// TokenValidator checks a bearer token and returns the caller's identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (accountID, role string, err error)
}

// SessionAuth enforces a valid session token on every request in the group.
func SessionAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			accountID, role, err := validator.ValidateToken(r.Context(), tokenString)
			if err != nil {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}
			identity := Identity{AccountID: accountID, Role: role, Token: tokenString}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated identity if present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok && identity.AccountID != ""
}

// WithIdentity stores an identity in context. Exposed for handler tests.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
