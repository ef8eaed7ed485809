package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mediahub/catalog/internal/auth"
	"github.com/mediahub/catalog/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	ID string
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.ID != ""
}

// RequireAuth returns middleware that validates a Bearer JWT and injects
// the principal into the request context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, r, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, r, "invalid authorization header format")
				return
			}

			sub, err := auth.ParseToken(jwtSecret, parts[1])
			if err != nil {
				response.Unauthorized(w, r, "invalid or expired token")
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{ID: sub})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
