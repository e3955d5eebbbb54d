package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/identity"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the verified caller
	IdentityKey contextKey = "identity"
)

// AccountLookup resolves the stored account behind a verified identity.
type AccountLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			id, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, identity.ErrTokenExpired) {
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
					return
				}
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuthMiddleware attaches the identity when a valid token is present
// and lets the request through anonymously otherwise.
func OptionalAuthMiddleware(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := bearerToken(r); tokenString != "" {
				if id, err := verifier.Verify(r.Context(), tokenString); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin lets through only callers whose stored account has the admin
// role. It must run after AuthMiddleware.
func RequireAdmin(accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentityFromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "Authentication required")
				return
			}

			account, err := accounts.GetByEmail(r.Context(), id.Email)
			if err != nil {
				if errors.Is(err, model.ErrAccountNotFound) {
					httputil.WriteForbidden(w, "Admin access required")
					return
				}
				httputil.WriteInternalError(w, "Failed to verify role")
				return
			}
			if !account.IsAdmin() {
				httputil.WriteForbidden(w, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores id in ctx with its email normalized.
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	normalized := *id
	normalized.Email = model.NormalizeEmail(id.Email)
	return context.WithValue(ctx, IdentityKey, &normalized)
}

// GetIdentityFromContext extracts the verified caller from the request context
func GetIdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*identity.Identity)
	return id, ok && id != nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
