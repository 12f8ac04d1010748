package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/httpapi"
)

// UserResolver turns a bearer token into the user it belongs to.
type UserResolver interface {
	UserFromToken(ctx context.Context, token string) (user.User, error)
}

// Authorize resolves the Authorization header into a user and attaches
// it to the request context. Requests without a valid token pass
// through unauthenticated; RequireAuthorization rejects them later.
func Authorize(resolver UserResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			u, err := resolver.UserFromToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := composables.WithUser(r.Context(), u)
			if params, ok := composables.UseParams(ctx); ok {
				params.Authenticated = true
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthorization rejects requests that did not resolve to a user.
func RequireAuthorization() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
