package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/constants"
)

// Provide returns a middleware that attaches a value to the request context.
func Provide(key constants.ContextKey, value any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestParams attaches request metadata used by downstream handlers.
func RequestParams() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			params := &composables.Params{
				IP:        getRealIP(r, conf),
				UserAgent: r.UserAgent(),
				Request:   r,
				Writer:    w,
			}
			ctx := composables.WithParams(r.Context(), params)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Cors returns a CORS middleware for the given allowed origins.
func Cors(allowedOrigins []string) mux.MiddlewareFunc {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler
}

// RateLimit enforces a request rate per client IP backed by an in-memory store.
func RateLimit(rate limiter.Rate) mux.MiddlewareFunc {
	store := memory.NewStore()
	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(true))
	middleware := mhttp.NewMiddleware(instance)
	return func(next http.Handler) http.Handler {
		return middleware.Handler(next)
	}
}
