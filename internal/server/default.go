package server

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/pims/modules/core/services"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/constants"
	"github.com/iota-uz/pims/pkg/httpapi"
	"github.com/iota-uz/pims/pkg/metrics"
	"github.com/iota-uz/pims/pkg/middleware"
	"github.com/iota-uz/pims/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the middleware stack shared by every API route.
// The auth service must already be registered on the application.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	authService := app.Service(services.AuthService{}).(*services.AuthService)

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.Cors(conf.AllowedOrigins),
	}

	if conf.Prometheus.Enabled {
		middlewares = append(middlewares, metrics.RequestMetrics())
	}

	if conf.RateLimit.Enabled {
		middlewares = append(middlewares, middleware.RateLimit(limiter.Rate{
			Period: time.Second,
			Limit:  int64(conf.RateLimit.GlobalRPS),
		}))
	}

	middlewares = append(middlewares,
		middleware.RequestParams(),
		middleware.Authorize(authService),
	)

	app.RegisterMiddleware(middlewares...)

	serverInstance := server.NewHTTPServer(
		app,
		httpapi.NotFoundHandler(),
		httpapi.MethodNotAllowedHandler(),
	)
	return serverInstance, nil
}
