package application

import (
	"context"
	"io/fs"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/pims/pkg/eventbus"
)

// Controller is a unit of HTTP surface registered by a module.
// Key must be stable and unique; registering the same key twice
// replaces the previous controller.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module wires its domain into the application: services, controllers,
// middleware and schema migrations.
type Module interface {
	Name() string
	Register(app Application) error
}

type SeedFunc func(ctx context.Context, app Application) error

// Seeder runs one-off data seeding functions against a bootstrapped app.
type Seeder interface {
	Seed(ctx context.Context, app Application) error
	Register(seedFuncs ...SeedFunc)
}

// MigrationManager applies the SQL schema shipped by registered modules.
// Dir is the path of the migration files inside the embedded filesystem.
type MigrationManager interface {
	RegisterSchema(fsys fs.FS, dir string)
	Run(ctx context.Context) error
}

type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Migrations() MigrationManager

	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})

	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}
