package devicehub

import (
	"embed"

	"github.com/iota-uz/pims/modules/devicehub/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/devicehub/presentation/controllers"
	"github.com/iota-uz/pims/modules/devicehub/services"
	invpersistence "github.com/iota-uz/pims/modules/inventory/infrastructure/persistence"
	"github.com/iota-uz/pims/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewJobService(
			persistence.NewJobRepository(),
			invpersistence.NewPropertyRepository(),
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewJobsController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "devicehub"
}
