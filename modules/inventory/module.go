package inventory

import (
	"embed"

	corepersistence "github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/inventory/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/inventory/presentation/controllers"
	"github.com/iota-uz/pims/modules/inventory/services"
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

	propertyRepo := persistence.NewPropertyRepository()
	assignmentRepo := persistence.NewAssignmentRepository()
	userRepo := corepersistence.NewUserRepository()

	app.RegisterServices(
		services.NewPropertyService(propertyRepo, assignmentRepo, app.EventPublisher()),
		services.NewAssignmentService(assignmentRepo, userRepo, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewPropertiesController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "inventory"
}
