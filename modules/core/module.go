package core

import (
	"embed"

	"github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/core/presentation/controllers"
	"github.com/iota-uz/pims/modules/core/services"
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

	userRepo := persistence.NewUserRepository()
	app.RegisterServices(
		services.NewAuthService(userRepo),
		services.NewUserService(userRepo),
	)

	app.RegisterControllers(
		controllers.NewAuthController(app),
		controllers.NewUsersController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "core"
}
