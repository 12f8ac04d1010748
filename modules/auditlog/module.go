package auditlog

import (
	"embed"

	"github.com/iota-uz/pims/modules/auditlog/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/auditlog/presentation/controllers"
	"github.com/iota-uz/pims/modules/auditlog/services"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(migrationFiles, "infrastructure/persistence/schema")

	svc := services.NewAuditLogService(
		persistence.NewRecordRepository(),
		app.DB(),
		configuration.Use().Logger(),
	)
	svc.Register(app.EventPublisher())

	app.RegisterServices(svc)
	app.RegisterControllers(
		controllers.NewAuditLogController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "auditlog"
}
