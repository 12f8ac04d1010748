package modules

import (
	"github.com/iota-uz/pims/modules/auditlog"
	"github.com/iota-uz/pims/modules/core"
	"github.com/iota-uz/pims/modules/devicehub"
	"github.com/iota-uz/pims/modules/inventory"
	"github.com/iota-uz/pims/pkg/application"
)

// BuiltInModules is ordered: core owns the users every other module
// references, auditlog subscribes last so it sees all event types.
var BuiltInModules = []application.Module{
	core.NewModule(),
	inventory.NewModule(),
	devicehub.NewModule(),
	auditlog.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
