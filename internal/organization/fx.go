package organization

import (
	"github.com/laiahq/platform/internal/organization/repository"
	"github.com/laiahq/platform/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
