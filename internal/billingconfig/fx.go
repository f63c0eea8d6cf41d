package billingconfig

import (
	"github.com/laiahq/platform/internal/billingconfig/repository"
	"github.com/laiahq/platform/internal/billingconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
