package invoice

import (
	"github.com/laiahq/platform/internal/invoice/repository"
	"github.com/laiahq/platform/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
