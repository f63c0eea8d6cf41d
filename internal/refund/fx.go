package refund

import (
	"github.com/laiahq/platform/internal/refund/repository"
	"github.com/laiahq/platform/internal/refund/service"
	"go.uber.org/fx"
)

var Module = fx.Module("refund",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
