package reservation

import (
	"github.com/laiahq/platform/internal/reservation/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("reservation",
	fx.Provide(repository.Provide),
)
