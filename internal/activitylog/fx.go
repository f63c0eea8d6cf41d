package activitylog

import (
	"github.com/laiahq/platform/internal/activitylog/repository"
	"github.com/laiahq/platform/internal/activitylog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activitylog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
