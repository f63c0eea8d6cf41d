package auth

import (
	"github.com/laiahq/platform/internal/auth/repository"
	"github.com/laiahq/platform/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
