package docstore

import (
	"github.com/laiahq/platform/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("docstore",
	fx.Provide(func(cfg config.Config) (Store, error) {
		return NewFS(cfg.DocumentRoot)
	}),
)
