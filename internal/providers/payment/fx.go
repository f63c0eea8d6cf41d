package payment

import (
	"github.com/laiahq/platform/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.payment",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Processor {
	if cfg.StripeSecretKey == "" {
		log.Warn("no stripe secret key configured, refunds will use the mock processor")
		return NewMock()
	}
	return NewStripe(cfg.StripeSecretKey, log)
}
