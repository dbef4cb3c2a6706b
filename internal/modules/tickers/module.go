package tickers

import (
	"webhook_bot/internal/modules/config"
	"webhook_bot/internal/modules/tickers/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("tickers",
		fx.Provide(func(cfg *config.Config) *service.Store {
			return service.NewStore(cfg.Tickers.Path)
		}),
	)
}
