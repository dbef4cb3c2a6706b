package catalog

import (
	"context"
	brokersvc "webhook_bot/internal/modules/broker/service"
	"webhook_bot/internal/modules/catalog/service"
	"webhook_bot/internal/modules/config"
	healthsvc "webhook_bot/internal/modules/health/service"
	"webhook_bot/internal/notify"

	"go.uber.org/fx"
)

func newCatalog(cfg *config.Config, client *brokersvc.Client, n notify.Notifier, state *healthsvc.State) *service.Catalog {
	return service.New(client, n, cfg.Catalog.RefreshInterval, state.CatalogLoaded)
}

// Module: фоновое обновление живёт от OnStart до OnStop.
func Module() fx.Option {
	return fx.Module("catalog",
		fx.Provide(newCatalog),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Catalog) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						c.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
						return nil
					case <-stopCtx.Done():
						return stopCtx.Err()
					}
				},
			})
		}),
	)
}
