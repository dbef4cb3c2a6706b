package runner

import (
	"context"
	"fmt"
	brokersvc "webhook_bot/internal/modules/broker/service"
	catalogsvc "webhook_bot/internal/modules/catalog/service"
	"webhook_bot/internal/modules/config"
	healthsvc "webhook_bot/internal/modules/health/service"
	journalsvc "webhook_bot/internal/modules/journal/service"
	tickersvc "webhook_bot/internal/modules/tickers/service"
	"webhook_bot/internal/notify"
	"webhook_bot/internal/runner/admission"
	"webhook_bot/internal/runner/blackout"
	"webhook_bot/internal/runner/verify"

	"go.uber.org/fx"
)

func newProcessor(cfg *config.Config, client *brokersvc.Client, catalog *catalogsvc.Catalog, tickers *tickersvc.Store) *Processor {
	return NewProcessor(
		client,
		catalog,
		tickers,
		admission.New(client, cfg.Executor.MinMoneyCoefficient),
		verify.New(client, cfg.Executor.MaxVerifyAttempts, cfg.Executor.VerifyDelay),
		cfg.Broker.Currency,
		brokersvc.NewOrderID,
	)
}

func newRunner(cfg *config.Config, p *Processor, n notify.Notifier, j journalsvc.Journal, state *healthsvc.State) (*Runner, error) {
	windows, err := blackout.ParseAll(cfg.Executor.BlackoutWindows)
	if err != nil {
		return nil, fmt.Errorf("blackout windows: %w", err)
	}
	return New(p, n, j, state, windows, cfg.Executor.QueueSize), nil
}

// Module: потребитель очереди останавливается до каталога и монитора маржи.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newProcessor,
			newRunner,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner, n notify.Notifier, catalog *catalogsvc.Catalog, state *healthsvc.State) {
			if tg, ok := n.(*notify.Telegram); ok {
				tg.SetStatus(func(context.Context) string {
					return r.Status(catalog.Len(), state.Deferred(), state.Uptime())
				})
			}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						r.Run(ctx)
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
