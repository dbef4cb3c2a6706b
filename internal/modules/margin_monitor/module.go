package margin_monitor

import (
	"context"
	"webhook_bot/internal/modules/config"
	"webhook_bot/internal/modules/margin_monitor/service"
	tickersvc "webhook_bot/internal/modules/tickers/service"
	"webhook_bot/internal/notify"
	"webhook_bot/pkg/logger"

	"go.uber.org/fx"
)

func newMonitor(cfg *config.Config, tickers *tickersvc.Store, n notify.Notifier) *service.Monitor {
	mc := cfg.MarginMonitor
	return service.New(
		service.NewFeed(mc.FeedURL, 0),
		tickers,
		n,
		service.Config{
			Interval:     mc.Interval,
			StepPercent:  mc.StepPercent,
			StatsHour:    mc.StatsHour,
			BaselinePath: mc.BaselinePath,
			InlineLimit:  mc.InlineLimit,
		},
	)
}

// Module регистрируется первым из фоновых циклов, значит останавливается последним.
func Module() fx.Option {
	return fx.Module("margin_monitor",
		fx.Provide(newMonitor),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, m *service.Monitor) {
			if !cfg.MarginMonitor.Enabled {
				logger.Info("margin monitor disabled")
				return
			}
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						m.Run(ctx)
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
