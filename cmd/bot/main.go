package main

import (
	"context"
	"webhook_bot/internal/modules/broker"
	"webhook_bot/internal/modules/catalog"
	"webhook_bot/internal/modules/config"
	"webhook_bot/internal/modules/health"
	"webhook_bot/internal/modules/journal"
	"webhook_bot/internal/modules/margin_monitor"
	"webhook_bot/internal/modules/tickers"
	"webhook_bot/internal/modules/webhook"
	"webhook_bot/pkg/logger"
	"webhook_bot/pkg/tracing"

	telegram "webhook_bot/internal/modules/telegram_bot"

	"webhook_bot/internal/runner"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const serviceName = "webhook_bot"

func main() {
	app := fx.New(
		config.Module(),
		// логгер поднимается из конфига до остальных модулей
		fx.WithLogger(func(cfg *config.Config) (fxevent.Logger, error) {
			if err := logger.Init(cfg.Log.Level, serviceName); err != nil {
				return nil, err
			}
			return &fxevent.ZapLogger{Logger: logger.Zap().WithOptions(zap.IncreaseLevel(zap.WarnLevel))}, nil
		}),
		observabilityModule(logger.Sync),
		telegram.Module(),
		health.Module(),
		broker.Module(),
		tickers.Module(),
		journal.Module(),
		margin_monitor.Module(),
		catalog.Module(),
		runner.Module(),
		webhook.Module(),
	)
	app.Run()
}

// observabilityModule стоит первым среди модулей: его OnStop выполняется
// последним, после того как потребитель доделал текущий сигнал.
func observabilityModule(flush ...func()) fx.Option {
	return fx.Module("observability",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			tracing.SetServiceName(serviceName)
			_, closeTracer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{OnStop: func(context.Context) error {
				closeTracer()
				for _, f := range flush {
					f()
				}
				return nil
			}})
			return nil
		}),
	)
}
