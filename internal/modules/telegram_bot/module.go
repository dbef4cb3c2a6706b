package telegram

import (
	"context"
	"webhook_bot/internal/modules/config"
	"webhook_bot/internal/notify"
	"webhook_bot/pkg/logger"

	"go.uber.org/fx"
)

// newNotifier: без TELEGRAM_TOKEN / TELEGRAM_CHAT_ID пишем в лог.
func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Secrets.TelegramToken != "" && cfg.Secrets.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Secrets.TelegramToken, cfg.Secrets.TelegramChatID)
		if err == nil {
			return tg
		}
		logger.Error("telegram init failed, falling back to stdout: %v", err)
	}
	return notify.NewStdout()
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(newNotifier),
		fx.Invoke(func(lc fx.Lifecycle, n notify.Notifier) {
			tg, ok := n.(*notify.Telegram)
			if !ok {
				return
			}
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					tg.Start(ctx)
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					tg.Stop(stopCtx)
					return nil
				},
			})
		}),
	)
}
