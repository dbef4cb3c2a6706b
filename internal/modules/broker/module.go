package broker

import (
	"context"
	"fmt"
	"time"
	"webhook_bot/internal/modules/broker/service"
	"webhook_bot/internal/modules/config"
	"webhook_bot/pkg/logger"

	"go.uber.org/fx"
)

// newClient: счёт ищется один раз при старте, без него не запускаемся.
func newClient(cfg *config.Config) (*service.Client, error) {
	c := service.NewClient(service.Config{
		BaseURL:      cfg.Broker.BaseURL,
		Token:        cfg.Secrets.TinkoffToken,
		Timeout:      cfg.Broker.Timeout,
		RateLimitRPS: cfg.Broker.RateLimitRPS,
		RateBurst:    cfg.Broker.RateBurst,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.ResolveAccount(ctx, cfg.Broker.AccountName); err != nil {
		return nil, fmt.Errorf("resolve broker account: %w", err)
	}
	logger.Info("broker account %q resolved: %s", cfg.Broker.AccountName, c.AccountID())
	return c, nil
}

func Module() fx.Option {
	return fx.Module("broker",
		fx.Provide(newClient),
	)
}
