package journal

import (
	"context"
	"fmt"
	"time"
	"webhook_bot/internal/modules/config"
	"webhook_bot/internal/modules/journal/service"
	"webhook_bot/pkg/db"
	"webhook_bot/pkg/logger"

	"go.uber.org/fx"
)

func newJournal(lc fx.Lifecycle, cfg *config.Config) (service.Journal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		j   service.Journal
		err error
	)
	switch cfg.Journal.Driver {
	case "postgres":
		j, err = openPostgres(ctx, cfg.Journal.DSN)
	case "sqlite":
		j, err = openSQLite(ctx, cfg.Journal.DSN)
	default:
		j = service.Noop{}
	}
	if err != nil {
		return nil, err
	}
	logger.Info("signal journal driver: %s", cfg.Journal.Driver)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return j.Close() },
	})
	return j, nil
}

func openPostgres(ctx context.Context, dsn string) (service.Journal, error) {
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	tx := db.NewPgTxManager(pool)
	j, err := service.NewPostgres(ctx, tx, tx.Close)
	if err != nil {
		tx.Close()
		return nil, err
	}
	return j, nil
}

func openSQLite(ctx context.Context, path string) (service.Journal, error) {
	conn, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	j, err := service.NewSQLite(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return j, nil
}

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(newJournal),
	)
}
