package service

import (
	"context"
	"fmt"
	"webhook_bot/pkg/db"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS signal_journal (
	id         BIGSERIAL PRIMARY KEY,
	at         TIMESTAMPTZ NOT NULL,
	type       TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	side       TEXT NOT NULL,
	result     TEXT NOT NULL,
	order_id   TEXT NOT NULL DEFAULT '',
	lots       BIGINT NOT NULL DEFAULT 0,
	price      NUMERIC NOT NULL DEFAULT 0,
	message    TEXT NOT NULL DEFAULT ''
)`

const pgInsert = `INSERT INTO signal_journal (at, type, ticker, side, result, order_id, lots, price, message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type Postgres struct {
	tx    db.TxManager
	close func()
}

// NewPostgres создаёт таблицу, если её нет.
func NewPostgres(ctx context.Context, tx db.TxManager, closeFn func()) (*Postgres, error) {
	if _, err := tx.Conn().Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("migrate signal_journal: %w", err)
	}
	return &Postgres{tx: tx, close: closeFn}, nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	return p.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, pgInsert,
			e.At.UTC(), e.Type, e.Ticker, e.Side, e.Result, e.OrderID, e.Lots, e.Price.String(), e.Message)
		return err
	})
}

func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
