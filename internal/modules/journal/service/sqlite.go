package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS signal_journal (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	at       TEXT NOT NULL,
	type     TEXT NOT NULL,
	ticker   TEXT NOT NULL,
	side     TEXT NOT NULL,
	result   TEXT NOT NULL,
	order_id TEXT NOT NULL DEFAULT '',
	lots     INTEGER NOT NULL DEFAULT 0,
	price    TEXT NOT NULL DEFAULT '0',
	message  TEXT NOT NULL DEFAULT ''
)`

type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate signal_journal: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signal_journal (at, type, ticker, side, result, order_id, lots, price, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UTC().Format(time.RFC3339Nano), e.Type, e.Ticker, e.Side, e.Result, e.OrderID, e.Lots, e.Price.String(), e.Message)
	if err != nil {
		return fmt.Errorf("insert signal_journal: %w", err)
	}
	return nil
}

// Recent: последние записи, новые первыми. Нужен тестам, бот журнал не читает.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, type, ticker, side, result, order_id, lots, price, message
		 FROM signal_journal ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signal_journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e     Entry
			at    string
			price string
		)
		if err := rows.Scan(&at, &e.Type, &e.Ticker, &e.Side, &e.Result, &e.OrderID, &e.Lots, &price, &e.Message); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.Price, _ = decimalFromString(price)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
