package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Entry: итог обработки одного сигнала.
type Entry struct {
	At      time.Time
	Type    string
	Ticker  string
	Side    string
	Result  string // "ok" или вид ошибки
	OrderID string
	Lots    int64
	Price   decimal.Decimal
	Message string
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Noop: журнал выключен.
type Noop struct{}

func (Noop) Record(context.Context, Entry) error { return nil }
func (Noop) Close() error                        { return nil }

func decimalFromString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
