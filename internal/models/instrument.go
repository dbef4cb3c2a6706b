package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InstrumentKind: закрытый набор типов инструментов.
type InstrumentKind int

const (
	KindUnknown InstrumentKind = iota
	KindShare
	KindFuture
	KindETF
)

func (k InstrumentKind) String() string {
	switch k {
	case KindShare:
		return "Share"
	case KindFuture:
		return "Future"
	case KindETF:
		return "ETF"
	case KindUnknown:
		return "Unknown"
	}
	return fmt.Sprintf("InstrumentKind(%d)", int(k))
}

// FutureTerms есть только у фьючерсов.
type FutureTerms struct {
	// стоимость минимального шага цены в валюте, 0 если брокер не отдал
	MinPriceIncrementAmount decimal.Decimal
	MarginRateLong          decimal.Decimal
	MarginRateShort         decimal.Decimal
}

// Instrument неизменяем после загрузки в каталог.
type Instrument struct {
	UID               string
	Ticker            string
	Currency          string
	Name              string
	Kind              InstrumentKind
	Lot               int64
	MinPriceIncrement decimal.Decimal

	Future *FutureTerms // != nil только для KindFuture
}

// CatalogKey: ключ поиска (ticker, currency).
type CatalogKey struct {
	Ticker   string
	Currency string
}

func (i *Instrument) Key() CatalogKey {
	return CatalogKey{Ticker: i.Ticker, Currency: i.Currency}
}

func (i *Instrument) IsFuture() bool { return i.Kind == KindFuture }
