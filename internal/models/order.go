package models

import (
	"github.com/shopspring/decimal"
)

type OrderDirection int

const (
	DirectionBuy OrderDirection = iota + 1
	DirectionSell
)

func (d OrderDirection) String() string {
	if d == DirectionBuy {
		return "BUY"
	}
	return "SELL"
}

// Opposite: направление закрывающего ордера.
func (d OrderDirection) Opposite() OrderDirection {
	if d == DirectionBuy {
		return DirectionSell
	}
	return DirectionBuy
}

// DirectionFor: LONG -> BUY, SHORT -> SELL.
func DirectionFor(side PositionSide) OrderDirection {
	if side == SideLong {
		return DirectionBuy
	}
	return DirectionSell
}

type OrderStatus string

const (
	OrderStatusUnspecified   OrderStatus = "UNSPECIFIED"
	OrderStatusNew           OrderStatus = "NEW"
	OrderStatusPartiallyFill OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled        OrderStatus = "FILLED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusRejected      OrderStatus = "REJECTED"
)

// MarketOrder: заявка на исполнение по рынку.
type MarketOrder struct {
	OrderID       string // клиентский idempotency key
	InstrumentUID string
	Lots          int64
	Direction     OrderDirection
}

// OrderState: то, что брокер знает об ордере.
type OrderState struct {
	OrderID       string
	Status        OrderStatus
	LotsRequested int64
	LotsExecuted  int64
	ExecutedPrice decimal.Decimal // средняя цена исполнения за 1 инструмент
	TotalAmount   decimal.Decimal
}

type StopOrderType string

const (
	StopOrderTakeProfit StopOrderType = "TAKE_PROFIT"
	StopOrderStopLoss   StopOrderType = "STOP_LOSS"
	StopOrderStopLimit  StopOrderType = "STOP_LIMIT"
)

type StopOrder struct {
	StopOrderID   string
	InstrumentUID string
	Type          StopOrderType
	Lots          int64
	Direction     OrderDirection
	Price         decimal.Decimal
}

// StopOrderRequest: GTC, исполнение по рынку.
type StopOrderRequest struct {
	InstrumentUID string
	Type          StopOrderType
	Lots          int64
	Direction     OrderDirection
	Price         decimal.Decimal
}

// Position: баланс по инструменту в единицах брокера
// (бумаги для акций/ETF, контракты для фьючерсов).
type Position struct {
	InstrumentUID string
	Balance       int64
}

type Positions struct {
	Securities []Position
	Futures    []Position
}

// MarginAttributes не кэшируются.
type MarginAttributes struct {
	StartingMargin  decimal.Decimal
	LiquidPortfolio decimal.Decimal
	Currency        string
}
