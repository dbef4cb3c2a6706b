package runner

import (
	"context"
	"strings"
	"webhook_bot/internal/helper"
	"webhook_bot/internal/models"
	"webhook_bot/internal/runner/admission"
	"webhook_bot/pkg/logger"

	"github.com/shopspring/decimal"
)

// Gateway: торговые вызовы брокера.
type Gateway interface {
	Positions(ctx context.Context) (models.Positions, error)
	PostMarketOrder(ctx context.Context, o models.MarketOrder) (models.OrderState, error)
	ActiveStopOrders(ctx context.Context) ([]models.StopOrder, error)
	CancelStopOrder(ctx context.Context, stopOrderID string) error
	PostStopOrder(ctx context.Context, r models.StopOrderRequest) (string, error)
}

type Catalog interface {
	Lookup(ticker, currency string) (models.Instrument, bool)
}

type TickerStore interface {
	Add(ticker string) (bool, error)
}

type Admission interface {
	Admit(ctx context.Context, inst models.Instrument, side models.PositionSide, lots int64) (admission.Decision, error)
}

type Verifier interface {
	Verify(ctx context.Context, orderID string, want models.OrderStatus, fail ...models.OrderStatus) (models.OrderState, error)
}

// Result: успешный исход сигнала.
type Result struct {
	Signal     models.Signal
	Ticker     string // нормализованный
	Instrument models.Instrument
	OrderID    string
	Lots       int64
	Price      decimal.Decimal
	Message    string
}

// Processor исполняет один сигнал за раз, без собственного состояния.
type Processor struct {
	gw       Gateway
	catalog  Catalog
	tickers  TickerStore
	admit    Admission
	verifier Verifier
	currency string
	newID    func() string
}

// NewProcessor: newID выдаёт клиентский ключ заявки.
func NewProcessor(gw Gateway, catalog Catalog, tickers TickerStore, admit Admission, verifier Verifier, currency string, newID func() string) *Processor {
	return &Processor{
		gw:       gw,
		catalog:  catalog,
		tickers:  tickers,
		admit:    admit,
		verifier: verifier,
		currency: strings.ToLower(currency),
		newID:    newID,
	}
}

// Process проходит проверки по порядку и диспатчит по типу сигнала.
func (p *Processor) Process(ctx context.Context, body []byte) (Result, error) {
	sig, err := models.ParseSignal(body)
	if err != nil {
		return Result{}, execErr(KindBadPayload, "", "parse", err, "")
	}

	ticker := helper.NormalizeTicker(sig.Ticker)
	inst, ok := p.catalog.Lookup(ticker, p.currency)
	if !ok {
		return Result{Signal: sig, Ticker: ticker}, execErr(KindInstrumentNotFound, ticker, string(sig.Type), nil,
			"instrument %q %q not found", ticker, p.currency)
	}
	if p.tickers != nil {
		if _, err := p.tickers.Add(ticker); err != nil {
			logger.Error("record ticker %s: %v", ticker, err)
		}
	}

	res := Result{Signal: sig, Ticker: ticker, Instrument: inst}

	switch inst.Kind {
	case models.KindShare, models.KindFuture, models.KindETF:
	default:
		return res, execErr(KindUnsupportedType, ticker, string(sig.Type), nil,
			"unsupported type %s, supported Share, Future and ETF", inst.Kind)
	}

	if !inst.IsFuture() && sig.PositionSide != models.SideLong {
		return res, execErr(KindUnsupportedPositionSide, ticker, string(sig.Type), nil,
			"unsupported position side for %s: %s", inst.Kind, sig.PositionSide)
	}

	switch sig.Type {
	case models.SignalOpen:
		return p.open(ctx, res)
	case models.SignalRenewStopLoss:
		return p.renewStopLoss(ctx, res)
	case models.SignalClose:
		return p.close(ctx, res)
	}
	return res, execErr(KindBadPayload, ticker, string(sig.Type), nil, "unknown signal type")
}

// lotsFromQty: акции/ETF — qty в бумагах, фьючерсы — в контрактах.
func lotsFromQty(inst models.Instrument, qty decimal.Decimal) int64 {
	if inst.IsFuture() {
		return qty.Floor().IntPart()
	}
	lot := inst.Lot
	if lot < 1 {
		lot = 1
	}
	return qty.Div(decimal.NewFromInt(lot)).Floor().IntPart()
}

// balanceLots: у бумаг баланс в штуках, у фьючерсов в контрактах.
func balanceLots(inst models.Instrument, balance int64) int64 {
	if inst.IsFuture() || inst.Lot <= 1 {
		return balance
	}
	return balance / inst.Lot
}

// balance: текущий баланс инструмента; found=false если позиции нет в ответе.
func (p *Processor) balance(ctx context.Context, inst models.Instrument) (int64, bool, error) {
	pos, err := p.gw.Positions(ctx)
	if err != nil {
		return 0, false, err
	}
	list := pos.Securities
	if inst.IsFuture() {
		list = pos.Futures
	}
	for _, ps := range list {
		if ps.InstrumentUID == inst.UID {
			return ps.Balance, true, nil
		}
	}
	return 0, false, nil
}

// cancelStopOrders снимает активные стоп-заявки инструмента (всех типов, если types пуст).
func (p *Processor) cancelStopOrders(ctx context.Context, uid string, types ...models.StopOrderType) (int, error) {
	orders, err := p.gw.ActiveStopOrders(ctx)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, so := range orders {
		if so.InstrumentUID != uid || !matchesType(so.Type, types) {
			continue
		}
		if err := p.gw.CancelStopOrder(ctx, so.StopOrderID); err != nil {
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

func matchesType(t models.StopOrderType, types []models.StopOrderType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// marketAndVerify: рыночная заявка и ожидание FILL.
func (p *Processor) marketAndVerify(ctx context.Context, res Result, dir models.OrderDirection, lots int64) (models.OrderState, error) {
	op := string(res.Signal.Type)
	placed, err := p.gw.PostMarketOrder(ctx, models.MarketOrder{
		OrderID:       p.newID(),
		InstrumentUID: res.Instrument.UID,
		Lots:          lots,
		Direction:     dir,
	})
	if err != nil {
		return models.OrderState{}, execErr(KindGateway, res.Ticker, op, err, "post market order")
	}

	st, err := p.verifier.Verify(ctx, placed.OrderID, models.OrderStatusFilled,
		models.OrderStatusCancelled, models.OrderStatusRejected)
	if err != nil {
		return st, verifyErr(res.Ticker, op, placed.OrderID, err)
	}
	return st, nil
}

// stopPrice: цена стопа, округлённая вниз к шагу.
func stopPrice(inst models.Instrument, px decimal.Decimal) decimal.Decimal {
	if !inst.MinPriceIncrement.IsPositive() {
		return px
	}
	return helper.RoundDownToTick(px, inst.MinPriceIncrement)
}

func (p *Processor) placeStop(ctx context.Context, inst models.Instrument, typ models.StopOrderType, side models.PositionSide, lots int64, px decimal.Decimal) (string, decimal.Decimal, error) {
	price := stopPrice(inst, px)
	id, err := p.gw.PostStopOrder(ctx, models.StopOrderRequest{
		InstrumentUID: inst.UID,
		Type:          typ,
		Lots:          lots,
		Direction:     models.DirectionFor(side).Opposite(),
		Price:         price,
	})
	return id, price, err
}
