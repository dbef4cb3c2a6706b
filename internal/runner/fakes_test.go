package runner

import (
	"context"
	"errors"
	"sync"
	"webhook_bot/internal/models"
	"webhook_bot/internal/runner/admission"
	"webhook_bot/internal/runner/verify"

	"github.com/shopspring/decimal"
)

type fakeGateway struct {
	mu sync.Mutex

	positions    models.Positions
	positionsErr error
	stopOrders   []models.StopOrder
	statuses     []models.OrderStatus
	fillPrice    decimal.Decimal
	lastPrice    decimal.Decimal
	attrs        models.MarginAttributes
	stopErr      error

	polls      int
	orders     []models.MarketOrder
	cancelled  []string
	stopPosted []models.StopOrderRequest
	calls      []string
}

func (f *fakeGateway) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) Positions(context.Context) (models.Positions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("positions")
	return f.positions, f.positionsErr
}

func (f *fakeGateway) PostMarketOrder(_ context.Context, o models.MarketOrder) (models.OrderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("post_order")
	f.orders = append(f.orders, o)
	return models.OrderState{OrderID: "broker-" + o.OrderID, Status: models.OrderStatusNew, LotsRequested: o.Lots}, nil
}

func (f *fakeGateway) OrderState(_ context.Context, id string) (models.OrderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	f.polls++
	if len(f.statuses) == 0 {
		return models.OrderState{}, errors.New("no status")
	}
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	st := models.OrderState{OrderID: id, Status: f.statuses[i]}
	if st.Status == models.OrderStatusFilled && len(f.orders) > 0 {
		st.LotsExecuted = f.orders[len(f.orders)-1].Lots
		st.ExecutedPrice = f.fillPrice
	}
	return st, nil
}

func (f *fakeGateway) ActiveStopOrders(context.Context) ([]models.StopOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop_orders")
	return f.stopOrders, nil
}

func (f *fakeGateway) CancelStopOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cancel_stop")
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeGateway) PostStopOrder(_ context.Context, r models.StopOrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("post_stop")
	if f.stopErr != nil {
		return "", f.stopErr
	}
	f.stopPosted = append(f.stopPosted, r)
	return "stop-" + string(r.Type), nil
}

func (f *fakeGateway) LastPrice(context.Context, string) (decimal.Decimal, error) {
	return f.lastPrice, nil
}

func (f *fakeGateway) MarginAttributes(context.Context) (models.MarginAttributes, error) {
	return f.attrs, nil
}

func (f *fakeGateway) FuturesMargin(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(1), nil
}

type fakeCatalog map[string]models.Instrument

func (c fakeCatalog) Lookup(ticker, currency string) (models.Instrument, bool) {
	inst, ok := c[ticker+"/"+currency]
	return inst, ok
}

type fakeTickers struct{ added []string }

func (t *fakeTickers) Add(ticker string) (bool, error) {
	t.added = append(t.added, ticker)
	return true, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	sber = models.Instrument{
		UID: "sber-uid", Ticker: "SBER", Currency: "rub", Kind: models.KindShare,
		Lot: 10, MinPriceIncrement: dec("0.05"),
	}
	riz4 = models.Instrument{
		UID: "riz4-uid", Ticker: "RIZ4", Currency: "rub", Kind: models.KindFuture,
		Lot: 1, MinPriceIncrement: dec("10"),
		Future: &models.FutureTerms{
			MinPriceIncrementAmount: dec("1"),
			MarginRateLong:          dec("0.1"),
			MarginRateShort:         dec("0.1"),
		},
	}
	odd = models.Instrument{UID: "odd-uid", Ticker: "ODD", Currency: "rub", Kind: models.KindUnknown, Lot: 1}
)

func newTestProcessor(gw *fakeGateway) (*Processor, *fakeTickers) {
	tickers := &fakeTickers{}
	p := NewProcessor(gw,
		fakeCatalog{"SBER/rub": sber, "RIZ4/rub": riz4, "ODD/rub": odd},
		tickers,
		admission.New(gw, 2),
		verify.New(gw, 3, 0),
		"RUB",
		func() string { return "cid" },
	)
	return p, tickers
}
