package runner

import (
	"context"
	"errors"
	"testing"
	"webhook_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	require.Error(t, err)
	var ee *ExecError
	require.True(t, errors.As(err, &ee), "not an ExecError: %v", err)
	assert.Equal(t, want, ee.Kind, err.Error())
}

func position(uid string, balance int64) []models.Position {
	return []models.Position{{InstrumentUID: uid, Balance: balance}}
}

func TestProcessValidationGates(t *testing.T) {
	cases := []struct {
		name string
		body string
		pos  models.Positions
		want Kind
	}{
		{"bad json", `{"type":`, models.Positions{}, KindBadPayload},
		{"unknown ticker", `{"type":"open","ticker":"GAZP","position_side":"LONG","qty":10}`, models.Positions{}, KindInstrumentNotFound},
		{"unsupported type", `{"type":"open","ticker":"ODD","position_side":"LONG","qty":10}`, models.Positions{}, KindUnsupportedType},
		{"share short", `{"type":"open","ticker":"SBER","position_side":"SHORT","qty":10}`, models.Positions{}, KindUnsupportedPositionSide},
		{"less than a lot", `{"type":"open","ticker":"SBER","position_side":"LONG","qty":9}`, models.Positions{}, KindIllegalQuantity},
		{"balance not found", `{"type":"open","ticker":"SBER","position_side":"LONG","qty":20}`, models.Positions{}, KindBalanceNotFound},
		{"balance non zero", `{"type":"open","ticker":"SBER","position_side":"LONG","qty":20}`,
			models.Positions{Securities: position("sber-uid", 10)}, KindBalanceNonZero},
		{"future balance non zero", `{"type":"open","ticker":"RIZ2024","position_side":"SHORT","qty":1}`,
			models.Positions{Futures: position("riz4-uid", -1)}, KindBalanceNonZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{positions: tc.pos}
			p, _ := newTestProcessor(gw)

			_, err := p.Process(context.Background(), []byte(tc.body))
			requireKind(t, err, tc.want)
			assert.Empty(t, gw.orders, "no order may be submitted")
		})
	}
}

func TestOpenShareWithStops(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Securities: position("sber-uid", 0)},
		statuses:  []models.OrderStatus{models.OrderStatusNew, models.OrderStatusFilled},
		fillPrice: dec("250.5"),
	}
	p, tickers := newTestProcessor(gw)

	res, err := p.Process(context.Background(), []byte(
		`{"type":"open","ticker":"MOEX:SBER","position_side":"LONG","qty":25,"tp_price":"17.2345","sl_price":12.07,"comment":"breakout"}`))
	require.NoError(t, err)

	require.Len(t, gw.orders, 1)
	assert.Equal(t, "cid", gw.orders[0].OrderID)
	assert.Equal(t, int64(2), gw.orders[0].Lots)
	assert.Equal(t, models.DirectionBuy, gw.orders[0].Direction)
	assert.Equal(t, []string{"SBER"}, tickers.added)

	require.Len(t, gw.stopPosted, 2)
	assert.Equal(t, models.StopOrderTakeProfit, gw.stopPosted[0].Type)
	assert.True(t, gw.stopPosted[0].Price.Equal(dec("17.2")), gw.stopPosted[0].Price.String())
	assert.Equal(t, models.DirectionSell, gw.stopPosted[0].Direction)
	assert.True(t, gw.stopPosted[1].Price.Equal(dec("12.05")))
	assert.Equal(t, int64(2), gw.stopPosted[1].Lots)

	assert.Equal(t, int64(2), res.Lots)
	assert.Contains(t, res.Message, "250.5")
	assert.Contains(t, res.Message, "breakout")
}

func TestOpenFutureNotEnoughMoney(t *testing.T) {
	// 1000/10*1 = 100 за лот, ставка 0.1 -> 10 за лот; 15 лотов = 150
	gw := &fakeGateway{
		positions: models.Positions{Futures: position("riz4-uid", 0)},
		lastPrice: dec("1000"),
		attrs:     models.MarginAttributes{StartingMargin: dec("100"), LiquidPortfolio: dec("100")},
	}
	p, _ := newTestProcessor(gw)

	res, err := p.Process(context.Background(), []byte(`{"type":"open","ticker":"RIZ4","position_side":"LONG","qty":15}`))
	requireKind(t, err, KindNotEnoughMoney)
	assert.Empty(t, gw.orders)

	msg := FormatError(res, err)
	for _, figure := range []string{"100.00", "150.00"} {
		assert.Contains(t, msg, figure)
	}
}

func TestOpenFutureAdmitted(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Futures: position("riz4-uid", 0)},
		lastPrice: dec("1000"),
		attrs:     models.MarginAttributes{StartingMargin: dec("0"), LiquidPortfolio: dec("100")},
		statuses:  []models.OrderStatus{models.OrderStatusFilled},
		fillPrice: dec("1000"),
	}
	p, _ := newTestProcessor(gw)

	res, err := p.Process(context.Background(), []byte(`{"type":"open","ticker":"RIZ4","position_side":"SHORT","qty":"3.7"}`))
	require.NoError(t, err)
	require.Len(t, gw.orders, 1)
	assert.Equal(t, int64(3), gw.orders[0].Lots)
	assert.Equal(t, models.DirectionSell, gw.orders[0].Direction)
	assert.Contains(t, res.Message, "маржа")
}

func TestOpenRejectedOrder(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Securities: position("sber-uid", 0)},
		statuses:  []models.OrderStatus{models.OrderStatusNew, models.OrderStatusRejected},
	}
	p, _ := newTestProcessor(gw)

	_, err := p.Process(context.Background(), []byte(`{"type":"open","ticker":"SBER","position_side":"LONG","qty":10,"sl_price":1}`))
	requireKind(t, err, KindIllegalOrderStatus)
	assert.Equal(t, 2, gw.polls)
	assert.Empty(t, gw.stopPosted)
}

func TestOpenIndeterminate(t *testing.T) {
	gw := &fakeGateway{positions: models.Positions{Securities: position("sber-uid", 0)}}
	p, _ := newTestProcessor(gw)

	_, err := p.Process(context.Background(), []byte(`{"type":"open","ticker":"SBER","position_side":"LONG","qty":10}`))
	requireKind(t, err, KindVerificationIndeterminate)
	assert.Equal(t, 3, gw.polls)
}

func TestOpenStopFailureReportsFill(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Securities: position("sber-uid", 0)},
		statuses:  []models.OrderStatus{models.OrderStatusFilled},
		fillPrice: dec("99.9"),
		stopErr:   errors.New("rejected by exchange"),
	}
	p, _ := newTestProcessor(gw)

	res, err := p.Process(context.Background(), []byte(`{"type":"open","ticker":"SBER","position_side":"LONG","qty":10,"tp_price":120}`))
	requireKind(t, err, KindGateway)
	msg := FormatError(res, err)
	assert.Contains(t, msg, "99.9")
	assert.Contains(t, msg, "take-profit")
}

func TestCloseNothingToCloseStillCancelsStops(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Futures: position("riz4-uid", 0)},
		stopOrders: []models.StopOrder{
			{StopOrderID: "tp1", InstrumentUID: "riz4-uid", Type: models.StopOrderTakeProfit},
			{StopOrderID: "sl1", InstrumentUID: "riz4-uid", Type: models.StopOrderStopLoss},
			{StopOrderID: "other", InstrumentUID: "x-uid", Type: models.StopOrderStopLoss},
		},
	}
	p, _ := newTestProcessor(gw)

	_, err := p.Process(context.Background(), []byte(`{"type":"close","ticker":"RIZ4","position_side":"LONG"}`))
	requireKind(t, err, KindNothingToClose)
	assert.Equal(t, []string{"tp1", "sl1"}, gw.cancelled)
	assert.Empty(t, gw.orders)
	assert.Equal(t, []string{"stop_orders", "cancel_stop", "cancel_stop", "positions"}, gw.calls)
}

func TestCloseUsesAbsoluteBalance(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Futures: position("riz4-uid", -4)},
		statuses:  []models.OrderStatus{models.OrderStatusFilled},
		fillPrice: dec("1010"),
	}
	p, _ := newTestProcessor(gw)

	res, err := p.Process(context.Background(), []byte(`{"type":"close","ticker":"RIZ4","position_side":"SHORT","qty":1}`))
	require.NoError(t, err)
	require.Len(t, gw.orders, 1)
	assert.Equal(t, int64(4), gw.orders[0].Lots)
	assert.Equal(t, models.DirectionBuy, gw.orders[0].Direction)
	assert.Contains(t, res.Message, "1010")
}

func TestCloseShareConvertsUnitsToLots(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Securities: position("sber-uid", 30)},
		statuses:  []models.OrderStatus{models.OrderStatusFilled},
	}
	p, _ := newTestProcessor(gw)

	_, err := p.Process(context.Background(), []byte(`{"type":"close","ticker":"SBER","position_side":"LONG"}`))
	require.NoError(t, err)
	require.Len(t, gw.orders, 1)
	assert.Equal(t, int64(3), gw.orders[0].Lots)
	assert.Equal(t, models.DirectionSell, gw.orders[0].Direction)
}

func TestRenewStopLoss(t *testing.T) {
	gw := &fakeGateway{
		positions: models.Positions{Futures: position("riz4-uid", 2)},
		stopOrders: []models.StopOrder{
			{StopOrderID: "tp1", InstrumentUID: "riz4-uid", Type: models.StopOrderTakeProfit},
			{StopOrderID: "sl1", InstrumentUID: "riz4-uid", Type: models.StopOrderStopLoss},
		},
	}
	p, _ := newTestProcessor(gw)

	res, err := p.Process(context.Background(), []byte(`{"type":"renew_stop_loss","ticker":"RIZ4","position_side":"LONG","sl_price":95555}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"sl1"}, gw.cancelled)
	require.Len(t, gw.stopPosted, 1)
	sl := gw.stopPosted[0]
	assert.Equal(t, models.StopOrderStopLoss, sl.Type)
	assert.Equal(t, int64(2), sl.Lots)
	assert.Equal(t, models.DirectionSell, sl.Direction)
	assert.True(t, sl.Price.Equal(dec("95550")))
	assert.Empty(t, gw.orders)
	assert.Contains(t, res.Message, "95550")
}

func TestRenewNothingToRenew(t *testing.T) {
	gw := &fakeGateway{positions: models.Positions{Futures: position("riz4-uid", 0)}}
	p, _ := newTestProcessor(gw)

	_, err := p.Process(context.Background(), []byte(`{"type":"renew_stop_loss","ticker":"RIZ4","position_side":"LONG","sl_price":1}`))
	requireKind(t, err, KindNothingToRenewStopLoss)
	assert.Empty(t, gw.cancelled)
	assert.Empty(t, gw.stopPosted)
}

func TestGatewayErrorIsClassified(t *testing.T) {
	gw := &fakeGateway{positionsErr: errors.New("unavailable")}
	p, _ := newTestProcessor(gw)

	_, err := p.Process(context.Background(), []byte(`{"type":"open","ticker":"SBER","position_side":"LONG","qty":10}`))
	requireKind(t, err, KindGateway)
	assert.Contains(t, err.Error(), "unavailable")
}
