package runner

import (
	"context"
	"webhook_bot/internal/helper"
	"webhook_bot/internal/models"
)

// close: сначала снимаем все стопы инструмента, потом проверяем баланс.
func (p *Processor) close(ctx context.Context, res Result) (Result, error) {
	sig, inst, op := res.Signal, res.Instrument, string(models.SignalClose)

	cancelled, err := p.cancelStopOrders(ctx, inst.UID)
	if err != nil {
		return res, execErr(KindGateway, res.Ticker, op, err, "cancel stop orders (%d cancelled)", cancelled)
	}

	balance, found, err := p.balance(ctx, inst)
	if err != nil {
		return res, execErr(KindGateway, res.Ticker, op, err, "get positions")
	}
	if !found {
		return res, execErr(KindBalanceNotFound, res.Ticker, op, nil,
			"balance for %q %q not found", res.Ticker, inst.Currency)
	}
	if balance == 0 {
		return res, execErr(KindNothingToClose, res.Ticker, op, nil,
			"nothing to close for %q %q, balance: %d", res.Ticker, inst.Currency, balance)
	}

	lots := helper.AbsInt64(balanceLots(inst, balance))
	if lots <= 0 {
		return res, execErr(KindIllegalQuantity, res.Ticker, op, nil,
			"balance %d is less than one lot of %d", balance, inst.Lot)
	}

	st, err := p.marketAndVerify(ctx, res, models.DirectionFor(sig.PositionSide).Opposite(), lots)
	if err != nil {
		return res, err
	}
	res.OrderID, res.Lots, res.Price = st.OrderID, st.LotsExecuted, st.ExecutedPrice
	if res.Lots == 0 {
		res.Lots = lots
	}
	res.Message = formatClose(res, cancelled)
	return res, nil
}
