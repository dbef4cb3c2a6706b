package runner

import (
	"context"
	"webhook_bot/internal/helper"
	"webhook_bot/internal/models"
)

// renewStopLoss: объём берём из баланса, а не из сигнала.
func (p *Processor) renewStopLoss(ctx context.Context, res Result) (Result, error) {
	sig, inst, op := res.Signal, res.Instrument, string(models.SignalRenewStopLoss)

	balance, found, err := p.balance(ctx, inst)
	if err != nil {
		return res, execErr(KindGateway, res.Ticker, op, err, "get positions")
	}
	if !found {
		return res, execErr(KindBalanceNotFound, res.Ticker, op, nil,
			"balance for %q %q not found", res.Ticker, inst.Currency)
	}
	if balance == 0 {
		return res, execErr(KindNothingToRenewStopLoss, res.Ticker, op, nil,
			"nothing to renew stop-loss for %q %q, balance: %d", res.Ticker, inst.Currency, balance)
	}

	lots := helper.AbsInt64(balanceLots(inst, balance))
	if lots <= 0 {
		return res, execErr(KindIllegalQuantity, res.Ticker, op, nil,
			"balance %d is less than one lot of %d", balance, inst.Lot)
	}

	cancelled, err := p.cancelStopOrders(ctx, inst.UID, models.StopOrderStopLoss)
	if err != nil {
		return res, execErr(KindGateway, res.Ticker, op, err, "cancel stop-loss orders (%d cancelled)", cancelled)
	}

	id, px, err := p.placeStop(ctx, inst, models.StopOrderStopLoss, sig.PositionSide, lots, *sig.SLPrice)
	if err != nil {
		return res, execErr(KindGateway, res.Ticker, op, err, "%d old stop-loss cancelled, new one not placed", cancelled)
	}
	res.OrderID, res.Lots, res.Price = id, lots, px
	res.Message = formatRenew(res, cancelled)
	return res, nil
}
