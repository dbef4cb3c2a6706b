package runner

import (
	"context"
	"errors"
	"fmt"
	"webhook_bot/internal/models"
	"webhook_bot/internal/runner/admission"
	"webhook_bot/internal/runner/verify"
)

func verifyErr(ticker, op, orderID string, err error) error {
	var (
		se *verify.StatusError
		ie *verify.IndeterminateError
	)
	switch {
	case errors.As(err, &se):
		return execErr(KindIllegalOrderStatus, ticker, op, err, "order %s status %s", orderID, se.Status)
	case errors.As(err, &ie):
		return execErr(KindVerificationIndeterminate, ticker, op, err, "order %s status unknown", orderID)
	}
	return execErr(KindGateway, ticker, op, err, "verify order %s", orderID)
}

// marginInfo попадает в сообщение об открытии фьючерса.
type marginInfo struct {
	decision admission.Decision
	checked  bool
}

func (p *Processor) open(ctx context.Context, res Result) (Result, error) {
	sig, inst, op := res.Signal, res.Instrument, string(models.SignalOpen)

	lots := lotsFromQty(inst, sig.Qty)
	if lots <= 0 {
		return res, execErr(KindIllegalQuantity, res.Ticker, op, nil,
			"invalid quantity %s, lot %d", sig.Qty, inst.Lot)
	}

	balance, found, err := p.balance(ctx, inst)
	if err != nil {
		return res, execErr(KindGateway, res.Ticker, op, err, "get positions")
	}
	if !found {
		return res, execErr(KindBalanceNotFound, res.Ticker, op, nil,
			"balance for %q %q not found", res.Ticker, inst.Currency)
	}
	if balance != 0 {
		return res, execErr(KindBalanceNonZero, res.Ticker, op, nil,
			"balance for %q %q non zero: %d", res.Ticker, inst.Currency, balance)
	}

	var margin marginInfo
	if inst.IsFuture() {
		d, err := p.admit.Admit(ctx, inst, sig.PositionSide, lots)
		if err != nil {
			return res, execErr(KindGateway, res.Ticker, op, err, "margin admission")
		}
		if !d.Admitted {
			return res, execErr(KindNotEnoughMoney, res.Ticker, op, nil,
				"starting margin %s + projected %s > liquid portfolio %s * %s",
				d.StartingMargin.StringFixed(2), d.Projected.StringFixed(2),
				d.LiquidPortfolio.StringFixed(2), d.Coefficient)
		}
		margin = marginInfo{decision: d, checked: true}
	}

	st, err := p.marketAndVerify(ctx, res, models.DirectionFor(sig.PositionSide), lots)
	if err != nil {
		return res, err
	}
	res.OrderID, res.Lots, res.Price = st.OrderID, st.LotsExecuted, st.ExecutedPrice
	if res.Lots == 0 {
		res.Lots = lots
	}
	fill := fmt.Sprintf("исполнено %d лот(ов) по %s", res.Lots, res.Price)

	var stops []string
	if sig.TPPrice != nil {
		_, px, err := p.placeStop(ctx, inst, models.StopOrderTakeProfit, sig.PositionSide, res.Lots, *sig.TPPrice)
		if err != nil {
			return res, execErr(KindGateway, res.Ticker, op, err, "%s, take-profit not placed", fill)
		}
		stops = append(stops, "TP "+px.String())
	}
	if sig.SLPrice != nil {
		_, px, err := p.placeStop(ctx, inst, models.StopOrderStopLoss, sig.PositionSide, res.Lots, *sig.SLPrice)
		if err != nil {
			return res, execErr(KindGateway, res.Ticker, op, err, "%s, stop-loss not placed", fill)
		}
		stops = append(stops, "SL "+px.String())
	}

	res.Message = formatOpen(res, stops, margin)
	return res, nil
}
