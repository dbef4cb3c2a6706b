package service

import (
	"context"
	"strings"
	"webhook_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const instrumentsService = "InstrumentsService"

type instrumentsRequest struct {
	InstrumentStatus string `json:"instrumentStatus"`
}

type instrumentsResponse struct {
	Instruments []instrumentDTO `json:"instruments"`
}

func (c *Client) listInstruments(ctx context.Context, method string, kind models.InstrumentKind) ([]models.Instrument, error) {
	var resp instrumentsResponse
	err := c.call(ctx, instrumentsService, method,
		instrumentsRequest{InstrumentStatus: "INSTRUMENT_STATUS_BASE"}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]models.Instrument, 0, len(resp.Instruments))
	for _, d := range resp.Instruments {
		if d.UID == "" || d.Ticker == "" {
			continue
		}
		lot := int64(d.Lot)
		if lot < 1 {
			lot = 1
		}
		inst := models.Instrument{
			UID:               d.UID,
			Ticker:            d.Ticker,
			Currency:          strings.ToLower(d.Currency),
			Name:              d.Name,
			Kind:              kind,
			Lot:               lot,
			MinPriceIncrement: dec(d.MinPriceIncrement),
		}
		if kind == models.KindFuture {
			inst.Future = &models.FutureTerms{
				MinPriceIncrementAmount: dec(d.MinPriceIncrementAmount),
				MarginRateLong:          dec(d.Dlong),
				MarginRateShort:         dec(d.Dshort),
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

func (c *Client) Futures(ctx context.Context) ([]models.Instrument, error) {
	return c.listInstruments(ctx, "Futures", models.KindFuture)
}

func (c *Client) Shares(ctx context.Context) ([]models.Instrument, error) {
	return c.listInstruments(ctx, "Shares", models.KindShare)
}

func (c *Client) Etfs(ctx context.Context) ([]models.Instrument, error) {
	return c.listInstruments(ctx, "Etfs", models.KindETF)
}

// Instruments: вся вселенная каталога: фьючерсы, акции, фонды.
func (c *Client) Instruments(ctx context.Context) ([]models.Instrument, error) {
	var all []models.Instrument
	for _, fetch := range []func(context.Context) ([]models.Instrument, error){c.Futures, c.Shares, c.Etfs} {
		part, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, part...)
	}
	return all, nil
}

type futuresMarginRequest struct {
	InstrumentID string `json:"instrumentId"`
}

type futuresMarginResponse struct {
	InitialMarginOnBuy      *Quotation `json:"initialMarginOnBuy"`
	InitialMarginOnSell     *Quotation `json:"initialMarginOnSell"`
	MinPriceIncrement       *Quotation `json:"minPriceIncrement"`
	MinPriceIncrementAmount *Quotation `json:"minPriceIncrementAmount"`
}

// FuturesMargin: стоимость шага цены фьючерса.
func (c *Client) FuturesMargin(ctx context.Context, uid string) (decimal.Decimal, error) {
	var resp futuresMarginResponse
	if err := c.call(ctx, instrumentsService, "GetFuturesMargin",
		futuresMarginRequest{InstrumentID: uid}, &resp); err != nil {
		return decimal.Zero, err
	}
	amount := dec(resp.MinPriceIncrementAmount)
	if !amount.IsPositive() {
		return decimal.Zero, errors.Errorf("GetFuturesMargin %s: empty minPriceIncrementAmount", uid)
	}
	return amount, nil
}
