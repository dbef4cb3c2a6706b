package service

import (
	"context"
	"webhook_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type positionsResponse struct {
	Securities []positionDTO `json:"securities"`
	Futures    []positionDTO `json:"futures"`
}

func (c *Client) Positions(ctx context.Context) (models.Positions, error) {
	var resp positionsResponse
	if err := c.call(ctx, "OperationsService", "GetPositions",
		accountRequest{AccountID: c.accountID}, &resp); err != nil {
		return models.Positions{}, err
	}
	convert := func(in []positionDTO) []models.Position {
		out := make([]models.Position, 0, len(in))
		for _, p := range in {
			out = append(out, models.Position{InstrumentUID: p.InstrumentUID, Balance: int64(p.Balance)})
		}
		return out
	}
	return models.Positions{
		Securities: convert(resp.Securities),
		Futures:    convert(resp.Futures),
	}, nil
}

type lastPricesRequest struct {
	InstrumentID []string `json:"instrumentId"`
}

type lastPricesResponse struct {
	LastPrices []struct {
		InstrumentUID string     `json:"instrumentUid"`
		Price         *Quotation `json:"price"`
	} `json:"lastPrices"`
}

func (c *Client) LastPrice(ctx context.Context, uid string) (decimal.Decimal, error) {
	var resp lastPricesResponse
	if err := c.call(ctx, "MarketDataService", "GetLastPrices",
		lastPricesRequest{InstrumentID: []string{uid}}, &resp); err != nil {
		return decimal.Zero, err
	}
	for _, p := range resp.LastPrices {
		if p.Price != nil && (p.InstrumentUID == uid || len(resp.LastPrices) == 1) {
			return p.Price.Decimal(), nil
		}
	}
	return decimal.Zero, errors.Errorf("GetLastPrices: no price for %s", uid)
}
