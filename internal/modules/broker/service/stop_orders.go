package service

import (
	"context"
	"strings"
	"webhook_bot/internal/models"

	"github.com/pkg/errors"
)

const stopOrdersService = "StopOrdersService"

type getStopOrdersRequest struct {
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
}

type getStopOrdersResponse struct {
	StopOrders []stopOrderDTO `json:"stopOrders"`
}

func parseStopOrderType(s string) models.StopOrderType {
	return models.StopOrderType(strings.TrimPrefix(s, "STOP_ORDER_TYPE_"))
}

func parseStopDirection(s string) models.OrderDirection {
	if strings.HasSuffix(s, "_BUY") {
		return models.DirectionBuy
	}
	return models.DirectionSell
}

func (c *Client) ActiveStopOrders(ctx context.Context) ([]models.StopOrder, error) {
	var resp getStopOrdersResponse
	if err := c.call(ctx, stopOrdersService, "GetStopOrders", getStopOrdersRequest{
		AccountID: c.accountID,
		Status:    "STOP_ORDER_STATUS_ACTIVE",
	}, &resp); err != nil {
		return nil, err
	}
	out := make([]models.StopOrder, 0, len(resp.StopOrders))
	for _, so := range resp.StopOrders {
		out = append(out, models.StopOrder{
			StopOrderID:   so.StopOrderID,
			InstrumentUID: so.InstrumentUID,
			Type:          parseStopOrderType(so.OrderType),
			Lots:          int64(so.LotsRequested),
			Direction:     parseStopDirection(so.Direction),
			Price:         dec(so.StopPrice),
		})
	}
	return out, nil
}

type cancelStopOrderRequest struct {
	AccountID   string `json:"accountId"`
	StopOrderID string `json:"stopOrderId"`
}

func (c *Client) CancelStopOrder(ctx context.Context, stopOrderID string) error {
	return c.call(ctx, stopOrdersService, "CancelStopOrder",
		cancelStopOrderRequest{AccountID: c.accountID, StopOrderID: stopOrderID}, nil)
}

type postStopOrderRequest struct {
	Quantity          int64String `json:"quantity"`
	Price             Quotation   `json:"price"`
	StopPrice         Quotation   `json:"stopPrice"`
	Direction         string      `json:"direction"`
	AccountID         string      `json:"accountId"`
	ExpirationType    string      `json:"expirationType"`
	StopOrderType     string      `json:"stopOrderType"`
	InstrumentID      string      `json:"instrumentId"`
	ExchangeOrderType string      `json:"exchangeOrderType"`
}

type postStopOrderResponse struct {
	StopOrderID string `json:"stopOrderId"`
}

// PostStopOrder: GTC, исполнение по рынку при срабатывании.
func (c *Client) PostStopOrder(ctx context.Context, r models.StopOrderRequest) (string, error) {
	if r.Lots <= 0 {
		return "", errors.Errorf("PostStopOrder: lots must be > 0, got %d", r.Lots)
	}
	if r.Type != models.StopOrderTakeProfit && r.Type != models.StopOrderStopLoss {
		return "", errors.Errorf("PostStopOrder: unsupported type %s", r.Type)
	}
	direction := "STOP_ORDER_DIRECTION_SELL"
	if r.Direction == models.DirectionBuy {
		direction = "STOP_ORDER_DIRECTION_BUY"
	}
	q := QuotationFrom(r.Price)

	var resp postStopOrderResponse
	if err := c.call(ctx, stopOrdersService, "PostStopOrder", postStopOrderRequest{
		Quantity:          int64String(r.Lots),
		Price:             q,
		StopPrice:         q,
		Direction:         direction,
		AccountID:         c.accountID,
		ExpirationType:    "STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL",
		StopOrderType:     "STOP_ORDER_TYPE_" + string(r.Type),
		InstrumentID:      r.InstrumentUID,
		ExchangeOrderType: "EXCHANGE_ORDER_TYPE_MARKET",
	}, &resp); err != nil {
		return "", err
	}
	return resp.StopOrderID, nil
}
