package service

import (
	"context"
	"strings"
	"webhook_bot/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const ordersService = "OrdersService"

// NewOrderID: клиентский ключ идемпотентности.
func NewOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func orderDirection(d models.OrderDirection) string {
	if d == models.DirectionBuy {
		return "ORDER_DIRECTION_BUY"
	}
	return "ORDER_DIRECTION_SELL"
}

var executionStatuses = map[string]models.OrderStatus{
	"EXECUTION_REPORT_STATUS_FILL":          models.OrderStatusFilled,
	"EXECUTION_REPORT_STATUS_REJECTED":      models.OrderStatusRejected,
	"EXECUTION_REPORT_STATUS_CANCELLED":     models.OrderStatusCancelled,
	"EXECUTION_REPORT_STATUS_NEW":           models.OrderStatusNew,
	"EXECUTION_REPORT_STATUS_PARTIALLYFILL": models.OrderStatusPartiallyFill,
}

func parseExecutionStatus(s string) models.OrderStatus {
	if st, ok := executionStatuses[s]; ok {
		return st
	}
	return models.OrderStatusUnspecified
}

type postOrderRequest struct {
	Quantity     int64String `json:"quantity"`
	Direction    string      `json:"direction"`
	AccountID    string      `json:"accountId"`
	OrderType    string      `json:"orderType"`
	OrderID      string      `json:"orderId"`
	InstrumentID string      `json:"instrumentId"`
}

func (s orderStateDTO) toModel() models.OrderState {
	price := dec(s.ExecutedOrderPrice)
	if avg := dec(s.AveragePositionPrice); avg.IsPositive() {
		price = avg
	}
	return models.OrderState{
		OrderID:       s.OrderID,
		Status:        parseExecutionStatus(s.ExecutionReportStatus),
		LotsRequested: int64(s.LotsRequested),
		LotsExecuted:  int64(s.LotsExecuted),
		ExecutedPrice: price,
		TotalAmount:   dec(s.TotalOrderAmount),
	}
}

// PostMarketOrder возвращает состояние сразу после приёма заявки.
func (c *Client) PostMarketOrder(ctx context.Context, o models.MarketOrder) (models.OrderState, error) {
	if o.Lots <= 0 {
		return models.OrderState{}, errors.Errorf("PostOrder: lots must be > 0, got %d", o.Lots)
	}
	if o.OrderID == "" {
		o.OrderID = NewOrderID()
	}
	var resp orderStateDTO
	err := c.call(ctx, ordersService, "PostOrder", postOrderRequest{
		Quantity:     int64String(o.Lots),
		Direction:    orderDirection(o.Direction),
		AccountID:    c.accountID,
		OrderType:    "ORDER_TYPE_MARKET",
		OrderID:      o.OrderID,
		InstrumentID: o.InstrumentUID,
	}, &resp)
	if err != nil {
		return models.OrderState{}, err
	}
	st := resp.toModel()
	if st.OrderID == "" {
		st.OrderID = o.OrderID
	}
	return st, nil
}

type orderStateRequest struct {
	AccountID string `json:"accountId"`
	OrderID   string `json:"orderId"`
}

func (c *Client) OrderState(ctx context.Context, orderID string) (models.OrderState, error) {
	var resp orderStateDTO
	if err := c.call(ctx, ordersService, "GetOrderState",
		orderStateRequest{AccountID: c.accountID, OrderID: orderID}, &resp); err != nil {
		return models.OrderState{}, err
	}
	st := resp.toModel()
	if st.OrderID == "" {
		st.OrderID = orderID
	}
	return st, nil
}
