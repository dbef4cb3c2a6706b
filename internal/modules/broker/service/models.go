package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// int64String: proto3 JSON отдаёт int64 строкой, принимаем и число.
type int64String int64

func (v *int64String) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*v = int64String(n)
	return nil
}

func (v int64String) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatInt(int64(v), 10) + `"`), nil
}

// Quotation: units + nano/1e9. У MoneyValue дополнительно currency.
type Quotation struct {
	Units    int64String `json:"units"`
	Nano     int32       `json:"nano"`
	Currency string      `json:"currency,omitempty"`
}

func (q Quotation) Decimal() decimal.Decimal {
	return decimal.New(int64(q.Units), 0).Add(decimal.New(int64(q.Nano), -9))
}

func QuotationFrom(d decimal.Decimal) Quotation {
	units := d.Truncate(0)
	nano := d.Sub(units).Shift(9).Truncate(0)
	return Quotation{Units: int64String(units.IntPart()), Nano: int32(nano.IntPart())}
}

type accountDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type instrumentDTO struct {
	UID                     string     `json:"uid"`
	Figi                    string     `json:"figi"`
	Ticker                  string     `json:"ticker"`
	ClassCode               string     `json:"classCode"`
	Currency                string     `json:"currency"`
	Name                    string     `json:"name"`
	Lot                     int32      `json:"lot"`
	MinPriceIncrement       *Quotation `json:"minPriceIncrement"`
	MinPriceIncrementAmount *Quotation `json:"minPriceIncrementAmount"`
	Dlong                   *Quotation `json:"dlong"`
	Dshort                  *Quotation `json:"dshort"`
}

type positionDTO struct {
	Figi          string      `json:"figi"`
	InstrumentUID string      `json:"instrumentUid"`
	Balance       int64String `json:"balance"`
	Blocked       int64String `json:"blocked"`
}

type orderStateDTO struct {
	OrderID               string      `json:"orderId"`
	ExecutionReportStatus string      `json:"executionReportStatus"`
	LotsRequested         int64String `json:"lotsRequested"`
	LotsExecuted          int64String `json:"lotsExecuted"`
	ExecutedOrderPrice    *Quotation  `json:"executedOrderPrice"`
	AveragePositionPrice  *Quotation  `json:"averagePositionPrice"`
	TotalOrderAmount      *Quotation  `json:"totalOrderAmount"`
	Direction             string      `json:"direction"`
	InstrumentUID         string      `json:"instrumentUid"`
}

type stopOrderDTO struct {
	StopOrderID   string      `json:"stopOrderId"`
	LotsRequested int64String `json:"lotsRequested"`
	Direction     string      `json:"direction"`
	OrderType     string      `json:"orderType"`
	InstrumentUID string      `json:"instrumentUid"`
	StopPrice     *Quotation  `json:"stopPrice"`
	Status        string      `json:"status"`
}

func dec(q *Quotation) decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	return q.Decimal()
}
