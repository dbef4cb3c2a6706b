package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

type SignalType string

const (
	SignalOpen          SignalType = "open"
	SignalRenewStopLoss SignalType = "renew_stop_loss"
	SignalClose         SignalType = "close"
)

type PositionSide string

const (
	SideLong  PositionSide = "LONG"
	SideShort PositionSide = "SHORT"
)

// Webhook: сырой payload из очереди; переотправляется как есть.
type Webhook struct {
	Body       []byte
	ReceivedAt time.Time
}

// Signal: разобранный webhook, живёт один цикл обработки.
type Signal struct {
	Type         SignalType
	Ticker       string // как пришло
	PositionSide PositionSide
	Qty          decimal.Decimal
	HasQty       bool
	TPPrice      *decimal.Decimal
	SLPrice      *decimal.Decimal
	Comment      string
}

type signalPayload struct {
	Type         string           `json:"type"`
	Ticker       string           `json:"ticker"`
	PositionSide string           `json:"position_side"`
	Qty          *decimal.Decimal `json:"qty"`
	TPPrice      *decimal.Decimal `json:"tp_price"`
	SLPrice      *decimal.Decimal `json:"sl_price"`
	Comment      string           `json:"comment"`
}

// ParseSignal разбирает и проверяет обязательные поля.
func ParseSignal(body []byte) (Signal, error) {
	var p signalPayload
	if err := sonic.Unmarshal(body, &p); err != nil {
		return Signal{}, fmt.Errorf("decode webhook json: %w", err)
	}

	sig := Signal{
		Ticker:  strings.TrimSpace(p.Ticker),
		TPPrice: p.TPPrice,
		SLPrice: p.SLPrice,
		Comment: p.Comment,
	}

	switch SignalType(strings.ToLower(strings.TrimSpace(p.Type))) {
	case SignalOpen:
		sig.Type = SignalOpen
	case SignalRenewStopLoss:
		sig.Type = SignalRenewStopLoss
	case SignalClose:
		sig.Type = SignalClose
	default:
		return Signal{}, fmt.Errorf("unknown webhook type %q", p.Type)
	}

	switch PositionSide(strings.ToUpper(strings.TrimSpace(p.PositionSide))) {
	case SideLong:
		sig.PositionSide = SideLong
	case SideShort:
		sig.PositionSide = SideShort
	default:
		return Signal{}, fmt.Errorf("unknown position side %q", p.PositionSide)
	}

	if sig.Ticker == "" {
		return Signal{}, fmt.Errorf("ticker is required")
	}

	if p.Qty != nil {
		sig.Qty = *p.Qty
		sig.HasQty = true
	}

	switch sig.Type {
	case SignalOpen:
		if !sig.HasQty {
			return Signal{}, fmt.Errorf("qty is required for %s", sig.Type)
		}
	case SignalRenewStopLoss:
		if sig.SLPrice == nil {
			return Signal{}, fmt.Errorf("sl_price is required for %s", sig.Type)
		}
	case SignalClose:
	}

	return sig, nil
}
