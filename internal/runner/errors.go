package runner

import (
	"errors"
	"fmt"
)

// Kind: закрытый набор исходов обработки сигнала.
type Kind int

const (
	KindBadPayload Kind = iota + 1
	KindInstrumentNotFound
	KindUnsupportedType
	KindUnsupportedPositionSide
	KindIllegalQuantity
	KindBalanceNotFound
	KindBalanceNonZero
	KindNothingToClose
	KindNothingToRenewStopLoss
	KindNotEnoughMoney
	KindIllegalOrderStatus
	KindVerificationIndeterminate
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindBadPayload:
		return "BadPayload"
	case KindInstrumentNotFound:
		return "InstrumentNotFound"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindUnsupportedPositionSide:
		return "UnsupportedPositionSide"
	case KindIllegalQuantity:
		return "IllegalQuantity"
	case KindBalanceNotFound:
		return "BalanceNotFound"
	case KindBalanceNonZero:
		return "BalanceNonZero"
	case KindNothingToClose:
		return "NothingToClose"
	case KindNothingToRenewStopLoss:
		return "NothingToRenewStopLoss"
	case KindNotEnoughMoney:
		return "NotEnoughMoney"
	case KindIllegalOrderStatus:
		return "IllegalOrderStatus"
	case KindVerificationIndeterminate:
		return "VerificationIndeterminate"
	case KindGateway:
		return "Gateway"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExecError: классифицированная ошибка обработки одного сигнала.
type ExecError struct {
	Kind   Kind
	Ticker string
	Op     string
	Msg    string
	Err    error
}

func (e *ExecError) Error() string {
	s := fmt.Sprintf("%s %s [%s]", e.Op, e.Ticker, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ExecError) Unwrap() error { return e.Err }

func execErr(kind Kind, ticker, op string, err error, format string, args ...any) *ExecError {
	return &ExecError{Kind: kind, Ticker: ticker, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf: не-ExecError считается ошибкой шлюза.
func KindOf(err error) Kind {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindGateway
}
