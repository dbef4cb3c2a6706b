package runner

import (
	"errors"
	"fmt"
	"strings"
)

func header(res Result) string {
	side := string(res.Signal.PositionSide)
	typ := strings.ToUpper(string(res.Signal.Type))
	ticker := res.Ticker
	if ticker == "" {
		ticker = res.Signal.Ticker
	}
	return fmt.Sprintf("[%s] %s %s", ticker, typ, side)
}

func withComment(b *strings.Builder, res Result) {
	if c := strings.TrimSpace(res.Signal.Comment); c != "" {
		fmt.Fprintf(b, "\n💬 %s", c)
	}
}

func formatOpen(res Result, stops []string, margin marginInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s\nисполнено %d лот(ов) по %s", header(res), res.Lots, res.Price)
	if len(stops) > 0 {
		fmt.Fprintf(&b, "\n%s", strings.Join(stops, ", "))
	}
	if margin.checked {
		d := margin.decision
		fmt.Fprintf(&b, "\nмаржа: %s + %s <= %s (ликвидный портфель %s x %s)",
			d.StartingMargin.StringFixed(2), d.Projected.StringFixed(2),
			d.Limit().StringFixed(2), d.LiquidPortfolio.StringFixed(2), d.Coefficient)
	}
	fmt.Fprintf(&b, "\norder %s", res.OrderID)
	withComment(&b, res)
	return b.String()
}

func formatClose(res Result, cancelled int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s\nзакрыто %d лот(ов) по %s\nснято стоп-заявок: %d\norder %s",
		header(res), res.Lots, res.Price, cancelled, res.OrderID)
	withComment(&b, res)
	return b.String()
}

func formatRenew(res Result, cancelled int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s\nновый SL %s на %d лот(ов), снято старых: %d\nstop order %s",
		header(res), res.Price, res.Lots, cancelled, res.OrderID)
	withComment(&b, res)
	return b.String()
}

func title(k Kind) string {
	switch k {
	case KindBadPayload:
		return "Некорректный webhook"
	case KindInstrumentNotFound:
		return "Инструмент не найден"
	case KindUnsupportedType:
		return "Неподдерживаемый тип инструмента"
	case KindUnsupportedPositionSide:
		return "Неподдерживаемое направление позиции"
	case KindIllegalQuantity:
		return "Некорректное количество"
	case KindBalanceNotFound:
		return "Баланс не найден"
	case KindBalanceNonZero:
		return "Позиция уже открыта"
	case KindNothingToClose:
		return "Нечего закрывать"
	case KindNothingToRenewStopLoss:
		return "Нет позиции для переноса стоп-лосса"
	case KindNotEnoughMoney:
		return "Недостаточно средств"
	case KindIllegalOrderStatus:
		return "Ордер не исполнен"
	case KindVerificationIndeterminate:
		return "Статус ордера неизвестен"
	case KindGateway:
		return "Ошибка брокера"
	}
	return k.String()
}

// FormatError: одно сообщение оператору на классифицированную ошибку.
func FormatError(res Result, err error) string {
	var b strings.Builder
	kind := KindOf(err)
	fmt.Fprintf(&b, "❗️ %s\n%s: ", header(res), title(kind))

	var ee *ExecError
	switch {
	case errors.As(err, &ee) && ee.Msg != "" && ee.Err != nil:
		fmt.Fprintf(&b, "%s: %v", ee.Msg, ee.Err)
	case errors.As(err, &ee) && ee.Msg != "":
		b.WriteString(ee.Msg)
	case errors.As(err, &ee) && ee.Err != nil:
		b.WriteString(ee.Err.Error())
	default:
		b.WriteString(err.Error())
	}
	withComment(&b, res)
	return b.String()
}
