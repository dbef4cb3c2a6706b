// Package admission: проверка достаточности маржи перед открытием фьючерса.
package admission

import (
	"context"
	"webhook_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Source interface {
	LastPrice(ctx context.Context, uid string) (decimal.Decimal, error)
	MarginAttributes(ctx context.Context) (models.MarginAttributes, error)
	FuturesMargin(ctx context.Context, uid string) (decimal.Decimal, error)
}

// Decision: все цифры для оператора, и при допуске, и при отказе.
type Decision struct {
	StartingMargin  decimal.Decimal
	Projected       decimal.Decimal
	LiquidPortfolio decimal.Decimal
	Coefficient     decimal.Decimal
	Admitted        bool
}

// Limit = liquid * coefficient.
func (d Decision) Limit() decimal.Decimal {
	return d.LiquidPortfolio.Mul(d.Coefficient)
}

// Check: допускаем iff starting + projected <= liquid * coefficient.
func Check(starting, projected, liquid, coefficient decimal.Decimal) Decision {
	d := Decision{
		StartingMargin:  starting,
		Projected:       projected,
		LiquidPortfolio: liquid,
		Coefficient:     coefficient,
	}
	d.Admitted = starting.Add(projected).LessThanOrEqual(d.Limit())
	return d
}

// ProjectedMargin: цена в шагах * стоимость шага * ставка * лоты.
func ProjectedMargin(lastPrice, minIncrement, incrementAmount, rate decimal.Decimal, lots int64) (decimal.Decimal, error) {
	if !minIncrement.IsPositive() {
		return decimal.Zero, errors.Errorf("min price increment must be > 0, got %s", minIncrement)
	}
	perLot := lastPrice.Div(minIncrement).Mul(incrementAmount)
	return perLot.Mul(rate).Mul(decimal.NewFromInt(lots)), nil
}

type Controller struct {
	src         Source
	coefficient decimal.Decimal
}

func New(src Source, coefficient float64) *Controller {
	return &Controller{src: src, coefficient: decimal.NewFromFloat(coefficient)}
}

// Admit считает маржу по свежим данным брокера, ничего не кэширует.
func (c *Controller) Admit(ctx context.Context, inst models.Instrument, side models.PositionSide, lots int64) (Decision, error) {
	if inst.Future == nil {
		return Decision{}, errors.Errorf("%s is not a future", inst.Ticker)
	}

	rate := inst.Future.MarginRateLong
	if side == models.SideShort {
		rate = inst.Future.MarginRateShort
	}

	amount := inst.Future.MinPriceIncrementAmount
	if !amount.IsPositive() {
		var err error
		amount, err = c.src.FuturesMargin(ctx, inst.UID)
		if err != nil {
			return Decision{}, errors.Wrap(err, "price increment amount")
		}
	}

	price, err := c.src.LastPrice(ctx, inst.UID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "last price")
	}

	projected, err := ProjectedMargin(price, inst.MinPriceIncrement, amount, rate, lots)
	if err != nil {
		return Decision{}, err
	}

	attrs, err := c.src.MarginAttributes(ctx)
	if err != nil {
		return Decision{}, errors.Wrap(err, "margin attributes")
	}

	return Check(attrs.StartingMargin, projected, attrs.LiquidPortfolio, c.coefficient), nil
}
