// Package verify ждёт исполнения ордера опросом состояния с ограниченным числом попыток.
package verify

import (
	"context"
	"fmt"
	"time"
	"webhook_bot/internal/models"
	"webhook_bot/pkg/logger"
	"webhook_bot/pkg/metrics"
	"webhook_bot/pkg/tracing"
)

type StateSource interface {
	OrderState(ctx context.Context, orderID string) (models.OrderState, error)
}

// StatusError: ордер в терминальном статусе ошибки или попытки кончились.
type StatusError struct {
	OrderID  string
	Status   models.OrderStatus
	Attempts int
	Terminal bool // статус из списка fail, а не исчерпание попыток
}

func (e *StatusError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("order %s reached %s after %d polls", e.OrderID, e.Status, e.Attempts)
	}
	return fmt.Sprintf("order %s still %s after %d polls", e.OrderID, e.Status, e.Attempts)
}

// IndeterminateError: ни один опрос не прочитал статус.
type IndeterminateError struct {
	OrderID  string
	Attempts int
	LastErr  error
}

func (e *IndeterminateError) Error() string {
	return fmt.Sprintf("order %s status unknown after %d polls: %v", e.OrderID, e.Attempts, e.LastErr)
}

func (e *IndeterminateError) Unwrap() error { return e.LastErr }

type Verifier struct {
	src      StateSource
	attempts int
	delay    time.Duration
}

func New(src StateSource, attempts int, delay time.Duration) *Verifier {
	if attempts < 1 {
		attempts = 1
	}
	if delay < 0 {
		delay = 0
	}
	return &Verifier{src: src, attempts: attempts, delay: delay}
}

// Verify опрашивает ордер до статуса want. Статус из fail завершает сразу.
// Ошибки опроса считаются неудачной попыткой. Между попытками пауза delay,
// после последней паузы нет.
func (v *Verifier) Verify(ctx context.Context, orderID string, want models.OrderStatus, fail ...models.OrderStatus) (st models.OrderState, err error) {
	span, ctx := tracing.StartSpan(ctx, "verify.order", map[string]string{"order_id": orderID})
	defer func() { tracing.Finish(span, err) }()

	var (
		last    models.OrderState
		read    bool
		lastErr error
	)
	for attempt := 1; attempt <= v.attempts; attempt++ {
		cur, qerr := v.src.OrderState(ctx, orderID)
		if qerr != nil {
			lastErr = qerr
			logger.Warn("[verify] order %s poll %d/%d: %v", orderID, attempt, v.attempts, qerr)
		} else {
			last, read = cur, true
			if cur.Status == want {
				metrics.VerifyAttempts.Observe(float64(attempt))
				return cur, nil
			}
			for _, f := range fail {
				if cur.Status == f {
					metrics.VerifyAttempts.Observe(float64(attempt))
					return cur, &StatusError{OrderID: orderID, Status: cur.Status, Attempts: attempt, Terminal: true}
				}
			}
		}

		if attempt == v.attempts {
			break
		}
		if err := sleep(ctx, v.delay); err != nil {
			return last, err
		}
	}

	metrics.VerifyAttempts.Observe(float64(v.attempts))
	if !read {
		return last, &IndeterminateError{OrderID: orderID, Attempts: v.attempts, LastErr: lastErr}
	}
	return last, &StatusError{OrderID: orderID, Status: last.Status, Attempts: v.attempts}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
