package runner

import (
	"errors"
	"webhook_bot/internal/models"
	"webhook_bot/pkg/metrics"
)

var ErrQueueFull = errors.New("webhook queue is full")

// Enqueue кладёт сырой webhook в очередь, не блокируясь.
func (r *Runner) Enqueue(body []byte) error {
	wh := models.Webhook{Body: append([]byte(nil), body...), ReceivedAt: r.now()}
	select {
	case r.queue <- wh:
		metrics.QueueLength.Set(float64(len(r.queue)))
		return nil
	default:
		return ErrQueueFull
	}
}
