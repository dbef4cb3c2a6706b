package runner

import (
	"context"
	"fmt"
	"sync"
	"time"
	"webhook_bot/internal/models"
	journalsvc "webhook_bot/internal/modules/journal/service"
	"webhook_bot/internal/notify"
	"webhook_bot/internal/runner/blackout"
	"webhook_bot/pkg/logger"
	"webhook_bot/pkg/metrics"
	"webhook_bot/pkg/tracing"
)

type SignalProcessor interface {
	Process(ctx context.Context, body []byte) (Result, error)
}

// Tracker: счётчики для health и /status.
type Tracker interface {
	TouchSignal(t time.Time)
	AddDeferred(delta int)
}

// Runner: очередь webhook'ов с единственным потребителем.
type Runner struct {
	proc    SignalProcessor
	n       notify.Notifier
	journal journalsvc.Journal
	tracker Tracker
	windows blackout.Schedule

	queue chan models.Webhook
	now   func() time.Time
	after func(d time.Duration) <-chan time.Time

	deferred sync.WaitGroup
}

func New(proc SignalProcessor, n notify.Notifier, j journalsvc.Journal, tracker Tracker, windows blackout.Schedule, queueSize int) *Runner {
	if queueSize < 1 {
		queueSize = 1
	}
	if j == nil {
		j = journalsvc.Noop{}
	}
	return &Runner{
		proc:    proc,
		n:       n,
		journal: j,
		tracker: tracker,
		windows: windows,
		queue:   make(chan models.Webhook, queueSize),
		now:     time.Now,
		after:   time.After,
	}
}

func (r *Runner) QueueLen() int { return len(r.queue) }

// Run разбирает очередь до отмены ctx. Начатый сигнал доделывается
// до конца: обработка идёт в контексте без отмены.
func (r *Runner) Run(ctx context.Context) {
	work := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			r.deferred.Wait()
			return
		case wh := <-r.queue:
			metrics.QueueLength.Set(float64(len(r.queue)))
			r.handle(work, ctx, wh)
		}
	}
}

// handle: ctx без отмены для работы, stop для отложенной доставки.
func (r *Runner) handle(ctx, stop context.Context, wh models.Webhook) {
	now := r.now()
	if in, end := r.windows.Active(now); in {
		r.deferUntil(stop, wh, end)
		return
	}
	if r.tracker != nil {
		r.tracker.TouchSignal(now)
	}

	span, ctx := tracing.StartSpan(ctx, "signal.process", nil)
	res, err := r.proc.Process(ctx, wh.Body)
	span.SetTag("type", string(res.Signal.Type))
	span.SetTag("ticker", res.Ticker)
	tracing.Finish(span, err)

	entry := journalsvc.Entry{
		At:     now,
		Type:   string(res.Signal.Type),
		Ticker: res.Ticker,
		Side:   string(res.Signal.PositionSide),
		Result: "ok",
	}

	var msg string
	if err != nil {
		msg = FormatError(res, err)
		entry.Result = KindOf(err).String()
		logger.Warn("[runner] signal %s %s failed: %v", res.Signal.Type, res.Ticker, err)
	} else {
		msg = res.Message
		entry.OrderID, entry.Lots, entry.Price = res.OrderID, res.Lots, res.Price
		logger.Info("[runner] signal %s %s done in %s: order=%s lots=%d price=%s",
			res.Signal.Type, res.Ticker, r.now().Sub(wh.ReceivedAt).Truncate(time.Millisecond),
			res.OrderID, res.Lots, res.Price)
	}
	entry.Message = msg
	metrics.SignalsTotal.WithLabelValues(string(res.Signal.Type), entry.Result).Inc()

	r.n.Send(ctx, msg)

	if jerr := r.journal.Record(ctx, entry); jerr != nil {
		logger.Error("[runner] journal record: %v", jerr)
	}
}

// deferUntil возвращает payload в очередь после конца окна.
func (r *Runner) deferUntil(stop context.Context, wh models.Webhook, end time.Time) {
	metrics.SignalsDeferred.Inc()
	if r.tracker != nil {
		r.tracker.AddDeferred(1)
	}
	logger.Info("[runner] signal deferred until %s (blackout window)", end.Format(time.RFC3339))

	r.deferred.Add(1)
	go func() {
		defer r.deferred.Done()
		if r.tracker != nil {
			defer r.tracker.AddDeferred(-1)
		}

		for wait := end.Sub(r.now()); wait > 0; wait = end.Sub(r.now()) {
			select {
			case <-stop.Done():
				logger.Warn("[runner] shutdown, deferred signal dropped: %s", string(wh.Body))
				return
			case <-r.after(wait):
			}
		}

		select {
		case <-stop.Done():
			logger.Warn("[runner] shutdown, deferred signal dropped: %s", string(wh.Body))
		case r.queue <- wh:
			metrics.QueueLength.Set(float64(len(r.queue)))
		}
	}()
}

// Status: текст для /status.
func (r *Runner) Status(catalogSize, deferred int, uptime time.Duration) string {
	return fmt.Sprintf("🩺 STATUS | catalog=%d | queue=%d | deferred=%d | uptime=%s",
		catalogSize, r.QueueLen(), deferred, uptime.Truncate(time.Second))
}
