package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"webhook_bot/internal/notify"
	"webhook_bot/pkg/logger"
	"webhook_bot/pkg/metrics"

	"github.com/pkg/errors"
)

type Fetcher interface {
	Fetch(ctx context.Context) (map[string]float64, error)
}

// TickerSource: тикеры, приходившие в сигналах.
type TickerSource interface {
	All() ([]string, error)
}

type Config struct {
	Interval     time.Duration
	StepPercent  float64
	StatsHour    int
	BaselinePath string
	InlineLimit  int
}

// Monitor следит за процентом ГО отслеживаемых тикеров.
// Алерт — когда значение ушло дальше StepPercent п.п. от точки прошлого алерта.
type Monitor struct {
	feed    Fetcher
	tickers TickerSource
	n       notify.Notifier
	cfg     Config
	now     func() time.Time

	baseline  *Baseline
	lastAlert map[string]float64
}

func New(feed Fetcher, tickers TickerSource, n notify.Notifier, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.InlineLimit <= 0 {
		cfg.InlineLimit = 5
	}
	return &Monitor{
		feed:      feed,
		tickers:   tickers,
		n:         n,
		cfg:       cfg,
		now:       time.Now,
		lastAlert: make(map[string]float64),
	}
}

func (m *Monitor) tracked(ctx context.Context) (map[string]float64, error) {
	all, err := m.feed.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch margins")
	}
	list, err := m.tickers.All()
	if err != nil {
		return nil, errors.Wrap(err, "load tickers")
	}
	out := make(map[string]float64, len(list))
	for _, t := range list {
		if v, ok := all[t]; ok {
			out[t] = v
		}
	}
	return out, nil
}

func (m *Monitor) setBaseline(date string, cur map[string]float64) error {
	values := make(map[string]float64, len(cur))
	for t, v := range cur {
		values[t] = v
	}
	m.baseline = &Baseline{Date: date, Values: values}
	m.lastAlert = make(map[string]float64, len(values))
	for t, v := range values {
		m.lastAlert[t] = v
	}
	return SaveBaseline(m.cfg.BaselinePath, m.baseline)
}

// Tick: одна итерация: алерты, затем дайджест, если пора.
func (m *Monitor) Tick(ctx context.Context) error {
	cur, err := m.tracked(ctx)
	if err != nil {
		return err
	}
	now := m.now().UTC()
	today := now.Format(dateLayout)

	if m.baseline == nil {
		bl, err := LoadBaseline(m.cfg.BaselinePath)
		if err != nil {
			return err
		}
		if bl == nil {
			return m.setBaseline(today, cur)
		}
		m.baseline = bl
		for t, v := range bl.Values {
			m.lastAlert[t] = v
		}
	}

	m.alerts(ctx, cur)

	if now.Hour() >= m.cfg.StatsHour && m.baseline.Date != today {
		m.digest(ctx, cur)
		return m.setBaseline(today, cur)
	}
	return nil
}

func (m *Monitor) alerts(ctx context.Context, cur map[string]float64) {
	tickers := make([]string, 0, len(cur))
	for t := range cur {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, t := range tickers {
		v := cur[t]
		ref, ok := m.lastAlert[t]
		if !ok {
			// новый тикер: точка отсчёта — первое значение
			m.lastAlert[t] = v
			continue
		}
		if math.Abs(v-ref) <= m.cfg.StepPercent {
			continue
		}
		msg := fmt.Sprintf("⚠️ [%s] ГО %.2f%% → %.2f%% (%+.2f п.п.)", t, ref, v, v-ref)
		if base, ok := m.baseline.Values[t]; ok {
			msg += fmt.Sprintf(", от базы %s: %+.2f п.п.", m.baseline.Date, v-base)
		}
		m.n.Send(ctx, msg)
		metrics.MarginAlerts.Inc()
		m.lastAlert[t] = v
	}
}

func (m *Monitor) digest(ctx context.Context, cur map[string]float64) {
	changes := diff(m.baseline.Values, cur)
	text := formatDigest(m.baseline.Date, changes)
	if len(changes) <= m.cfg.InlineLimit {
		m.n.Send(ctx, text)
		return
	}
	name := fmt.Sprintf("margin_digest_%s.txt", m.baseline.Date)
	m.n.SendDocument(ctx, name, []byte(text), fmt.Sprintf("📊 ГО за %s: %d тикеров", m.baseline.Date, len(changes)))
}

// Run: Tick каждые Interval; ошибки оператору, цикл не прерывают.
func (m *Monitor) Run(ctx context.Context) {
	for {
		if err := m.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error("margin monitor: %v", err)
			m.n.Sendf(ctx, "❗️ [margin] Ошибка мониторинга ГО: %v", err)
		}

		t := time.NewTimer(m.cfg.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
