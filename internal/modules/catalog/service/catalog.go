package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"webhook_bot/internal/models"
	"webhook_bot/internal/notify"
	"webhook_bot/pkg/logger"
	"webhook_bot/pkg/metrics"

	"github.com/pkg/errors"
)

// Source: полный список инструментов брокера.
type Source interface {
	Instruments(ctx context.Context) ([]models.Instrument, error)
}

// Snapshot неизменяем: обе карты всегда из одного цикла загрузки.
type Snapshot struct {
	Version  uint64
	LoadedAt time.Time

	byKey map[models.CatalogKey]models.Instrument
	byUID map[string]models.Instrument
}

func newSnapshot(version uint64, at time.Time, list []models.Instrument) *Snapshot {
	s := &Snapshot{
		Version:  version,
		LoadedAt: at,
		byKey:    make(map[models.CatalogKey]models.Instrument, len(list)),
		byUID:    make(map[string]models.Instrument, len(list)),
	}
	// при совпадении (ticker, currency) побеждает последний: фьючерсы, акции, фонды
	for _, inst := range list {
		s.byKey[inst.Key()] = inst
		s.byUID[inst.UID] = inst
	}
	return s
}

func (s *Snapshot) Lookup(ticker, currency string) (models.Instrument, bool) {
	if s == nil {
		return models.Instrument{}, false
	}
	inst, ok := s.byKey[models.CatalogKey{Ticker: ticker, Currency: strings.ToLower(currency)}]
	return inst, ok
}

func (s *Snapshot) ByUID(uid string) (models.Instrument, bool) {
	if s == nil {
		return models.Instrument{}, false
	}
	inst, ok := s.byUID[uid]
	return inst, ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byKey)
}

// Catalog: кэш инструментов, владелец единственный писатель (Refresh).
type Catalog struct {
	src      Source
	n        notify.Notifier
	interval time.Duration
	onLoaded func(size int)
	now      func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

func New(src Source, n notify.Notifier, interval time.Duration, onLoaded func(size int)) *Catalog {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Catalog{
		src:      src,
		n:        n,
		interval: interval,
		onLoaded: onLoaded,
		now:      time.Now,
	}
}

// Snapshot: текущий снимок (nil до первой загрузки).
func (c *Catalog) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Catalog) Lookup(ticker, currency string) (models.Instrument, bool) {
	return c.Snapshot().Lookup(ticker, currency)
}

func (c *Catalog) Len() int { return c.Snapshot().Len() }

// Refresh грузит всё заново и подменяет снимок целиком.
// При ошибке старый снимок остаётся как был.
func (c *Catalog) Refresh(ctx context.Context) error {
	list, err := c.src.Instruments(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch instruments")
	}
	if len(list) == 0 {
		return errors.New("fetch instruments: empty universe")
	}

	// карты строятся без блокировки, под мьютексом только подмена
	next := newSnapshot(1, c.now(), list)
	c.mu.Lock()
	if c.snap != nil {
		next.Version = c.snap.Version + 1
	}
	c.snap = next
	c.mu.Unlock()

	metrics.CatalogInstruments.Set(float64(next.Len()))
	if c.onLoaded != nil {
		c.onLoaded(next.Len())
	}
	return nil
}

// Run: обновление сразу и далее каждые interval, пока ctx жив.
// Ошибки уходят оператору, цикл не прерывают.
func (c *Catalog) Run(ctx context.Context) {
	for {
		if err := c.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.CatalogRefreshFailures.Inc()
			logger.Error("catalog refresh: %v", err)
			c.n.Sendf(ctx, "❗️ [catalog] Ошибка обновления каталога инструментов: %v", err)
		} else {
			logger.Info("catalog refreshed: %d instruments", c.Len())
		}

		t := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
