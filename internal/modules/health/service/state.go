package service

import (
	"sync/atomic"
	"time"
)

// State: флаги здоровья процесса, читаются /readyz, /healthz и /status.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastSignalUnix atomic.Int64 // unix seconds
	catalogSize    atomic.Int64
	deferred       atomic.Int64
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) Ready() bool { return s.ready.Load() }

// CatalogLoaded отмечает первый (и каждый следующий) снимок каталога.
func (s *State) CatalogLoaded(size int) {
	s.catalogSize.Store(int64(size))
	s.ready.Store(true)
}
func (s *State) CatalogSize() int { return int(s.catalogSize.Load()) }

func (s *State) TouchSignal(t time.Time) { s.lastSignalUnix.Store(t.Unix()) }
func (s *State) LastSignal() time.Time {
	u := s.lastSignalUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// AddDeferred: +1 при откладывании сигнала, -1 при возврате в очередь.
func (s *State) AddDeferred(delta int) { s.deferred.Add(int64(delta)) }
func (s *State) Deferred() int         { return int(s.deferred.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
