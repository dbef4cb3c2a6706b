// Package blackout: UTC-окна, в которые сигналы не исполняются, а откладываются.
package blackout

import (
	"fmt"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Window: [Start, End) от полуночи UTC. End <= Start — окно через полночь.
type Window struct {
	Start time.Duration
	End   time.Duration
	raw   string
}

func (w Window) String() string { return w.raw }

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Parse разбирает "HH:MM-HH:MM".
func Parse(s string) (Window, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("blackout window %q: want HH:MM-HH:MM", s)
	}
	from, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("blackout window %q: %w", s, err)
	}
	to, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("blackout window %q: %w", s, err)
	}
	return Window{Start: from, End: to, raw: strings.TrimSpace(s)}, nil
}

// interval окна, начавшегося в сутки anchor (полночь UTC).
func (w Window) interval(anchor time.Time) (time.Time, time.Time) {
	start := anchor.Add(w.Start)
	end := anchor.Add(w.End)
	if w.End <= w.Start {
		end = end.Add(day)
	}
	return start, end
}

// Contains проверяет окно от сегодняшней и вчерашней полуночи,
// возвращает конец окна, в которое попал t.
func (w Window) Contains(t time.Time) (bool, time.Time) {
	t = t.UTC()
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for _, anchor := range []time.Time{today, today.Add(-day)} {
		start, end := w.interval(anchor)
		if !t.Before(start) && t.Before(end) {
			return true, end
		}
	}
	return false, time.Time{}
}

type Schedule []Window

func ParseAll(list []string) (Schedule, error) {
	out := make(Schedule, 0, len(list))
	for _, s := range list {
		w, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Active: при пересечении окон ждём самый поздний конец.
func (s Schedule) Active(t time.Time) (bool, time.Time) {
	var (
		hit bool
		end time.Time
	)
	for _, w := range s {
		if ok, e := w.Contains(t); ok {
			hit = true
			if e.After(end) {
				end = e
			}
		}
	}
	return hit, end
}
