package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type change struct {
	Ticker string
	From   float64
	To     float64
}

func (c change) Delta() float64 { return c.To - c.From }

// diff по тикерам, есть и в базе и в текущих значениях; по |Δ| убыванию.
func diff(base, cur map[string]float64) []change {
	out := make([]change, 0, len(cur))
	for t, v := range cur {
		from, ok := base[t]
		if !ok {
			continue
		}
		out = append(out, change{Ticker: t, From: from, To: v})
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := math.Abs(out[i].Delta()), math.Abs(out[j].Delta())
		if di != dj {
			return di > dj
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

func formatDigest(date string, changes []change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 ГО за %s (%d тикеров)", date, len(changes))
	for _, c := range changes {
		fmt.Fprintf(&b, "\n%s: %.2f%% → %.2f%% (%+.2f п.п.)", c.Ticker, c.From, c.To, c.Delta())
	}
	return b.String()
}
