package helper

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var yearToken = regexp.MustCompile(`\d{4}`)

// NormalizeTicker: "MOEX:SBER" -> "SBER", "RIZ2024" -> "RIZ4".
func NormalizeTicker(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	return yearToken.ReplaceAllStringFunc(s, func(y string) string {
		return y[len(y)-1:]
	})
}

// RoundDownToTick: floor до шага цены, не до ближайшего.
func RoundDownToTick(px, tick decimal.Decimal) decimal.Decimal {
	if tick.Sign() <= 0 {
		return px
	}
	steps := px.Div(tick).Floor()
	out := steps.Mul(tick)
	if places := -tick.Exponent(); places > 0 {
		return out.Round(places)
	}
	return out
}

func AbsInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
