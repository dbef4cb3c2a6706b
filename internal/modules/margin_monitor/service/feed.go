package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Feed: публичная выгрузка биржи с initial_margin_percent по инструментам.
type Feed struct {
	http *http.Client
	url  string
}

func NewFeed(url string, timeout time.Duration) *Feed {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Feed{http: &http.Client{Timeout: timeout}, url: url}
}

func (f *Feed) Fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}
	return ParseMargins(resp.Body)
}

var symbolAttrs = []string{"secid", "symbol", "ticker"}

// ParseMargins читает все <row> с атрибутами тикера и initial_margin_percent.
// Строки без процента или с нечисловым значением пропускаются.
func ParseMargins(r io.Reader) (map[string]float64, error) {
	dec := xml.NewDecoder(r)
	out := make(map[string]float64)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode margin xml: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(el.Name.Local, "row") {
			continue
		}

		attrs := make(map[string]string, len(el.Attr))
		for _, a := range el.Attr {
			attrs[strings.ToLower(a.Name.Local)] = strings.TrimSpace(a.Value)
		}
		var symbol string
		for _, name := range symbolAttrs {
			if v := attrs[name]; v != "" {
				symbol = v
				break
			}
		}
		raw, ok := attrs["initial_margin_percent"]
		if symbol == "" || !ok || raw == "" {
			continue
		}
		pct, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			continue
		}
		out[symbol] = pct
	}
	return out, nil
}
