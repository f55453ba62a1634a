package zerodha

import (
	"context"
	"fmt"
	"sort"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

// Kite caps each historical request; day candles allow the widest span.
var maxSpan = map[string]time.Duration{
	"minute":   60 * 24 * time.Hour,
	"5minute":  100 * 24 * time.Hour,
	"15minute": 200 * 24 * time.Hour,
	"30minute": 200 * 24 * time.Hour,
	"60minute": 400 * 24 * time.Hour,
	"day":      2000 * 24 * time.Hour,
}

// HistoricalLoader reads OHLC candles from the Kite historical data API.
type HistoricalLoader struct {
	kc          kiteClient
	interval    string
	instruments *instruments
}

var _ interfaces.MarketData = (*HistoricalLoader)(nil)

func NewHistoricalLoader(apiKey, accessToken, interval string) *HistoricalLoader {
	c := kiteconnect.New(apiKey)
	c.SetAccessToken(accessToken)
	return newHistoricalLoader(c, interval)
}

func newHistoricalLoader(kc kiteClient, interval string) *HistoricalLoader {
	return &HistoricalLoader{kc: kc, interval: kiteInterval(interval), instruments: newInstruments()}
}

// Register binds symbol to its Kite instrument token.
func (h *HistoricalLoader) Register(symbol string, token int) {
	h.instruments.add(symbol, token)
}

func (h *HistoricalLoader) Load(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error) {
	token, ok := h.instruments.token(symbol)
	if !ok {
		return nil, fmt.Errorf("no instrument token registered for %s", symbol)
	}

	span := maxSpan[h.interval]
	var out []types.Candle
	for from := start; from.Before(end); from = from.Add(span) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		to := from.Add(span)
		if to.After(end) {
			to = end
		}
		rows, err := h.kc.GetHistoricalData(token, h.interval, from, to, false, false)
		if err != nil {
			return nil, fmt.Errorf("historical data %s %s..%s: %w", symbol, from.Format(time.DateOnly), to.Format(time.DateOnly), err)
		}
		for _, r := range rows {
			ts := r.Date.Unix()
			if ts < start.Unix() || ts >= end.Unix() {
				continue
			}
			out = append(out, types.Candle{Ts: ts, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Vol: float64(r.Volume)})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ts < out[j].Ts })
	out = dedupe(out)
	logger.Debug(ctx, "Historical candles loaded", "symbol", symbol, "interval", h.interval, "count", len(out))
	return out, nil
}

func dedupe(cs []types.Candle) []types.Candle {
	if len(cs) < 2 {
		return cs
	}
	w := 1
	for i := 1; i < len(cs); i++ {
		if cs[i].Ts != cs[w-1].Ts {
			cs[w] = cs[i]
			w++
		}
	}
	return cs[:w]
}

// kiteInterval maps the config interval notation to Kite's candle names.
func kiteInterval(s string) string {
	switch s {
	case "1m", "minute":
		return "minute"
	case "5m", "5minute":
		return "5minute"
	case "15m", "15minute":
		return "15minute"
	case "30m", "30minute":
		return "30minute"
	case "1h", "60m", "60minute":
		return "60minute"
	default:
		return "day"
	}
}
