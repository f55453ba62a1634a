package marketdata

import (
	"context"
	"math/rand"
	"time"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

// StaticLoader generates a deterministic daily random walk. It needs no network
// and is used for smoke runs and tests.
type StaticLoader struct {
	Seed  int64
	Start float64
}

var _ interfaces.MarketData = (*StaticLoader)(nil)

func NewStaticLoader(seed int64) *StaticLoader {
	return &StaticLoader{Seed: seed, Start: 400}
}

func (s *StaticLoader) Load(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error) {
	rng := rand.New(rand.NewSource(s.Seed))
	price := s.Start
	var out []types.Candle
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		open := price
		price *= 1 + (rng.Float64()-0.5)*0.03
		hi := max(open, price) * (1 + rng.Float64()*0.005)
		lo := min(open, price) * (1 - rng.Float64()*0.005)
		out = append(out, types.Candle{Ts: d.Unix(), Open: open, High: hi, Low: lo, Close: price, Vol: 1e6 * (0.5 + rng.Float64())})
	}
	return out, nil
}
