package marketdata

import (
	"errors"
	"fmt"
	"sync"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

var ErrOutOfOrder = errors.New("marketdata: bar timestamp is not after the last bar")

// Series is an append-only per-symbol price history fed one bar at a time.
type Series struct {
	mu   sync.RWMutex
	bars map[string][]types.Candle
}

var _ interfaces.History = (*Series)(nil)

func NewSeries() *Series {
	return &Series{bars: make(map[string][]types.Candle)}
}

// Append adds c to symbol's history. Timestamps must be strictly increasing.
func (s *Series) Append(symbol string, c types.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bars := s.bars[symbol]
	if n := len(bars); n > 0 && c.Ts <= bars[n-1].Ts {
		return fmt.Errorf("%w: %s %d <= %d", ErrOutOfOrder, symbol, c.Ts, bars[n-1].Ts)
	}
	s.bars[symbol] = append(bars, c)
	return nil
}

// History returns a snapshot of symbol's bars, oldest first.
func (s *Series) History(symbol string) []types.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bars := s.bars[symbol]
	out := make([]types.Candle, len(bars))
	copy(out, bars)
	return out
}

// Last returns the newest bar for symbol.
func (s *Series) Last(symbol string) (types.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bars := s.bars[symbol]
	if len(bars) == 0 {
		return types.Candle{}, false
	}
	return bars[len(bars)-1], true
}

// Sync appends the bars in cs newer than the last one held and returns how many were added.
func (s *Series) Sync(symbol string, cs []types.Candle) int {
	added := 0
	for _, c := range cs {
		if err := s.Append(symbol, c); err == nil {
			added++
		}
	}
	return added
}
