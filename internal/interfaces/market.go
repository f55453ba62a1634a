package interfaces

import (
	"context"
	"time"

	"sentiment-trader/internal/types"
)

// MarketData loads historical OHLC bars for a symbol in [start, end), oldest first.
type MarketData interface {
	Load(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error)
}

// History exposes the bars seen so far by the decision loop.
type History interface {
	History(symbol string) []types.Candle
}
