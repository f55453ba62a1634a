package features

import (
	"errors"

	"sentiment-trader/internal/types"
)

// ErrInsufficientHistory means the series is shorter than the requested window.
var ErrInsufficientHistory = errors.New("features: insufficient history")

// Extract returns the closes of the last n candles, oldest first.
// The result is a fresh slice and never aliases series.
func Extract(series []types.Candle, n int) (types.FeatureWindow, error) {
	if n <= 0 || len(series) < n {
		return nil, ErrInsufficientHistory
	}
	tail := series[len(series)-n:]
	w := make(types.FeatureWindow, n)
	for i, c := range tail {
		w[i] = c.Close
	}
	return w, nil
}

// Closes returns every close in series, oldest first.
func Closes(series []types.Candle) []float64 {
	out := make([]float64, len(series))
	for i, c := range series {
		out[i] = c.Close
	}
	return out
}
