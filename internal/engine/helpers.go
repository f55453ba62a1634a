package engine

import (
	"sentiment-trader/internal/features"
	"sentiment-trader/internal/ta"
	"sentiment-trader/internal/types"
)

// prepare slices the feature window and computes the bands for the latest bar.
// Either step failing means the bar has too little history.
func prepare(series []types.Candle, window, bbPeriod int, bbK float64) (types.FeatureWindow, types.Bands, error) {
	w, err := features.Extract(series, window)
	if err != nil {
		return nil, types.Bands{}, err
	}
	bands, err := ta.Bollinger(features.Closes(series), bbPeriod, bbK)
	if err != nil {
		return nil, types.Bands{}, err
	}
	return w, bands, nil
}

func bandsMap(b *types.Bands) map[string]float64 {
	if b == nil {
		return nil
	}
	return map[string]float64{"BB_UP": b.Upper, "BB_MID": b.Middle, "BB_LOW": b.Lower}
}
