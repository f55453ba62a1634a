package ta

import (
	"errors"
	"math"

	"sentiment-trader/internal/types"
)

// ErrInsufficientData is returned when fewer closes exist than the indicator period.
var ErrInsufficientData = errors.New("ta: insufficient data")

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// StdDev is the population standard deviation of the last n values.
func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// Bollinger computes SMA(n) +/- k standard deviations over the trailing n closes.
func Bollinger(closes []float64, n int, k float64) (types.Bands, error) {
	if n <= 0 || len(closes) < n {
		return types.Bands{}, ErrInsufficientData
	}
	mid := SMA(closes, n)
	sd := StdDev(closes, n)
	off := math.Abs(k) * sd
	return types.Bands{Upper: mid + off, Middle: mid, Lower: mid - off}, nil
}
