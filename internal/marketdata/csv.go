package marketdata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

// csvRow matches the column layout of a Yahoo Finance history download.
type csvRow struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume float64 `csv:"Volume"`
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, time.DateTime}

// CSVLoader reads bars from a single-symbol CSV file.
type CSVLoader struct {
	Path string
}

var _ interfaces.MarketData = (*CSVLoader)(nil)

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

func (l *CSVLoader) Load(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Path, err)
	}

	out := make([]types.Candle, 0, len(rows))
	for i, r := range rows {
		ts, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", l.Path, i+2, err)
		}
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		out = append(out, types.Candle{Ts: ts.Unix(), Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Vol: r.Volume})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ts < out[j].Ts })
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
