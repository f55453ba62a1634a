package report

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"

	"sentiment-trader/internal/types"
)

// Fill is one executed order as seen by the decision loop.
type Fill struct {
	Symbol string
	types.OrderResp
}

// Row aggregates the fills of one symbol. The final row of a report is a TOTAL.
type Row struct {
	Symbol         string  `csv:"symbol"`
	BuyQty         int     `csv:"buy_qty"`
	BuyAvg         float64 `csv:"buy_avg"`
	SellQty        int     `csv:"sell_qty"`
	SellAvg        float64 `csv:"sell_avg"`
	RealizedPnL    float64 `csv:"realized_pnl"`
	GrossBuyValue  float64 `csv:"gross_buy_value"`
	GrossSellValue float64 `csv:"gross_sell_value"`
}

// Summarize groups fills by symbol and matches buy against sell quantity at
// average prices to estimate realized P&L.
func Summarize(fills []Fill) []Row {
	aggs := map[string]*Row{}
	for _, f := range fills {
		if f.Qty <= 0 {
			continue
		}
		r := aggs[f.Symbol]
		if r == nil {
			r = &Row{Symbol: f.Symbol}
			aggs[f.Symbol] = r
		}
		value := float64(f.Qty) * f.Price
		switch f.Side {
		case "BUY":
			r.BuyQty += f.Qty
			r.GrossBuyValue += value
		case "SELL":
			r.SellQty += f.Qty
			r.GrossSellValue += value
		}
	}
	if len(aggs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys)+1)
	total := Row{Symbol: "TOTAL"}
	for _, k := range keys {
		r := aggs[k]
		if r.BuyQty > 0 {
			r.BuyAvg = r.GrossBuyValue / float64(r.BuyQty)
		}
		if r.SellQty > 0 {
			r.SellAvg = r.GrossSellValue / float64(r.SellQty)
		}
		matched := min(r.BuyQty, r.SellQty)
		r.RealizedPnL = float64(matched) * (r.SellAvg - r.BuyAvg)

		total.RealizedPnL += r.RealizedPnL
		total.GrossBuyValue += r.GrossBuyValue
		total.GrossSellValue += r.GrossSellValue
		rows = append(rows, *r)
	}
	return append(rows, total)
}

// WriteCSV writes rows to path, creating parent directories.
func WriteCSV(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}
