package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sentiment-trader/internal/broker/paper"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/marketdata"
	"sentiment-trader/internal/report"
	"sentiment-trader/internal/types"
)

// Summary describes a finished backtest.
type Summary struct {
	RunID        string
	Symbol       string
	Bars         int
	Decisions    map[types.Action]int
	Reasons      map[string]int
	Fills        []report.Fill
	StartingCash float64
	FinalEquity  float64
	Return       float64
}

// Runner replays historical bars through the engine one at a time. The engine
// must read from the same Series and trade against the same paper broker.
type Runner struct {
	data   interfaces.MarketData
	series *marketdata.Series
	broker *paper.Broker
	engine interfaces.Engine
}

func NewRunner(data interfaces.MarketData, series *marketdata.Series, broker *paper.Broker, engine interfaces.Engine) *Runner {
	return &Runner{data: data, series: series, broker: broker, engine: engine}
}

// Run loads [start, end) for symbol once and steps through every bar in order.
func (r *Runner) Run(ctx context.Context, symbol string, start, end time.Time) (*Summary, error) {
	sum := &Summary{
		RunID:        uuid.NewString(),
		Symbol:       symbol,
		Decisions:    map[types.Action]int{},
		Reasons:      map[string]int{},
		StartingCash: r.broker.StartingCash(),
	}
	logger.Info(ctx, "Backtest starting", "run_id", sum.RunID, "symbol", symbol,
		"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly), "cash", sum.StartingCash)

	bars, err := r.data.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("load %s: %w", symbol, marketdata.ErrNoData)
	}

	for _, bar := range bars {
		if err := r.series.Append(symbol, bar); err != nil {
			logger.Warn(ctx, "Dropping bar", "symbol", symbol, "ts", bar.Ts, "error", err)
			continue
		}
		r.broker.Mark(symbol, bar.Close)

		res, err := r.engine.Step(ctx, symbol)
		if err != nil {
			return nil, err
		}
		sum.Bars++
		sum.Decisions[res.Instruction.Action]++
		sum.Reasons[res.Reason]++
		for _, o := range res.Orders {
			if o.Qty > 0 {
				sum.Fills = append(sum.Fills, report.Fill{Symbol: symbol, OrderResp: o})
			}
		}
	}

	snap := r.broker.Snapshot()
	sum.FinalEquity = snap.Equity
	if sum.StartingCash > 0 {
		sum.Return = sum.FinalEquity/sum.StartingCash - 1
	}
	logger.Info(ctx, "Backtest finished",
		"run_id", sum.RunID,
		"bars", sum.Bars,
		"fills", len(sum.Fills),
		"final_equity", sum.FinalEquity,
		"return", sum.Return,
		"realized_pnl", snap.RealizedPnL,
		"commission", snap.Commission,
	)
	return sum, nil
}
