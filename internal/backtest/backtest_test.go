package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentiment-trader/internal/broker/paper"
	"sentiment-trader/internal/engine"
	"sentiment-trader/internal/marketdata"
	"sentiment-trader/internal/sentiment"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/tradelog"
	"sentiment-trader/internal/types"
)

type cannedInterpreter struct {
	text  string
	calls int
}

func (c *cannedInterpreter) Interpret(ctx context.Context, req types.InterpretationRequest) (string, error) {
	c.calls++
	return c.text, nil
}

type emptyLoader struct{}

func (emptyLoader) Load(ctx context.Context, symbol string, start, end time.Time) ([]types.Candle, error) {
	return nil, nil
}

func newRunner(t *testing.T, text string) (*Runner, *cannedInterpreter) {
	t.Helper()
	tradelog.SetDir(t.TempDir())
	t.Cleanup(func() { tradelog.SetDir("") })

	cfg := store.Default()
	series := marketdata.NewSeries()
	brk := paper.NewBroker(cfg.Broker.StartingCash, cfg.Broker.CommissionRate)
	interp := &cannedInterpreter{text: text}
	eng, err := engine.New(cfg, series, brk, interp, sentiment.NewAnalyzer())
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	return NewRunner(marketdata.NewStaticLoader(1), series, brk, eng), interp
}

func TestRun_BullishTextGoesLongOnce(t *testing.T) {
	r, interp := newRunner(t, "The outlook is good")
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	sum, err := r.Run(context.Background(), "SPY", start, end)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.RunID == "" {
		t.Error("RunID is empty")
	}
	if sum.Bars < 100 {
		t.Fatalf("Bars = %d, want a full five months of weekdays", sum.Bars)
	}
	if got := sum.Reasons[types.ReasonInsufficientHistory]; got != 29 {
		t.Errorf("insufficient_history = %d, want 29", got)
	}
	if interp.calls != sum.Bars-29 {
		t.Errorf("interpreter calls = %d, want %d", interp.calls, sum.Bars-29)
	}
	if sum.Decisions[types.GoLong] != 1 || sum.Decisions[types.Hold] != sum.Bars-1 {
		t.Errorf("decisions = %v", sum.Decisions)
	}
	if len(sum.Fills) != 1 || sum.Fills[0].Side != "BUY" {
		t.Errorf("fills = %+v", sum.Fills)
	}
	if sum.StartingCash != 1000 || sum.FinalEquity <= 0 {
		t.Errorf("cash %v equity %v", sum.StartingCash, sum.FinalEquity)
	}
}

func TestRun_NeutralTextNeverTrades(t *testing.T) {
	r, _ := newRunner(t, "The closing prices are listed above.")
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	sum, err := r.Run(context.Background(), "SPY", start, end)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sum.Fills) != 0 || sum.FinalEquity != sum.StartingCash || sum.Return != 0 {
		t.Errorf("unexpected trading: %+v", sum)
	}
}

func TestRun_NoData(t *testing.T) {
	tradelog.SetDir(t.TempDir())
	t.Cleanup(func() { tradelog.SetDir("") })
	cfg := store.Default()
	series := marketdata.NewSeries()
	brk := paper.NewBroker(1000, 0)
	eng, _ := engine.New(cfg, series, brk, &cannedInterpreter{}, sentiment.NewAnalyzer())

	r := NewRunner(emptyLoader{}, series, brk, eng)
	_, err := r.Run(context.Background(), "SPY", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, marketdata.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	r, _ := newRunner(t, "good")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := r.Run(ctx, "SPY", start, start.AddDate(0, 2, 0)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
