package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/prompt"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/types"
)

// Engine runs the per-bar pipeline: features and bands, prompt, interpretation,
// sentiment score, policy, broker. Position state is read from the broker and
// never stored here.
type Engine struct {
	hist     interfaces.History
	broker   interfaces.Broker
	interp   interfaces.Interpreter
	scorer   interfaces.Scorer
	policy   Policy
	exec     *orderExecutor
	window   int
	bbPeriod int
	bbK      float64
}

func newEngine(cfg *store.Config, hist interfaces.History, brk interfaces.Broker, interp interfaces.Interpreter, scorer interfaces.Scorer) (*Engine, error) {
	policy, err := NewPolicy(cfg.Decision.BuyThreshold, cfg.Decision.SellThreshold, cfg.Decision.Fraction)
	if err != nil {
		return nil, err
	}
	return &Engine{
		hist:     hist,
		broker:   brk,
		interp:   interp,
		scorer:   scorer,
		policy:   policy,
		exec:     newOrderExecutor(brk),
		window:   cfg.Features.Window,
		bbPeriod: cfg.Indicators.BBWindow,
		bbK:      cfg.Indicators.BBStdDev,
	}, nil
}

// Step decides on the latest bar of symbol. Per-bar failures resolve to HOLD with a
// reason; the only error returned is a cancelled context.
func (e *Engine) Step(ctx context.Context, symbol string) (*types.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.BarsTotal.WithLabelValues(symbol).Inc()

	res := &types.StepResult{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Instruction: types.HoldInstruction(),
		Orders:      []types.OrderResp{},
	}

	series := e.hist.History(symbol)
	if len(series) > 0 {
		latest := series[len(series)-1]
		res.Time, res.Price = latest.Ts, latest.Close
	}

	window, bands, err := prepare(series, e.window, e.bbPeriod, e.bbK)
	if err != nil {
		logger.Debug(ctx, "Skipping bar", "symbol", symbol, "bars", len(series), "window", e.window, "error", err)
		return e.finish(ctx, res, types.ReasonInsufficientHistory), nil
	}
	res.Bands = &bands

	req := prompt.Build(symbol, window, bands)
	text, err := e.interp.Interpret(ctx, req)
	if err != nil {
		if !errors.Is(err, llm.ErrInterpretationUnavailable) {
			logger.ErrorWithErr(ctx, "Interpreter returned unexpected error", err, "symbol", symbol)
		}
		return e.finish(ctx, res, types.ReasonInterpretationUnavailable), nil
	}

	score := e.scorer.Score(text)
	res.Score = &score

	holding, err := e.broker.Position(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to read position", err, "symbol", symbol)
		return e.finish(ctx, res, types.ReasonPositionUnknown), nil
	}
	res.Holding = holding

	instr, reason := e.policy.Decide(score.Compound, holding)
	res.Instruction = instr
	if instr.Action != types.Hold {
		resp, err := e.exec.apply(ctx, res.ID, symbol, instr, res.Price)
		if err != nil {
			reason = types.ReasonOrderError
		} else {
			res.Orders = append(res.Orders, resp)
			if resp.Qty > 0 {
				metrics.OrdersTotal.WithLabelValues(symbol, resp.Side).Inc()
				logger.Trade(ctx, symbol, resp.Side, resp.Qty, resp.Price, resp.OrderID)
			}
		}
	}
	return e.finish(ctx, res, reason), nil
}

func (e *Engine) finish(ctx context.Context, res *types.StepResult, reason string) *types.StepResult {
	res.Reason = reason
	metrics.DecisionsTotal.WithLabelValues(res.Symbol, string(res.Instruction.Action)).Inc()

	compound := 0.0
	if res.Score != nil {
		compound = res.Score.Compound
	}
	logger.Decision(ctx, res.Symbol, string(res.Instruction.Action), compound, reason,
		"step_id", res.ID,
		"price", res.Price,
		"holding", res.Holding,
		"fraction", res.Instruction.Fraction,
	)
	e.exec.logDecision(res)
	return res
}
