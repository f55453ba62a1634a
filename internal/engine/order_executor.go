package engine

import (
	"context"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/tradelog"
	"sentiment-trader/internal/types"
)

// orderExecutor forwards instructions to the broker and journals the results.
type orderExecutor struct {
	broker interfaces.Broker
}

func newOrderExecutor(broker interfaces.Broker) *orderExecutor {
	return &orderExecutor{broker: broker}
}

// apply asks the broker to move to the instruction's target allocation.
// HOLD never reaches the broker.
func (oe *orderExecutor) apply(ctx context.Context, stepID, symbol string, instr types.Instruction, price float64) (types.OrderResp, error) {
	target := instr.Target()
	resp, err := oe.broker.SetTargetAllocation(ctx, symbol, target, price)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to set target allocation", err,
			"symbol", symbol,
			"target", target,
			"price", price,
		)
		return types.OrderResp{}, err
	}

	if resp.Qty > 0 {
		_ = tradelog.Append(tradelog.Entry{
			StepID:  stepID,
			Symbol:  symbol,
			Side:    resp.Side,
			Qty:     resp.Qty,
			Price:   resp.Price,
			OrderID: resp.OrderID,
			Reason:  string(instr.Action),
			Target:  target,
		})
	}
	return resp, nil
}

func (oe *orderExecutor) logDecision(res *types.StepResult) {
	var compound *float64
	if res.Score != nil {
		c := res.Score.Compound
		compound = &c
	}
	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		StepID:   res.ID,
		BarTime:  res.Time,
		Symbol:   res.Symbol,
		Action:   string(res.Instruction.Action),
		Reason:   res.Reason,
		Fraction: res.Instruction.Fraction,
		Compound: compound,
		Price:    res.Price,
		Holding:  res.Holding,
		Bands:    bandsMap(res.Bands),
	})
}
