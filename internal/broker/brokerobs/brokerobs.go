package brokerobs

import (
	"context"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) Position(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Position")
	defer span.End()

	qty, err := ob.broker.Position(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to read position", err, "symbol", symbol)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Position read", "symbol", symbol, "qty", qty)
	return qty, nil
}

// SetTargetAllocation moves the holding with observability
func (ob *observableBroker) SetTargetAllocation(ctx context.Context, symbol string, fraction, price float64) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.SetTargetAllocation")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Setting target allocation", "symbol", symbol, "fraction", fraction, "price", price)

	resp, err := ob.broker.SetTargetAllocation(ctx, symbol, fraction, price)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to set target allocation", err,
			"symbol", symbol,
			"fraction", fraction,
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Target allocation applied",
		"symbol", symbol,
		"fraction", fraction,
		"order_id", resp.OrderID,
		"status", resp.Status,
		"side", resp.Side,
		"qty", resp.Qty,
	)
	return resp, nil
}
