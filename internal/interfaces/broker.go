package interfaces

import (
	"context"

	"sentiment-trader/internal/types"
)

// Broker is the execution engine the decision loop delegates to. It owns the position state.
type Broker interface {
	// Position returns the signed holding for symbol: positive long, negative short, zero flat.
	Position(ctx context.Context, symbol string) (float64, error)

	// SetTargetAllocation moves the holding to fraction of equity (fraction in [-1, 1]),
	// sizing against the reference price of the current bar.
	SetTargetAllocation(ctx context.Context, symbol string, fraction, price float64) (types.OrderResp, error)
}
