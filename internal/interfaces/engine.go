package interfaces

import (
	"context"

	"sentiment-trader/internal/types"
)

type Engine interface {
	Step(ctx context.Context, symbol string) (*types.StepResult, error)
}
