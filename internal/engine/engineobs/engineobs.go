package engineobs

import (
	"context"
	"time"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context, symbol string) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Starting decision step", "symbol", symbol)

	result, err := oe.engine.Step(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Decision step aborted", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Decision step completed",
		"symbol", symbol,
		"step_id", result.ID,
		"instruction", result.Instruction.String(),
		"reason", result.Reason,
		"orders", len(result.Orders),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
