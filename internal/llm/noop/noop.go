package noop

import (
	"context"

	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

const Provider = "none"

// Interpreter is used when no language model is configured. Every bar resolves to HOLD.
type Interpreter struct{}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Interpret(ctx context.Context, req types.InterpretationRequest) (string, error) {
	logger.Debug(ctx, "Noop interpreter called - no interpretation available", "symbol", req.Symbol)
	return "", llm.Unavailable(Provider, "no language model configured")
}
