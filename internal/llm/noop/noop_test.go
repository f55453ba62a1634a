package noop

import (
	"context"
	"errors"
	"testing"

	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/types"
)

func TestInterpret_AlwaysUnavailable(t *testing.T) {
	_, err := NewInterpreter().Interpret(context.Background(), types.InterpretationRequest{Symbol: "SPY"})
	if !errors.Is(err, llm.ErrInterpretationUnavailable) {
		t.Fatalf("expected ErrInterpretationUnavailable, got %v", err)
	}
}
