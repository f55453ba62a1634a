package interfaces

import (
	"context"

	"sentiment-trader/internal/types"
)

// Interpreter asks a language model to read the rendered prompt and returns its free text answer.
type Interpreter interface {
	Interpret(ctx context.Context, req types.InterpretationRequest) (string, error)
}

// Scorer maps free text to a compound polarity score.
type Scorer interface {
	Score(text string) types.SentimentScore
}
