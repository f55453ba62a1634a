package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle charges every language model call its full token budget against a
// token bucket, so that sustained use never exceeds one budget per
// budget*msPerToken milliseconds.
type Throttle struct {
	limiter *rate.Limiter
	tokens  int
}

// NewThrottle returns a bucket of maxTokens that refills at 1000/msPerToken tokens per second.
// msPerToken <= 0 disables throttling.
func NewThrottle(maxTokens int, msPerToken float64) *Throttle {
	if maxTokens <= 0 {
		maxTokens = 1
	}
	limit := rate.Inf
	if msPerToken > 0 {
		limit = rate.Limit(1000 / msPerToken)
	}
	return &Throttle{
		limiter: rate.NewLimiter(limit, maxTokens),
		tokens:  maxTokens,
	}
}

// Wait blocks until a full call budget is available. It is called after each request completes.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.WaitN(ctx, t.tokens)
}
