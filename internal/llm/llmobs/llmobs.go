package llmobs

import (
	"context"
	"errors"
	"time"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

// observableInterpreter wraps an Interpreter with logging, tracing and metrics
type observableInterpreter struct {
	provider    string
	interpreter interfaces.Interpreter
}

// Compile-time interface check
var _ interfaces.Interpreter = (*observableInterpreter)(nil)

// Wrap wraps an interpreter with observability middleware
func Wrap(provider string, interpreter interfaces.Interpreter) interfaces.Interpreter {
	return &observableInterpreter{
		provider:    provider,
		interpreter: interpreter,
	}
}

func (o *observableInterpreter) Interpret(ctx context.Context, req types.InterpretationRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Interpret")
	defer span.End()

	// Skip(1) reports the caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting interpretation",
		"provider", o.provider,
		"symbol", req.Symbol,
		"window", len(req.Window),
	)

	start := time.Now()
	text, err := o.interpreter.Interpret(ctx, req)
	metrics.InterpretationLatency.WithLabelValues(o.provider).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "unavailable"
		var se *llm.ServiceError
		if errors.As(err, &se) {
			outcome = "service_error"
		}
		metrics.InterpretationsTotal.WithLabelValues(o.provider, outcome).Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Interpretation unavailable", err,
			"provider", o.provider,
			"symbol", req.Symbol,
		)
		return "", err
	}

	metrics.InterpretationsTotal.WithLabelValues(o.provider, "ok").Inc()
	logger.InfoSkip(ctx, 1, "Interpretation received",
		"provider", o.provider,
		"symbol", req.Symbol,
		"chars", len(text),
	)
	return text, nil
}
