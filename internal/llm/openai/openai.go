package openai

import (
	"context"
	"encoding/json"

	"sentiment-trader/internal/api"
	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

const (
	Provider        = "openai"
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Interpreter sends prompts to an OpenAI-compatible chat/completions endpoint.
type Interpreter struct {
	client      *api.Client
	throttle    *llm.Throttle
	endpoint    string
	model       string
	maxTokens   int
	temperature float32
}

func NewInterpreter(cfg *store.Config, opts ...api.ClientOption) *Interpreter {
	endpoint := cfg.LLM.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base := []api.ClientOption{
		api.WithHeader("Authorization", "Bearer "+cfg.LLM.APIKey),
		api.WithLogging(true),
	}
	// The configured timeout also applies to a client passed in opts.
	base = append(base, opts...)
	if t := cfg.Timeout(); t > 0 {
		base = append(base, api.WithTimeout(t))
	}
	return &Interpreter{
		client:      api.NewClient(base...),
		throttle:    llm.NewThrottle(cfg.LLM.MaxTokens, cfg.LLM.MsPerToken),
		endpoint:    endpoint,
		model:       cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
	}
}

// Interpret returns the first choice's message content. Every failure wraps
// llm.ErrInterpretationUnavailable; the call is never retried.
func (i *Interpreter) Interpret(ctx context.Context, req types.InterpretationRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	body := chatRequest{
		Model:       i.model,
		Messages:    llm.UserMessages(req.Prompt),
		MaxTokens:   i.maxTokens,
		Temperature: i.temperature,
	}
	resp, err := i.client.POST(ctx, i.endpoint, body)
	if werr := i.throttle.Wait(ctx); werr != nil {
		logger.Debug(ctx, "Throttle wait interrupted", "error", werr)
	}
	if err != nil {
		return "", llm.NewServiceError(Provider, err)
	}

	var r chatResponse
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		logger.Warn(ctx, "Unparseable language model response", "provider", Provider, "body", resp.String(), "error", err)
		return "", llm.Unavailable(Provider, "invalid JSON")
	}
	if len(r.Choices) == 0 {
		logger.Warn(ctx, "Language model response has no choices", "provider", Provider, "body", resp.String())
		return "", llm.Unavailable(Provider, "missing choices")
	}
	content := r.Choices[0].Message.Content
	if content == nil {
		logger.Warn(ctx, "Language model response has no message content", "provider", Provider, "body", resp.String())
		return "", llm.Unavailable(Provider, "missing message content")
	}
	return *content, nil
}
