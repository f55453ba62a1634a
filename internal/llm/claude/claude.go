package claude

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"sentiment-trader/internal/api"
	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/types"
)

const (
	Provider        = "claude"
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion      = "2023-06-01"
)

type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

// Interpreter calls the Anthropic Messages API
type Interpreter struct {
	client      *api.Client
	throttle    *llm.Throttle
	endpoint    string
	model       string
	maxTokens   int
	temperature float32
}

func NewInterpreter(cfg *store.Config, opts ...api.ClientOption) *Interpreter {
	// A proxy endpoint can also come from CLAUDE_API_ENDPOINT
	endpoint := cfg.LLM.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("CLAUDE_API_ENDPOINT")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base := []api.ClientOption{
		api.WithHeader("x-api-key", cfg.LLM.APIKey),
		api.WithHeader("anthropic-version", apiVersion),
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

// Interpret returns the concatenated text blocks of the reply.
func (i *Interpreter) Interpret(ctx context.Context, req types.InterpretationRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	body := messagesRequest{
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

	var r messagesResponse
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		logger.Warn(ctx, "Unparseable language model response", "provider", Provider, "body", resp.String(), "error", err)
		return "", llm.Unavailable(Provider, "invalid JSON")
	}

	var parts []string
	for _, block := range r.Content {
		if block.Type == "text" && block.Text != nil {
			parts = append(parts, *block.Text)
		}
	}
	if len(parts) == 0 {
		logger.Warn(ctx, "Language model response has no text content", "provider", Provider, "body", resp.String())
		return "", llm.Unavailable(Provider, "missing text content")
	}
	return strings.Join(parts, "\n"), nil
}
