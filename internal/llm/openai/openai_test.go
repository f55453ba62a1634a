package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sentiment-trader/internal/api"
	"sentiment-trader/internal/llm"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/types"
)

func newTestInterpreter(t *testing.T, handler http.HandlerFunc) *Interpreter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := store.Default()
	cfg.LLM.Endpoint = srv.URL
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.MsPerToken = 0
	return NewInterpreter(cfg, api.WithHTTPClient(srv.Client()))
}

func request() types.InterpretationRequest {
	return types.InterpretationRequest{Symbol: "SPY", Prompt: "analyze these prices"}
}

func TestInterpret_Success(t *testing.T) {
	it := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if body.Model != "gpt-3.5-turbo" || body.MaxTokens != 3000 || body.Temperature != 0.7 {
			t.Errorf("unexpected request body: %+v", body)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "analyze these prices" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"The trend looks strong."}},{"message":{"content":"ignored"}}]}`))
	})

	text, err := it.Interpret(context.Background(), request())
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if text != "The trend looks strong." {
		t.Errorf("text = %q", text)
	}
}

func TestInterpret_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"choices": [`},
		{"not json", `<html>gateway</html>`},
		{"missing choices", `{"id":"x","object":"chat.completion"}`},
		{"empty choices", `{"choices":[]}`},
		{"missing content", `{"choices":[{"message":{"role":"assistant"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := it.Interpret(context.Background(), request())
			if !errors.Is(err, llm.ErrInterpretationUnavailable) {
				t.Fatalf("expected ErrInterpretationUnavailable, got %v", err)
			}
		})
	}
}

func TestInterpret_NonSuccessStatus(t *testing.T) {
	it := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	})

	_, err := it.Interpret(context.Background(), request())
	var se *llm.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *llm.ServiceError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if !errors.Is(err, llm.ErrInterpretationUnavailable) {
		t.Errorf("service error should be treated as unavailable")
	}
}

func TestInterpret_NoRetry(t *testing.T) {
	var calls atomic.Int32
	it := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _ = it.Interpret(context.Background(), request())
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want exactly 1", calls.Load())
	}
}
