package claude

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
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
	cfg.LLM.Provider = "CLAUDE"
	cfg.LLM.Model = "claude-3-haiku-20240307"
	cfg.LLM.Endpoint = srv.URL
	cfg.LLM.APIKey = "ck-test"
	cfg.LLM.MsPerToken = 0
	return NewInterpreter(cfg, api.WithHTTPClient(srv.Client()))
}

func TestInterpret_JoinsTextBlocks(t *testing.T) {
	it := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ck-test" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("anthropic-version header missing")
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"Prices are rising."},{"type":"text","text":"Momentum is good."}]}`))
	})

	text, err := it.Interpret(context.Background(), types.InterpretationRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if text != "Prices are rising.\nMomentum is good." {
		t.Errorf("text = %q", text)
	}
}

func TestInterpret_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"invalid json", http.StatusOK, `not json`},
		{"no content", http.StatusOK, `{"id":"msg_1"}`},
		{"no text blocks", http.StatusOK, `{"content":[{"type":"tool_use"}]}`},
		{"server error", http.StatusInternalServerError, `{"error":"overloaded"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := it.Interpret(context.Background(), types.InterpretationRequest{Prompt: "p"})
			if !errors.Is(err, llm.ErrInterpretationUnavailable) {
				t.Fatalf("expected ErrInterpretationUnavailable, got %v", err)
			}
		})
	}
}
