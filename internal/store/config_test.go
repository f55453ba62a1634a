package store

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_DefaultsFillMissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, "symbol: QQQ\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Symbol != "QQQ" {
		t.Errorf("Symbol = %q, want QQQ", cfg.Symbol)
	}
	if cfg.Features.Window != 30 || cfg.Indicators.BBWindow != 20 || cfg.Indicators.BBStdDev != 2.0 {
		t.Errorf("unexpected indicator defaults: %+v %+v", cfg.Features, cfg.Indicators)
	}
	if cfg.Decision.BuyThreshold != 0.05 || cfg.Decision.SellThreshold != -0.05 {
		t.Errorf("unexpected thresholds: %+v", cfg.Decision)
	}
	if cfg.LLM.MaxTokens != 3000 || cfg.LLM.MsPerToken != 0.5 {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey not read from environment")
	}
}

func TestLoadConfig_NormalisesEnums(t *testing.T) {
	path := writeConfig(t, "mode: backtest\ndata:\n  source: static\nllm:\n  provider: none\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Mode != "BACKTEST" || cfg.Data.Source != "STATIC" || cfg.LLM.Provider != "NONE" {
		t.Errorf("enums not upper-cased: %s %s %s", cfg.Mode, cfg.Data.Source, cfg.LLM.Provider)
	}
}

func TestLoadConfig_InvertedThresholds(t *testing.T) {
	path := writeConfig(t, "llm:\n  provider: NONE\ndecision:\n  buy_threshold: -0.1\n  sell_threshold: 0.1\n")

	_, err := LoadConfig(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "decision.buy_threshold" {
		t.Errorf("Field = %q", cfgErr.Field)
	}
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, "llm:\n  provider: openai\n")

	_, err := LoadConfig(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadConfig_LiveRequiresKiteCredentials(t *testing.T) {
	t.Setenv("KITE_API_KEY", "")
	t.Setenv("KITE_ACCESS_TOKEN", "")
	path := writeConfig(t, "mode: LIVE\nllm:\n  provider: NONE\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for LIVE mode without Kite credentials")
	}
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name      string
		buy, sell float64
		wantErr   bool
	}{
		{"default", 0.05, -0.05, false},
		{"asymmetric", 0.3, 0.1, false},
		{"equal", 0.1, 0.1, true},
		{"inverted", -0.05, 0.05, true},
		{"nan buy", math.NaN(), -0.05, true},
		{"inf sell", 0.05, math.Inf(-1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThresholds(tt.buy, tt.sell)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateThresholds(%v, %v) error = %v, wantErr %v", tt.buy, tt.sell, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"mode", func(c *Config) { c.Mode = "PAPER" }, "mode"},
		{"csv path", func(c *Config) { c.Data.Source = "CSV" }, "data.path"},
		{"kite token", func(c *Config) { c.Data.Source = "KITE" }, "data.instrument_token"},
		{"dates", func(c *Config) { c.Data.End = c.Data.Start }, "data.end"},
		{"bad date", func(c *Config) { c.Data.Start = "01/01/2023" }, "data.start"},
		{"cash", func(c *Config) { c.Broker.StartingCash = 0 }, "broker.starting_cash"},
		{"window", func(c *Config) { c.Features.Window = 0 }, "features.window"},
		{"fraction", func(c *Config) { c.Decision.Fraction = 1.5 }, "decision.fraction"},
		{"provider", func(c *Config) { c.LLM.Provider = "GEMINI" }, "llm.provider"},
		{"poll", func(c *Config) { c.Mode = "DRY_RUN"; c.PollSeconds = 0 }, "poll_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}
