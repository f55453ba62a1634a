package logger

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestInfo_WritesFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Info(context.Background(), "bar processed", "symbol", "SPY", "price", 401.5)

	entries := logs.FilterMessage("bar processed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["symbol"] != "SPY" {
		t.Errorf("symbol = %v", fields["symbol"])
	}
	if fields["price"] != 401.5 {
		t.Errorf("price = %v", fields["price"])
	}
}

func TestDebug_GatedByLevel(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)
	Debug(context.Background(), "hidden")
	if logs.Len() != 0 {
		t.Fatalf("debug entry emitted at info level")
	}

	logs = observe(t, zapcore.DebugLevel)
	Debug(context.Background(), "shown")
	if logs.FilterMessage("shown").Len() != 1 {
		t.Fatalf("debug entry missing at debug level")
	}
}

func TestErrorWithErr_IncludesError(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	ErrorWithErr(context.Background(), "call failed", errors.New("boom"), "attempt", 1)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 error entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; got != "boom" {
		t.Errorf("error field = %v", got)
	}
}

func TestDecision_AlwaysLogged(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Decision(context.Background(), "SPY", "GO_LONG", 0.42, "sentiment_signal", "holding", 0.0)

	entries := logs.FilterField(zap.String("type", "DECISION")).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 decision entry, got %d", len(entries))
	}
	m := entries[0].ContextMap()
	if m["action"] != "GO_LONG" || m["compound"] != 0.42 {
		t.Errorf("unexpected decision fields: %v", m)
	}
}
