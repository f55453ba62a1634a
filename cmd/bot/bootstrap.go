package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sentiment-trader/internal/broker/brokerobs"
	"sentiment-trader/internal/broker/zerodha"
	"sentiment-trader/internal/engine"
	"sentiment-trader/internal/engine/engineobs"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/llm/claude"
	"sentiment-trader/internal/llm/llmobs"
	"sentiment-trader/internal/llm/noop"
	"sentiment-trader/internal/llm/openai"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/marketdata"
	"sentiment-trader/internal/metrics"
	"sentiment-trader/internal/sentiment"
	"sentiment-trader/internal/store"
	"sentiment-trader/internal/trace"
	"sentiment-trader/internal/tradelog"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
	_ = logger.Sync()
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses journal files older than TRADER_LOG_RETENTION_DAYS
func compressOldLogs(ctx context.Context) {
	if n := tradelog.RetentionDays(); n > 0 {
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

func initializeMetrics(ctx context.Context, cfg *store.Config) *http.Server {
	srv := metrics.Serve(cfg.Metrics.Addr)
	if srv != nil {
		logger.Info(ctx, "Serving metrics", "addr", cfg.Metrics.Addr)
	}
	return srv
}

// initializeInterpreter picks the language model provider and wraps it with observability
func initializeInterpreter(ctx context.Context, cfg *store.Config) interfaces.Interpreter {
	switch cfg.LLM.Provider {
	case "OPENAI":
		return llmobs.Wrap(openai.Provider, openai.NewInterpreter(cfg))
	case "CLAUDE":
		return llmobs.Wrap(claude.Provider, claude.NewInterpreter(cfg))
	default:
		logger.Warn(ctx, "No LLM provider configured - every bar will HOLD")
		return llmobs.Wrap(noop.Provider, noop.NewInterpreter())
	}
}

func initializeScorer(ctx context.Context, cfg *store.Config) (interfaces.Scorer, error) {
	if cfg.Sentiment.LexiconPath == "" {
		return sentiment.NewAnalyzer(), nil
	}
	a, err := sentiment.NewAnalyzerFromFile(cfg.Sentiment.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load sentiment lexicon: %w", err)
	}
	logger.Info(ctx, "Loaded sentiment lexicon", "path", cfg.Sentiment.LexiconPath)
	return a, nil
}

// initializeMarketData selects the historical bar source from data.source
func initializeMarketData(ctx context.Context, cfg *store.Config) interfaces.MarketData {
	switch cfg.Data.Source {
	case "CSV":
		logger.Info(ctx, "Using CSV market data", "path", cfg.Data.Path)
		return marketdata.NewCSVLoader(cfg.Data.Path)
	case "KITE":
		logger.Info(ctx, "Using Kite historical data", "instrument_token", cfg.Data.InstrumentToken)
		h := zerodha.NewHistoricalLoader(cfg.Broker.APIKey, cfg.Broker.AccessToken, cfg.Data.Interval)
		h.Register(cfg.Symbol, cfg.Data.InstrumentToken)
		return h
	case "STATIC":
		logger.Info(ctx, "Using STATIC generated candles for testing")
		return marketdata.NewStaticLoader(1)
	default:
		logger.Info(ctx, "Using Yahoo Finance market data", "interval", cfg.Data.Interval)
		return marketdata.NewYahooLoader(cfg.Data.Interval)
	}
}

// initializeBroker returns the Kite adapter for DRY_RUN and LIVE runs
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return brokerobs.Wrap(zerodha.FromConfig(cfg))
}

func initializeEngine(cfg *store.Config, hist interfaces.History, brk interfaces.Broker, interp interfaces.Interpreter, scorer interfaces.Scorer) (interfaces.Engine, error) {
	eng, err := engine.New(cfg, hist, brk, interp, scorer)
	if err != nil {
		return nil, err
	}
	return engineobs.Wrap(eng), nil
}

// barDuration converts an interval such as "1d", "1h" or "5m" into a duration.
func barDuration(interval string) time.Duration {
	if n, ok := strings.CutSuffix(interval, "d"); ok {
		if days, err := strconv.Atoi(n); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(interval); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// lookback is how far back a poll reaches so the feature window and bands can be filled.
func lookback(cfg *store.Config) time.Duration {
	bars := max(cfg.Features.Window, cfg.Indicators.BBWindow)
	return barDuration(cfg.Data.Interval) * time.Duration(2*bars+10)
}
