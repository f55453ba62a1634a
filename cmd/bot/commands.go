package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sentiment-trader/internal/backtest"
	"sentiment-trader/internal/broker/brokerobs"
	"sentiment-trader/internal/broker/paper"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/marketdata"
	"sentiment-trader/internal/report"
	"sentiment-trader/internal/store"
)

func backtestCmd(configPath *string) *cobra.Command {
	var symbol, start, end string

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical bars through the decision loop against a paper broker",
		Example: `  bot backtest
  bot backtest --symbol QQQ --start 2023-01-01 --end 2023-06-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := initializeSystem(); err != nil {
				return err
			}
			defer shutdownSystem()

			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, symbol, start, end); err != nil {
				return err
			}
			compressOldLogs(ctx)
			if srv := initializeMetrics(ctx, cfg); srv != nil {
				defer srv.Close()
			}
			return runBacktest(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Override the configured symbol")
	cmd.Flags().StringVar(&start, "start", "", "Override data.start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Override data.end (YYYY-MM-DD)")
	return cmd
}

func applyOverrides(cfg *store.Config, symbol, start, end string) error {
	if symbol != "" {
		cfg.Symbol = symbol
	}
	if start != "" {
		cfg.Data.Start = start
	}
	if end != "" {
		cfg.Data.End = end
	}
	return cfg.Validate()
}

func runBacktest(ctx context.Context, cfg *store.Config) error {
	start, end, err := cfg.DateRange()
	if err != nil {
		return err
	}
	scorer, err := initializeScorer(ctx, cfg)
	if err != nil {
		return err
	}

	series := marketdata.NewSeries()
	brk := paper.NewBroker(cfg.Broker.StartingCash, cfg.Broker.CommissionRate)
	eng, err := initializeEngine(cfg, series, brokerobs.Wrap(brk), initializeInterpreter(ctx, cfg), scorer)
	if err != nil {
		return err
	}

	runner := backtest.NewRunner(initializeMarketData(ctx, cfg), series, brk, eng)
	sum, err := runner.Run(ctx, cfg.Symbol, start, end)
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest failed", err, "symbol", cfg.Symbol)
		return err
	}

	if rows := report.Summarize(sum.Fills); rows != nil && cfg.Report.Dir != "" {
		path := filepath.Join(cfg.Report.Dir, sum.RunID+".csv")
		if err := report.WriteCSV(path, rows); err != nil {
			logger.Warn(ctx, "Failed to write backtest report", "path", path, "error", err)
		} else {
			logger.Info(ctx, "Backtest report written", "path", path)
		}
	}

	out := struct {
		RunID        string         `json:"run_id"`
		Symbol       string         `json:"symbol"`
		Bars         int            `json:"bars"`
		Decisions    map[string]int `json:"decisions"`
		Reasons      map[string]int `json:"reasons"`
		Fills        int            `json:"fills"`
		StartingCash float64        `json:"starting_cash"`
		FinalEquity  float64        `json:"final_equity"`
		Return       float64        `json:"return"`
	}{
		RunID:        sum.RunID,
		Symbol:       sum.Symbol,
		Bars:         sum.Bars,
		Decisions:    map[string]int{},
		Reasons:      sum.Reasons,
		Fills:        len(sum.Fills),
		StartingCash: sum.StartingCash,
		FinalEquity:  sum.FinalEquity,
		Return:       sum.Return,
	}
	for a, n := range sum.Decisions {
		out.Decisions[string(a)] = n
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll for new bars and trade them through Kite (DRY_RUN or LIVE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := initializeSystem(); err != nil {
				return err
			}
			defer shutdownSystem()

			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			if cfg.Mode == "BACKTEST" {
				return &store.ConfigError{Field: "mode", Reason: "run needs DRY_RUN or LIVE; use the backtest command"}
			}
			compressOldLogs(ctx)
			if srv := initializeMetrics(ctx, cfg); srv != nil {
				defer srv.Close()
			}

			scorer, err := initializeScorer(ctx, cfg)
			if err != nil {
				return err
			}
			series := marketdata.NewSeries()
			eng, err := initializeEngine(cfg, series, initializeBroker(ctx, cfg), initializeInterpreter(ctx, cfg), scorer)
			if err != nil {
				return err
			}
			return pollLoop(ctx, cfg, initializeMarketData(ctx, cfg), series, eng)
		},
	}
}

// pollLoop fetches recent bars every poll_seconds and steps once per new bar.
func pollLoop(ctx context.Context, cfg *store.Config, data interfaces.MarketData, series *marketdata.Series, eng interfaces.Engine) error {
	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Bot started", "mode", cfg.Mode, "symbol", cfg.Symbol, "poll_seconds", cfg.PollSeconds)
	enc := json.NewEncoder(os.Stdout)
	for {
		now := time.Now()
		bars, err := data.Load(ctx, cfg.Symbol, now.Add(-lookback(cfg)), now.Add(time.Second))
		switch {
		case errors.Is(err, context.Canceled):
			logger.Info(ctx, "Shutting down")
			return nil
		case err != nil:
			logger.ErrorWithErr(ctx, "Failed to load recent bars", err, "symbol", cfg.Symbol)
		case series.Sync(cfg.Symbol, bars) > 0:
			res, err := eng.Step(ctx, cfg.Symbol)
			if err != nil {
				logger.Info(ctx, "Shutting down")
				return nil
			}
			_ = enc.Encode(res)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Shutting down")
			return nil
		case <-tick.C:
		}
	}
}

func validateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = initializeSystem()
			defer shutdownSystem()

			cfg, err := loadConfig(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config OK: mode=%s symbol=%s source=%s provider=%s window=%d bb=%d/%.2f thresholds=%.3f/%.3f\n",
				cfg.Mode, cfg.Symbol, cfg.Data.Source, cfg.LLM.Provider,
				cfg.Features.Window, cfg.Indicators.BBWindow, cfg.Indicators.BBStdDev,
				cfg.Decision.BuyThreshold, cfg.Decision.SellThreshold)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
