package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Sentiment driven trading decision loop",
		Long: `Feeds recent closing prices and Bollinger Bands to a language model,
scores the sentiment of its answer and turns that score into a long, short
or flat target position.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	cmd.AddCommand(
		backtestCmd(&configPath),
		runCmd(&configPath),
		validateCmd(&configPath),
		versionCmd(),
	)
	return cmd
}
