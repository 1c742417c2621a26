// Package main implements the room-analyzer CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	visionbackend "github.com/tarunsinghofficial/visionbackend"
	"github.com/tarunsinghofficial/visionbackend/internal/config"
	"github.com/tarunsinghofficial/visionbackend/internal/logging"
)

var (
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "room-analyzer",
	Short: "Analyze room photos and recommend furniture",
	Long: `room-analyzer detects furniture in room photos, finds matching products
in a catalog and produces an improvement critique.

Configuration is read from a YAML file and VISION_ environment variables,
e.g. VISION_GENAI_API_KEY or VISION_INDEX_PATH.`,
	Version:       visionbackend.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json, console)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

// setup loads configuration and builds the logger shared by subcommands
func setup() (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newAnalyzer is setup plus the analyzer built from it
func newAnalyzer() (*visionbackend.Analyzer, *config.Config, *zap.Logger, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := visionbackend.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	return a, cfg, logger, nil
}
