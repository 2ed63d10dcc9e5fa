package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/config"
	"github.com/picatz/batchgpt/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var (
	cfg    *config.Config
	logger = zap.NewNop()
	client *batchgpt.Client

	normalizer = batchgpt.Normalizer{Location: time.Local}

	// exitCode is set by commands that finish without an error but must
	// still report one, such as a usage error of the root command.
	exitCode int
)

// setup loads the configuration and builds the logger and client shared by
// every command.
func setup(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var err error
	cfg, err = config.Load(config.Options{File: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}

	logger, err = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	client = batchgpt.NewClient(cfg.BaseURL,
		batchgpt.WithAPIKey(cfg.APIKey),
		batchgpt.WithModel(cfg.Model),
		batchgpt.WithTimeout(cfg.RequestTimeout),
		batchgpt.WithRateLimiter(batchgpt.NewRateLimiter(cfg.RequestsPerSecond)),
		batchgpt.WithLogger(logger),
	)

	logger.Debug("configured",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	return nil
}

func main() {
	err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version))
	_ = logger.Sync()

	if err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
