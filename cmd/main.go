package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/flavor/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.LoadConfig("config.toml")
	if err != nil {
		if !errors.Is(err, shared.ErrMissingConfig) {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
		config = shared.DefaultConfig()
	}
	logger.SetLevel(shared.ParseLogLevel(config.Log.Level))

	credentials := shared.NewCredentials(config.CredentialsPath())
	if err := credentials.Load(); err != nil {
		logger.Warn("failed to load saved credentials", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Credentials: credentials,
		Logger:      logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "flavor",
		Usage:    "Browse, search and manage recipes and train trips",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error("not logged in, run 'flavor auth login'", "error", err)
			runner.Close()
			os.Exit(1)
		default:
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}
