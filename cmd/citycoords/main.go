// Package main is the entry point for the city-coords command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"city-coords/internal/config"
)

func main() {
	// A .env file is optional
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "citycoords",
		Short:         "Guess capital cities from their coordinates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config", "directory containing config.yaml")

	// loadConfig is shared by the subcommands so they read the flag after parsing.
	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		setupLogging(&cfg.Log)
		return cfg, nil
	}

	root.AddCommand(
		newMigrateCmd(loadConfig),
		newSearchCmd(loadConfig),
		newNearestCmd(loadConfig),
		newTodayCmd(loadConfig),
		newStatsCmd(loadConfig),
		newResetDailyCmd(loadConfig),
		newDecodeCmd(),
		newPlayCmd(loadConfig),
	)
	return root
}

// setupLogging applies the configured level and output format.
func setupLogging(cfg *config.LogConfig) {
	if lvl, err := zerolog.ParseLevel(cfg.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
