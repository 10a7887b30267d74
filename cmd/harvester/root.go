package main

import (
	"fmt"

	"microharvest/internal/config"
	"microharvest/internal/country"
	"microharvest/internal/crawler"
	"microharvest/internal/daterange"
	"microharvest/internal/logger"
	"microharvest/internal/normalizer"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "configs/harvester.yaml"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
}

type rootFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "harvester",
		Short:         "Harvest microdata catalog entries into an open data catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init(flags)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.logger == nil {
				return nil
			}

			return a.logger.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", defaultConfigFile, "Path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Dotenv file with secrets (ignored when missing)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(a), newListCmd(a), newNormalizeCmd(a))

	return cmd
}

func (a *app) init(flags *rootFlags) error {
	if err := config.LoadEnv(flags.envFile); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(flags.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	a.cfg = cfg
	a.logger = logger.NewLoggerWithOptions(logger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMb:  cfg.Logging.MaxSizeMb,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	a.logger.Debug("Configuration loaded", "config", cfg.String())

	return nil
}

func (a *app) client() *crawler.Client {
	return crawler.NewClient(crawler.NewScraperFromConfig(a.cfg), a.cfg.Upstream, a.logger)
}

func (a *app) processor() *normalizer.Processor {
	resolver := country.NewResolver(a.cfg.Countries.Aliases, a.cfg.Countries.Names)

	return normalizer.NewProcessor(a.cfg, resolver, daterange.NewParser(), a.logger)
}
