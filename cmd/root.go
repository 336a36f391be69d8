// Package cmd wires the harvester's command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gbbo-crawler/internal/config"
	"gbbo-crawler/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gbbo-crawler",
		Short: "Harvests Great British Bake Off listings into Postgres.",
		Long: `gbbo-crawler walks the paginated recipe and baker listings of the
Great British Bake Off site and converts them into relational records:
bakers, recipes, diets, categories, bake types, and their associations.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (defaults and GBBO_* env vars are used when omitted)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newSetupDBCmd())
	return cmd
}

// setup loads configuration and builds the logger shared by subcommands.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
