package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gbbo-crawler/internal/store/postgres"
)

func newSetupDBCmd() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "setup-db",
		Short: "Create the harvest tables, optionally dropping existing ones first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			st, err := postgres.New(ctx, postgres.Config{
				DSN:             cfg.DB.DSN,
				MaxConns:        cfg.DB.MaxConns,
				MinConns:        cfg.DB.MinConns,
				MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetime) * time.Second,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.CreateSchema(ctx, drop); err != nil {
				return err
			}
			logger.Info("schema ready", zap.Bool("dropped", drop))
			return nil
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "drop existing tables before creating them")
	return cmd
}
