package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gbbo-crawler/internal/api"
	"gbbo-crawler/internal/crawl"
	collyfetcher "gbbo-crawler/internal/fetcher/colly"
	"gbbo-crawler/internal/ingest"
	"gbbo-crawler/internal/metrics"
	"gbbo-crawler/internal/resolve"
	"gbbo-crawler/internal/store/postgres"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run a full harvest: bakers, recipes, and tag associations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			metrics.Init()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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

			srv := api.NewServer(cfg.Server.Port, logger)
			srv.Start()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("metrics server shutdown", zap.Error(err))
				}
			}()

			fetcher := collyfetcher.New(collyfetcher.Config{
				UserAgent: cfg.Crawler.UserAgent,
				Timeout:   cfg.FetchTimeout(),
			})
			engine := crawl.NewEngine(fetcher, logger, crawl.Config{
				BatchSize:    cfg.Crawler.BatchSize,
				FetchTimeout: cfg.FetchTimeout(),
				BatchDelay:   cfg.BatchDelay(),
			})
			resolver := resolve.New(st, logger)
			pipelines := ingest.NewPipelines(engine, fetcher, st, resolver, logger, ingest.Config{
				RecipesURL: cfg.Site.RecipesURL,
				BakersURL:  cfg.Site.BakersURL,
			})

			return pipelines.RunAll(ctx)
		},
	}
}
