package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/virgo-snana-etl/internal/catalog"
	"github.com/couchcryptid/virgo-snana-etl/internal/config"
	"github.com/couchcryptid/virgo-snana-etl/internal/observability"
	"github.com/couchcryptid/virgo-snana-etl/internal/parser"
	"github.com/couchcryptid/virgo-snana-etl/internal/pipeline"
	"github.com/couchcryptid/virgo-snana-etl/internal/report"
	"github.com/spf13/afero"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	fsys := afero.NewOsFs()

	chain := parser.DefaultChain()
	cat, err := catalog.Load(fsys, cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	if err := cat.Validate(chain.Names()); err != nil {
		logger.Error("invalid catalog", "error", err)
		os.Exit(1)
	}

	normalizer := pipeline.NewNormalizer(cat.BandMap(), cfg.OutputMagSystem, logger)
	loader := pipeline.NewSNANALoader(fsys, cfg.OutputDir)

	p := pipeline.New(fsys, cat, chain, normalizer, loader, logger, metrics, pipeline.Options{
		RawDataDir: cfg.RawDataDir,
		SurveyName: cfg.SurveyName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, runErr := p.Run(ctx)
	if err := report.WriteSummary(os.Stdout, rep); err != nil {
		logger.Error("print report", "error", err)
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("export metrics", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		stop()
		os.Exit(1)
	}
}
