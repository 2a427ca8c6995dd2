package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duckflow/duckflow/internal/cli/duckflowctl"
	"github.com/duckflow/duckflow/internal/config"
	"github.com/duckflow/duckflow/internal/observability"
	"github.com/duckflow/duckflow/internal/storage"
	s3store "github.com/duckflow/duckflow/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("duckflow")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stderr)
	ctx := context.Background()

	var publisher storage.Publisher
	if cfg.Publish.Enabled {
		store, err := s3store.New(ctx, cfg.Publish)
		if err != nil {
			logger.Error("failed to initialize publisher", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = store
	}

	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("serving metrics", slog.String("addr", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				logger.Error("metrics listener failed", slog.Any("error", err))
			}
		}()
	}

	options := duckflowctl.Options{
		DBPath:             cfg.Database.Path,
		MotherDuckDatabase: cfg.MotherDuck.Database,
		Lookup:             os.LookupEnv,
		Publisher:          publisher,
		Logger:             logger,
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
	}
	os.Exit(duckflowctl.Run(ctx, os.Args[1:], options))
}
