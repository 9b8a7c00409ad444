package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/csvio"
	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/ozonesonde-etl/internal/adapter/kafka"
	"github.com/couchcryptid/ozonesonde-etl/internal/config"
	"github.com/couchcryptid/ozonesonde-etl/internal/observability"
	"github.com/couchcryptid/ozonesonde-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source := csvio.NewTableSource(cfg.SoundingsPath, cfg.ValidityPath, csvio.SoundingOptions{}, logger)
	regularizer := pipeline.NewRegularizer(cfg.Grid, logger)

	var loaders []pipeline.BatchLoader
	if cfg.WritePerFlight {
		loaders = append(loaders, csvio.NewFileLoader(cfg.OutputDir, cfg.Station, logger))
		logger.Info("per-flight files enabled", "dir", cfg.OutputDir)
	}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(source, regularizer, loaders, logger, metrics, pipeline.Options{
		YearStart: cfg.YearStart,
		YearEnd:   cfg.YearEnd,
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.Serve {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, metrics, cfg.APICacheSize, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	batchErr := runBatch(ctx, p, cfg, logger)
	if batchErr != nil {
		logger.Error("pipeline error", "error", batchErr)
	}

	if srv != nil && ctx.Err() == nil {
		logger.Info("serving corpus until signalled", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return batchErr
}

// runBatch runs the pipeline and writes the corpus table. The table is
// written even when a sink failed.
func runBatch(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, logger *slog.Logger) error {
	summary, runErr := p.Run(ctx)
	logger.Info("pipeline finished",
		"read", summary.Read,
		"out_of_range", summary.OutOfRange,
		"repeated", summary.Repeated,
		"regularized", summary.Regularized,
		"malformed", summary.Malformed,
		"failed", summary.Failed,
		"duplicates", summary.Duplicates,
		"loaded", summary.Loaded,
		"duration", summary.Duration,
	)

	corpus := p.Corpus()
	if corpus.Len() == 0 {
		return runErr
	}
	path := filepath.Join(cfg.OutputDir, csvio.CorpusFileName(cfg.Station.FilePrefix))
	err := csvio.WriteFile(path, func(w io.Writer) error {
		return csvio.WriteCorpus(w, corpus)
	})
	if err != nil {
		return errors.Join(runErr, err)
	}
	logger.Info("corpus written", "path", path, "flights", corpus.Len(), "rows", corpus.RowCount())
	return runErr
}
