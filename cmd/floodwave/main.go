package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/flood-wave-graph/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/flood-wave-graph/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-wave-graph/internal/adapter/kafka"
	"github.com/couchcryptid/flood-wave-graph/internal/adapter/snapshot"
	"github.com/couchcryptid/flood-wave-graph/internal/adapter/sqlite"
	"github.com/couchcryptid/flood-wave-graph/internal/config"
	"github.com/couchcryptid/flood-wave-graph/internal/observability"
	"github.com/couchcryptid/flood-wave-graph/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	params, err := config.LoadAnalysis(cfg.AnalysisConfig)
	if err != nil {
		logger.Error("failed to load analysis config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []pipeline.Option
	var closers []func() error

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithLoaders(writer))
		closers = append(closers, writer.Close)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaWaveTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithLoaders(store))
		closers = append(closers, store.Close)
	}
	if cfg.SnapshotPath != "" {
		opts = append(opts, pipeline.WithGraphStore(snapshot.NewStore(cfg.SnapshotPath, logger)))
	}

	source := catalog.NewLoader(cfg.DataDir, logger)
	p := pipeline.New(source, params, cfg.Workers, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	exitCode := 0
	if _, err := p.Run(ctx); err != nil {
		exitCode = 1
	} else if cfg.ServeAfterRun {
		logger.Info("run complete, serving results until shutdown")
		<-ctx.Done()
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		stop()
		os.Exit(exitCode)
	}
}
