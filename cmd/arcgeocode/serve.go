package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/arcgeocode/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/arcgeocode/internal/adapter/kafka"
	"github.com/couchcryptid/arcgeocode/internal/dispatch"
	"github.com/couchcryptid/arcgeocode/internal/observability"
	"github.com/couchcryptid/arcgeocode/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Kafka geocode worker",
		Long: `
Consumes geocode jobs from KAFKA_SOURCE_TOPIC, runs them against ArcGIS and
publishes one result per job to KAFKA_SINK_TOPIC. Health, readiness and
Prometheus metrics are served on HTTP_ADDR.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	cfg := a.cfg
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	a.logger = logger
	metrics := observability.NewMetrics()

	geocoder := a.geocoder(metrics)
	logger.Info("arcgis geocoder configured",
		"url", cfg.ArcGISURL,
		"timeout", cfg.ArcGISTimeout,
		"cache_enabled", cfg.CacheEnabled,
		"cache_size", cfg.CacheSize,
		"reverse_concurrency", cfg.ReverseConcurrency,
	)
	d := dispatch.New(geocoder, logger, metrics, dispatch.WithConcurrency(cfg.ReverseConcurrency))

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(d, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, map[string]sharedobs.ReadinessChecker{"pipeline": p}, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = <-errCh
	case runErr = <-errCh:
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
