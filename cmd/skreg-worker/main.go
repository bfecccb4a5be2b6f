// Package main is the entry point for the skreg vetting worker.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skregdev/skreg/internal/config"
	"github.com/skregdev/skreg/internal/database"
	"github.com/skregdev/skreg/internal/repository"
	"github.com/skregdev/skreg/internal/secrets"
	"github.com/skregdev/skreg/internal/storage"
	"github.com/skregdev/skreg/internal/worker"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Signing.CASecretARN == "" {
		log.Fatal("SKREG_SIGNING_CA_SECRET_ARN must be set")
	}

	logger.Info("Starting vetting worker",
		slog.String("environment", cfg.Server.Environment),
	)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		ForcePathStyle:  cfg.Storage.ForcePathStyle,
	})
	if err != nil {
		log.Fatalf("Failed to configure artifact storage: %v", err)
	}

	source, err := secrets.NewSecretsManager(ctx, cfg.Storage.Region)
	if err != nil {
		log.Fatalf("Failed to configure secrets manager: %v", err)
	}

	packages := repository.NewPackageRepository(db.Pool())
	versions := repository.NewVersionRepository(db.Pool())
	jobs := repository.NewJobRepository(db.Pool())

	pipeline := worker.NewPipeline(packages, versions, store, source, cfg.Signing.CASecretARN)
	runner := worker.NewRunner(db, jobs, versions, pipeline, logger, cfg.Worker.RecoveryGrace)

	// Worker metrics listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics listening", slog.String("addr", cfg.Worker.MetricsAddr))
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", slog.String("error", err.Error()))
		}
	}()

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Worker error: %v", err)
	}

	logger.Info("Worker stopped gracefully")
}
