// Package main is the entry point for the skreg registry API server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skregdev/skreg/internal/config"
	"github.com/skregdev/skreg/internal/database"
	"github.com/skregdev/skreg/internal/handler"
	"github.com/skregdev/skreg/internal/middleware"
	"github.com/skregdev/skreg/internal/repository"
	"github.com/skregdev/skreg/internal/storage"
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

	logger.Info("Starting registry API",
		slog.String("environment", cfg.Server.Environment),
		slog.Int("port", cfg.Server.Port),
	)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	redis, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	store, err := storage.NewS3Store(context.Background(), storage.S3Config{
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
	logger.Info("Artifact storage ready", slog.String("bucket", cfg.Storage.Bucket))

	namespaces := repository.NewNamespaceRepository(db.Pool())
	keys := repository.NewAPIKeyRepository(db.Pool())
	packages := repository.NewPackageRepository(db.Pool())
	versions := repository.NewVersionRepository(db.Pool())
	jobs := repository.NewJobRepository(db.Pool())
	publish := repository.NewPublishRepository(db.Pool())

	publishHandler := handler.NewPublishHandler(packages, versions, publish, store, db, cfg.Server.MaxUploadBytes)
	jobHandler := handler.NewJobHandler(jobs)
	packageHandler := handler.NewPackageHandler(namespaces, packages, versions, store)
	namespaceHandler := handler.NewNamespaceHandler(namespaces, keys)
	searchHandler := handler.NewSearchHandler(packages)
	healthHandler := handler.NewHealthHandler(db)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(redis, middleware.DefaultRateLimitConfig()))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(keys, namespaces))
			r.Post("/publish", publishHandler.Publish)
		})

		r.Post("/namespaces", namespaceHandler.Register)
		r.Get("/jobs/{id}", jobHandler.Get)
		r.Get("/search", searchHandler.Search)
		r.Get("/packages/{namespace}/{name}/{version}", packageHandler.Get)
		r.Get("/download/{namespace}/{name}/{version}", packageHandler.Download)
		r.Get("/download/{namespace}/{name}/{version}/sig", packageHandler.DownloadSig)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	logger.Info("Server stopped gracefully")
}
