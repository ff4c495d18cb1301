package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/insightq/insightq/internal/api"
	"github.com/insightq/insightq/internal/auth"
	"github.com/insightq/insightq/internal/config"
	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/engine"
	duckdbengine "github.com/insightq/insightq/internal/engine/duckdb"
	"github.com/insightq/insightq/internal/guard"
	"github.com/insightq/insightq/internal/nl2sql"
	"github.com/insightq/insightq/internal/observability"
	"github.com/insightq/insightq/internal/pipeline"
	"github.com/insightq/insightq/internal/storage"
	s3store "github.com/insightq/insightq/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("insightq-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	resolver, err := nl2sql.NewOpenAIResolver(nl2sql.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize sql resolver", slog.Any("error", err))
		os.Exit(1)
	}

	var objectStore storage.ObjectStore = storage.NewMemoryStore()
	if cfg.ObjectStore.Enabled {
		objectStore, err = s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: true,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
	}

	deps := api.Dependencies{
		Logger:   logger,
		Registry: pipeline.NewRegistry(),
		Pipeline: &pipeline.Pipeline{
			Resolver:  resolver,
			Generator: resolver,
			Auditor:   guard.NewAuditor(logger),
			Logger:    logger,
		},
		OpenEngine: func(ctx context.Context, ds *dataset.Dataset) (engine.Engine, error) {
			return duckdbengine.Open(ctx, ds)
		},
		ObjectStore:    objectStore,
		UploadMaxBytes: cfg.Upload.MaxBytes,
		Readiness: api.CombineReadinessChecks(
			api.CheckAIConfig(cfg),
			api.CheckObjectStoreConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
