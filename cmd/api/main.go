package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/app"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/config"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/handler"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/logger"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/queue/sqs"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize ClickHouse client
	clickhouseClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}

	// Initialize repository
	repo := clickhouse.NewRepository(clickhouseClient, log)
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Initialize ingestion core
	core := app.NewCore(cfg, repo, app.NewFetcher(cfg.Ingestion), log)

	ingestionService := service.NewIngestionService(
		core.Router,
		sqsClient,
		repo,
		core.Events,
		cfg.Ingestion.SubscriberBuffer,
		log,
	)

	h := handler.NewHandler(ingestionService, handler.Config{MaxCSVBytes: cfg.Ingestion.MaxCSVBytes}, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(h.CloseStreams)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return core.Run(gctx)
	})

	g.Go(func() error {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down API service gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("API service stopped with error", zap.Error(err))
	}
}
