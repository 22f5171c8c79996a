package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cashflow/internal/amqp"
	"cashflow/internal/config"
	"cashflow/internal/log"
	"cashflow/internal/provider"
	"cashflow/internal/services"
	"cashflow/internal/storage"
	"cashflow/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting sync-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.ProviderToken == "" {
		logger.Error("LM_API_TOKEN is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	source := provider.NewLunchMoney(cfg.ProviderBaseURL, cfg.ProviderToken, cfg.ProviderTimeout)
	syncWorker := worker.NewSyncWorker(source,
		services.NewReconciler(repo, logger),
		services.NewAccountIngester(repo, logger),
		logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Worker running",
		"interval", cfg.SyncInterval.String(),
		"sync_days", cfg.SyncDays,
		"queue", cfg.AMQPQueue)

	if err := syncWorker.Run(ctx, amqpClient, cfg.SyncInterval, cfg.SyncDays); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped")
}
