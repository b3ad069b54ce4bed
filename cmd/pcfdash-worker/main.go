package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pcfdash/internal/amqp"
	"pcfdash/internal/backend"
	"pcfdash/internal/config"
	"pcfdash/internal/core"
	"pcfdash/internal/dashboard"
	"pcfdash/internal/log"
	"pcfdash/internal/storage"
	"pcfdash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting pcfdash-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	clusters := core.DefaultClusters()

	sources, err := backend.BuildSources(context.Background(), cfg, clusters, logger)
	if err != nil {
		logger.Error("Failed to build row sources", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	dash := dashboard.New(sources.Clusters, sources.Shared, sources.Dedicated, logger)

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	opts := []worker.Option{
		worker.WithSnapshotStore(repo),
		worker.WithTimeout(cfg.FetchTimeout),
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, worker.WithEventPublisher(amqpClient))
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	refresher := worker.NewRefresher(dash, cfg.RefreshInterval, logger, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Log refreshes announced by other processes. Useful when the HTTP
	// server triggers manual refreshes and publishes them.
	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeRefreshCompleted(ctx, func(msg *amqp.RefreshCompletedMessage) error {
				logger.Info("Refresh event received",
					log.FieldGeneration, msg.Generation,
					log.FieldRowCount, msg.RowCount)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Refresh worker failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
