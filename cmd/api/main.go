package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stocky-rewards-ledger/internal/api"
	apiservice "github.com/stocky-rewards-ledger/internal/api/service"
	"github.com/stocky-rewards-ledger/internal/config"
	"github.com/stocky-rewards-ledger/internal/data/postgres"
	"github.com/stocky-rewards-ledger/internal/logger"
	"github.com/stocky-rewards-ledger/internal/platform/messaging/producers"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
	rewardsvc "github.com/stocky-rewards-ledger/internal/rewards/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize the optional Kafka publisher for committed rewards
	var rewardProducer producers.MessagePublisher
	if cfg.Kafka.Enabled {
		producer, err := producers.NewRewardPostedProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize reward Kafka producer", "error", err)
			os.Exit(1)
		}
		rewardProducer = producer
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(log, postgresDB)
	rewardRepo := postgres.NewRewardRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	holdingRepo := postgres.NewHoldingRepository(log, postgresDB)
	idempotencyRepo := postgres.NewIdempotencyRepository(log, postgresDB)
	priceRepo := postgres.NewPriceRepository(log, postgresDB)
	snapshotRepo := postgres.NewSnapshotRepository(log, postgresDB)

	// Initialize services
	userService := apiservice.NewUserService(userRepo)
	postingService := rewardsvc.NewPostingService(log, postgresDB.Pool(), rewardRepo, ledgerRepo, holdingRepo, idempotencyRepo, rewardProducer, nil)
	portfolioService := apiservice.NewPortfolioService(log, holdingRepo, rewardRepo, priceRepo, snapshotRepo, cfg.Snapshot.PriceStaleness, nil)

	// Initialize REST server
	server := api.NewServer(log, cfg, postgresDB, userService, postingService, portfolioService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if rewardProducer != nil {
		if err := rewardProducer.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	postgresDB.Close()

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
