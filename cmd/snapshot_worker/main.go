package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/stocky-rewards-ledger/internal/config"
	"github.com/stocky-rewards-ledger/internal/data/postgres"
	"github.com/stocky-rewards-ledger/internal/logger"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
	"github.com/stocky-rewards-ledger/internal/snapshots"
)

// snapshot_worker values every user's portfolio once and exits. Run it once
// per day; re-runs on the same date are no-ops.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig("snapshot_worker")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

	userRepo := postgres.NewUserRepository(log, postgresDB)
	holdingRepo := postgres.NewHoldingRepository(log, postgresDB)
	priceRepo := postgres.NewPriceRepository(log, postgresDB)
	snapshotRepo := postgres.NewSnapshotRepository(log, postgresDB)

	service, err := snapshots.NewService(log, userRepo, holdingRepo, priceRepo, snapshotRepo, cfg.Snapshot.WorkerPoolSize, nil)
	if err != nil {
		log.Error("Failed to initialize snapshot service", "error", err)
		os.Exit(1)
	}
	defer service.Shutdown()

	if err := service.RunOnce(ctx); err != nil {
		log.Error("Snapshot run finished with failures", "error", err)
		os.Exit(1)
	}
	log.Info("Snapshot run completed successfully")
}
