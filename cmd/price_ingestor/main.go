package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/config"
	"github.com/stocky-rewards-ledger/internal/data/postgres"
	"github.com/stocky-rewards-ledger/internal/domain/money"
	"github.com/stocky-rewards-ledger/internal/domain/pricing"
	"github.com/stocky-rewards-ledger/internal/logger"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

// price_ingestor records one mock INR price per configured symbol and exits.
// Run it on a schedule to keep the valuation endpoints fresh.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig("price_ingestor")
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

	priceRepo := postgres.NewPriceRepository(log, postgresDB)

	now := time.Now().UTC()
	band := cfg.PriceIngest.MaxPriceINR - cfg.PriceIngest.MinPriceINR
	failed := 0
	for _, symbol := range cfg.PriceIngest.Symbols {
		price := money.RoundMoney(decimal.NewFromFloat(cfg.PriceIngest.MinPriceINR + rand.Float64()*band))
		err := priceRepo.Insert(ctx, &pricing.StockPrice{
			Symbol:    symbol,
			PriceINR:  price,
			FetchedAt: now,
		})
		if err != nil {
			log.Error("Failed to record price", "symbol", symbol, "error", err)
			failed++
			continue
		}
		log.Info("Recorded price", "symbol", symbol, "price_inr", price.String())
	}

	if failed > 0 {
		log.Error("Price ingestion finished with failures", "failed", failed, "symbols", len(cfg.PriceIngest.Symbols))
		os.Exit(1)
	}
	log.Info("Price ingestion finished", "symbols", len(cfg.PriceIngest.Symbols))
}
