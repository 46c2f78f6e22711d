package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stocky-rewards-ledger/internal/domain/pricing"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

// PriceRepository implements the pricing.Repository interface for PostgreSQL
type PriceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPriceRepository creates a new PostgreSQL stock price repository
func NewPriceRepository(logger *slog.Logger, db *persistence.PostgresDB) pricing.Repository {
	return &PriceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Insert records a fetched price observation
func (r *PriceRepository) Insert(ctx context.Context, price *pricing.StockPrice) error {
	query := `
		INSERT INTO stock_prices (id, symbol, price_inr, fetched_at)
		VALUES ($1, $2, $3, $4)
	`

	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}
	_, err := r.querier.Exec(ctx, query, price.ID, price.Symbol, price.PriceINR, price.FetchedAt)
	if err != nil {
		r.logger.Error("Failed to insert stock price", "symbol", price.Symbol, "error", err)
		return fmt.Errorf("failed to insert stock price: %w", err)
	}

	return nil
}

// LatestBySymbols returns the most recent price per requested symbol
func (r *PriceRepository) LatestBySymbols(ctx context.Context, symbols []string) (map[string]*pricing.StockPrice, error) {
	query := `
		SELECT DISTINCT ON (symbol) id, symbol, price_inr, fetched_at
		FROM stock_prices
		WHERE symbol = ANY($1)
		ORDER BY symbol, fetched_at DESC
	`

	rows, err := r.querier.Query(ctx, query, symbols)
	if err != nil {
		r.logger.Error("Failed to query latest prices", "error", err)
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]*pricing.StockPrice)
	for rows.Next() {
		var p pricing.StockPrice
		if err := rows.Scan(&p.ID, &p.Symbol, &p.PriceINR, &p.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock price: %w", err)
		}
		prices[p.Symbol] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock prices: %w", err)
	}

	return prices, nil
}
