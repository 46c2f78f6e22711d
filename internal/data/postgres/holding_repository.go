package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/holding"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

// HoldingRepository implements the holding.Repository interface for PostgreSQL
type HoldingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewHoldingRepository creates a new PostgreSQL holdings repository
func NewHoldingRepository(logger *slog.Logger, db *persistence.PostgresDB) holding.Repository {
	return &HoldingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *HoldingRepository) WithTx(tx pgx.Tx) holding.Repository {
	return &HoldingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// ApplyReward merges a granted lot into the (user, symbol) row. The merge is
// a single INSERT ... ON CONFLICT statement: the weighted average is
// recomputed in the database from the committed row, and the row lock taken
// by the upsert serializes concurrent postings for the same pair. Splitting
// this into a select followed by an update would reintroduce lost updates.
func (r *HoldingRepository) ApplyReward(ctx context.Context, userID uuid.UUID, symbol string, quantity, pricePerShare decimal.Decimal) error {
	query := `
		INSERT INTO holdings (user_id, symbol, quantity, avg_price_inr, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, symbol)
		DO UPDATE
		SET quantity = holdings.quantity + EXCLUDED.quantity,
		    avg_price_inr =
		      CASE
		        WHEN holdings.quantity + EXCLUDED.quantity = 0 THEN 0
		        ELSE ROUND(((holdings.avg_price_inr * holdings.quantity) + (EXCLUDED.avg_price_inr * EXCLUDED.quantity)) / (holdings.quantity + EXCLUDED.quantity), 4)
		      END,
		    updated_at = now()
	`

	_, err := r.querier.Exec(ctx, query, userID, symbol, quantity, pricePerShare)
	if err != nil {
		r.logger.Error("Failed to apply reward to holding", "user_id", userID.String(), "symbol", symbol, "error", err)
		return fmt.Errorf("failed to apply reward to holding: %w", err)
	}

	return nil
}

// ListByUser retrieves all holdings for a user ordered by symbol
func (r *HoldingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*holding.Holding, error) {
	query := `
		SELECT user_id, symbol, quantity, avg_price_inr, updated_at
		FROM holdings
		WHERE user_id = $1
		ORDER BY symbol
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list holdings", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*holding.Holding
	for rows.Next() {
		var h holding.Holding
		if err := rows.Scan(&h.UserID, &h.Symbol, &h.Quantity, &h.AvgPriceINR, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read holdings: %w", err)
	}

	return holdings, nil
}
