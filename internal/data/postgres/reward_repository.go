// Package postgres provides PostgreSQL implementations of the domain
// repositories. All writes performed during reward posting go through
// repositories wrapped with WithTx so the whole posting commits or rolls
// back as one unit.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/user"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

const pgForeignKeyViolation = "23503"

// RewardRepository implements the reward.Repository interface for PostgreSQL
type RewardRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewRewardRepository creates a new PostgreSQL reward event repository
func NewRewardRepository(logger *slog.Logger, db *persistence.PostgresDB) reward.Repository {
	return &RewardRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the reward event insert
// participates in the posting transaction.
func (r *RewardRepository) WithTx(tx pgx.Tx) reward.Repository {
	return &RewardRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts an immutable reward event and fills in the generated ID and
// creation timestamp. A missing user surfaces as user.ErrUserNotFound.
func (r *RewardRepository) Create(ctx context.Context, event *reward.Event) error {
	query := `
		INSERT INTO reward_events (id, user_id, symbol, quantity, price_per_share, fees_total, fees, total_cash_outflow, rewarded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	feesJSON, err := json.Marshal(event.Fees)
	if err != nil {
		return fmt.Errorf("failed to marshal fees: %w", err)
	}

	id := uuid.New()
	var createdAt time.Time
	err = r.querier.QueryRow(ctx, query,
		id,
		event.UserID,
		event.Symbol,
		event.Quantity,
		event.PricePerShare,
		event.FeesTotal,
		feesJSON,
		event.TotalCashOutflow,
		event.RewardedAt,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return user.ErrUserNotFound{UserID: event.UserID}
		}
		r.logger.Error("Failed to create reward event", "user_id", event.UserID.String(), "error", err)
		return fmt.Errorf("failed to create reward event: %w", err)
	}

	event.ID = id
	event.CreatedAt = createdAt
	return nil
}

// ListRewardedOn retrieves the user's reward events for a calendar date,
// newest first.
func (r *RewardRepository) ListRewardedOn(ctx context.Context, userID uuid.UUID, day time.Time) ([]*reward.Event, error) {
	query := `
		SELECT id, user_id, symbol, quantity, price_per_share, fees_total, fees, total_cash_outflow, rewarded_at, created_at
		FROM reward_events
		WHERE user_id = $1 AND DATE(rewarded_at) = DATE($2)
		ORDER BY rewarded_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID, day)
	if err != nil {
		r.logger.Error("Failed to list reward events", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list reward events: %w", err)
	}
	defer rows.Close()

	var events []*reward.Event
	for rows.Next() {
		var event reward.Event
		var feesJSON []byte
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Symbol,
			&event.Quantity,
			&event.PricePerShare,
			&event.FeesTotal,
			&feesJSON,
			&event.TotalCashOutflow,
			&event.RewardedAt,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward event: %w", err)
		}
		if len(feesJSON) > 0 {
			// Stored shape can predate a schema change; a decode failure
			// must not take down the read path.
			if err := json.Unmarshal(feesJSON, &event.Fees); err != nil {
				r.logger.Warn("Unreadable fees breakdown on reward event", "reward_id", event.ID.String(), "error", err)
			}
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reward events: %w", err)
	}

	return events, nil
}

// SumQuantityRewardedOn aggregates per-symbol share totals for events
// rewarded on a calendar date.
func (r *RewardRepository) SumQuantityRewardedOn(ctx context.Context, userID uuid.UUID, day time.Time) ([]reward.SymbolQuantity, error) {
	query := `
		SELECT symbol, SUM(quantity) AS total_quantity
		FROM reward_events
		WHERE user_id = $1 AND DATE(rewarded_at) = DATE($2)
		GROUP BY symbol
	`

	rows, err := r.querier.Query(ctx, query, userID, day)
	if err != nil {
		r.logger.Error("Failed to sum rewarded quantities", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to sum rewarded quantities: %w", err)
	}
	defer rows.Close()

	var totals []reward.SymbolQuantity
	for rows.Next() {
		var sq reward.SymbolQuantity
		if err := rows.Scan(&sq.Symbol, &sq.TotalQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan rewarded quantity total: %w", err)
		}
		totals = append(totals, sq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rewarded quantity totals: %w", err)
	}

	return totals, nil
}
