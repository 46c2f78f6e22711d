package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stocky-rewards-ledger/internal/domain/idempotency"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

const pgUniqueViolation = "23505"

// IdempotencyRepository implements the idempotency.Repository interface for PostgreSQL
type IdempotencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIdempotencyRepository creates a new PostgreSQL idempotency repository
func NewIdempotencyRepository(logger *slog.Logger, db *persistence.PostgresDB) idempotency.Repository {
	return &IdempotencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *IdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return &IdempotencyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get retrieves the record for a key, or nil when the key is unknown.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	query := `
		SELECT id, idempotency_key, user_id, result_json, created_at
		FROM idempotency_keys
		WHERE idempotency_key = $1
	`

	var record idempotency.Record
	err := r.querier.QueryRow(ctx, query, key).Scan(
		&record.ID,
		&record.IdempotencyKey,
		&record.UserID,
		&record.ResultJSON,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get idempotency record", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	return &record, nil
}

// Create inserts a write-once idempotency record. The unique constraint on
// the key column decides races between concurrent duplicate submissions;
// the loser receives ErrKeyConflict and must return the winner's result.
func (r *IdempotencyRepository) Create(ctx context.Context, record *idempotency.Record) error {
	query := `
		INSERT INTO idempotency_keys (id, idempotency_key, user_id, result_json)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	id := uuid.New()
	var createdAt time.Time
	err := r.querier.QueryRow(ctx, query, id, record.IdempotencyKey, record.UserID, record.ResultJSON).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return idempotency.ErrKeyConflict{Key: record.IdempotencyKey}
		}
		r.logger.Error("Failed to create idempotency record", "key", record.IdempotencyKey, "error", err)
		return fmt.Errorf("failed to create idempotency record: %w", err)
	}

	record.ID = id
	record.CreatedAt = createdAt
	return nil
}
