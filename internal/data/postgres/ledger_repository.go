package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stocky-rewards-ledger/internal/domain/ledger"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateTransaction inserts a ledger transaction header and fills in its
// generated ID and creation timestamp.
func (r *LedgerRepository) CreateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	query := `
		INSERT INTO ledger_txns (id, reference_type, reference_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	id := uuid.New()
	var createdAt time.Time
	err := r.querier.QueryRow(ctx, query, id, txn.ReferenceType, txn.ReferenceID, txn.Description).Scan(&createdAt)
	if err != nil {
		r.logger.Error("Failed to create ledger transaction", "reference_id", txn.ReferenceID.String(), "error", err)
		return fmt.Errorf("failed to create ledger transaction: %w", err)
	}

	txn.ID = id
	txn.CreatedAt = createdAt
	return nil
}

// CreateEntries inserts the legs of an already-created transaction. Entries
// are immutable once written.
func (r *LedgerRepository) CreateEntries(ctx context.Context, entries ...*ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (id, ledger_txn_id, account, amount_inr, amount_shares, symbol)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, entry := range entries {
		entry.ID = uuid.New()
		_, err := r.querier.Exec(ctx, query,
			entry.ID,
			entry.LedgerTxnID,
			entry.Account,
			entry.AmountINR,
			entry.AmountShares,
			entry.Symbol,
		)
		if err != nil {
			r.logger.Error("Failed to create ledger entry", "account", entry.Account, "error", err)
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}
	}

	return nil
}
