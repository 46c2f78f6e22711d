package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stocky-rewards-ledger/internal/domain/snapshot"
	"github.com/stocky-rewards-ledger/internal/platform/persistence"
)

// SnapshotRepository implements the snapshot.Repository interface for PostgreSQL
type SnapshotRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(logger *slog.Logger, db *persistence.PostgresDB) snapshot.Repository {
	return &SnapshotRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Upsert inserts a daily snapshot, keeping any existing row for the same
// (user, date). A rerun of the worker therefore never overwrites values
// computed earlier in the day.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *snapshot.Snapshot) error {
	query := `
		INSERT INTO daily_portfolio_snapshots (id, user_id, snapshot_date, total_inr, details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, snapshot_date) DO NOTHING
	`

	detailsJSON, err := json.Marshal(s.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot details: %w", err)
	}

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err = r.querier.Exec(ctx, query, s.ID, s.UserID, s.SnapshotDate, s.TotalINR, detailsJSON)
	if err != nil {
		r.logger.Error("Failed to upsert snapshot", "user_id", s.UserID.String(), "error", err)
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// ListBefore retrieves the user's snapshots dated strictly before the given
// date, newest first.
func (r *SnapshotRepository) ListBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*snapshot.Snapshot, error) {
	query := `
		SELECT id, user_id, snapshot_date, total_inr, details, created_at
		FROM daily_portfolio_snapshots
		WHERE user_id = $1 AND snapshot_date < DATE($2)
		ORDER BY snapshot_date DESC
	`

	rows, err := r.querier.Query(ctx, query, userID, before)
	if err != nil {
		r.logger.Error("Failed to list snapshots", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*snapshot.Snapshot
	for rows.Next() {
		var s snapshot.Snapshot
		var detailsJSON []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.SnapshotDate, &s.TotalINR, &detailsJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &s.Details); err != nil {
				r.logger.Warn("Unreadable snapshot details", "snapshot_id", s.ID.String(), "error", err)
			}
		}
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	return snapshots, nil
}
