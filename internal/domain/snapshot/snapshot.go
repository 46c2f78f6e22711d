// Package snapshot defines the daily portfolio valuation records produced by
// the snapshot worker and served by the historical-inr endpoint.
package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is one user's total portfolio value on a calendar date, with a
// per-symbol value breakdown.
type Snapshot struct {
	ID           uuid.UUID                  `json:"id"`
	UserID       uuid.UUID                  `json:"user_id"`
	SnapshotDate time.Time                  `json:"snapshot_date"`
	TotalINR     decimal.Decimal            `json:"total_inr"`
	Details      map[string]decimal.Decimal `json:"details"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// Repository defines snapshot persistence operations
type Repository interface {
	// Upsert inserts the snapshot, silently keeping the existing row when
	// one already exists for (user_id, snapshot_date).
	Upsert(ctx context.Context, s *Snapshot) error

	// ListBefore returns the user's snapshots dated strictly before the
	// given date, newest first.
	ListBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*Snapshot, error)
}
