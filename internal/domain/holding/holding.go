// Package holding defines the per-user, per-symbol position aggregate valued
// at weighted-average cost.
package holding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Holding is the mutable aggregate keyed by (user_id, symbol). AvgPriceINR
// is the cost-basis weighted average across all quantity ever added.
type Holding struct {
	UserID      uuid.UUID       `json:"user_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgPriceINR decimal.Decimal `json:"avg_price_inr"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Repository defines holdings persistence operations
type Repository interface {
	// ApplyReward merges a granted lot into the (userID, symbol) row as a
	// single atomic upsert: the row is inserted if absent, otherwise the
	// quantity is added and the weighted average recomputed from the
	// currently committed row state, never from an application-layer
	// snapshot. Concurrent calls for the same pair serialize on the row.
	ApplyReward(ctx context.Context, userID uuid.UUID, symbol string, quantity, pricePerShare decimal.Decimal) error

	// ListByUser returns all holdings for a user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Holding, error)

	WithTx(tx pgx.Tx) Repository
}
