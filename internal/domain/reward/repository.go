package reward

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// SymbolQuantity is a per-symbol share total, used by the stats read side.
type SymbolQuantity struct {
	Symbol        string          `json:"symbol"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// Repository defines reward event persistence operations
type Repository interface {
	// Create inserts the event and fills in its generated ID and CreatedAt.
	Create(ctx context.Context, event *Event) error

	// ListRewardedOn returns the user's events whose rewarded_at falls on
	// the given calendar date, newest first.
	ListRewardedOn(ctx context.Context, userID uuid.UUID, day time.Time) ([]*Event, error)

	// SumQuantityRewardedOn returns per-symbol quantity totals for events
	// rewarded on the given calendar date.
	SumQuantityRewardedOn(ctx context.Context, userID uuid.UUID, day time.Time) ([]SymbolQuantity, error)

	WithTx(tx pgx.Tx) Repository
}
