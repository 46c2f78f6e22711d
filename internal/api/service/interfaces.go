// Package service holds the read-side and user-facing application services
// behind the HTTP handlers. The reward posting write path lives separately
// in internal/rewards/service.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/snapshot"
	"github.com/stocky-rewards-ledger/internal/domain/user"
)

// UserService defines user management operations
type UserService interface {
	// CreateUser registers a user. Returns user.ErrDuplicateEmail when the
	// email is already taken.
	CreateUser(ctx context.Context, name, email string) (*user.User, error)
}

// Position is one holding valued at the latest known price. Price fields
// are nil when no price has been ingested for the symbol yet.
type Position struct {
	Symbol          string           `json:"symbol"`
	Quantity        decimal.Decimal  `json:"quantity"`
	AvgPriceINR     decimal.Decimal  `json:"avg_price_inr"`
	CurrentPriceINR *decimal.Decimal `json:"current_price_inr"`
	CurrentValueINR *decimal.Decimal `json:"current_value_inr"`
	PriceAsOf       *time.Time       `json:"price_as_of"`
}

// Portfolio is a user's current holdings with their total INR value.
// Positions without a known price contribute nothing to the total.
type Portfolio struct {
	UserID        uuid.UUID       `json:"user_id"`
	Positions     []Position      `json:"positions"`
	TotalValueINR decimal.Decimal `json:"total_value_inr"`
}

// Stats combines today's reward totals with the current portfolio value.
// ValuationTimestamp is the oldest price used; PriceStale reports whether
// that price is older than the configured staleness threshold.
type Stats struct {
	UserID             uuid.UUID               `json:"user_id"`
	TodayRewards       []reward.SymbolQuantity `json:"today_rewards"`
	PortfolioValueINR  decimal.Decimal         `json:"portfolio_value_inr"`
	ValuationTimestamp *time.Time              `json:"valuation_timestamp"`
	PriceStale         bool                    `json:"price_stale"`
}

// PortfolioService defines the valuation and reporting read side
type PortfolioService interface {
	// GetPortfolio returns the user's holdings valued at latest prices.
	GetPortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error)

	// GetStats returns today's reward totals and the current portfolio
	// value with price freshness flags.
	GetStats(ctx context.Context, userID uuid.UUID) (*Stats, error)

	// GetTodayRewards returns the user's reward events granted today,
	// newest first.
	GetTodayRewards(ctx context.Context, userID uuid.UUID) ([]*reward.Event, error)

	// GetHistoricalValuations returns daily snapshots dated strictly
	// before today, newest first.
	GetHistoricalValuations(ctx context.Context, userID uuid.UUID) ([]*snapshot.Snapshot, error)
}
