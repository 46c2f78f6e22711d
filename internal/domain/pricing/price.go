// Package pricing defines the stock price feed consumed by the read-side
// valuation endpoints and the snapshot worker.
package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockPrice is one observed INR price for a symbol.
type StockPrice struct {
	ID        uuid.UUID       `json:"id"`
	Symbol    string          `json:"symbol"`
	PriceINR  decimal.Decimal `json:"price_inr"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Repository defines stock price persistence operations
type Repository interface {
	// Insert records a newly fetched price.
	Insert(ctx context.Context, price *StockPrice) error

	// LatestBySymbols returns the most recent price per symbol. Symbols
	// with no recorded price are absent from the result.
	LatestBySymbols(ctx context.Context, symbols []string) (map[string]*StockPrice, error)
}
