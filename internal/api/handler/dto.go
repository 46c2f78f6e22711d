package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/money"
	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/snapshot"
)

// IdempotencyKeyHeader carries the client's idempotency key for POST /reward
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateUserRequest represents a request to register a new user
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// FeesRequest is the optional fee breakdown on a reward request. Absent
// components default to zero.
type FeesRequest struct {
	Brokerage decimal.Decimal `json:"brokerage"`
	STT       decimal.Decimal `json:"stt"`
	GST       decimal.Decimal `json:"gst"`
	Other     decimal.Decimal `json:"other"`
}

// PostRewardRequest represents a request to grant shares to a user
type PostRewardRequest struct {
	UserID         string          `json:"user_id" binding:"required,uuid"`
	Symbol         string          `json:"symbol" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	PricePerShare  decimal.Decimal `json:"price_per_share" binding:"required"`
	Fees           *FeesRequest    `json:"fees,omitempty"`
	RewardedAt     *time.Time      `json:"rewarded_at,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// RewardEventResponse represents a reward event in API responses, with
// decimals rendered at fixed scale
type RewardEventResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Symbol           string    `json:"symbol"`
	Quantity         string    `json:"quantity"`
	PricePerShare    string    `json:"price_per_share"`
	FeesTotal        string    `json:"fees_total"`
	TotalCashOutflow string    `json:"total_cash_outflow"`
	RewardedAt       time.Time `json:"rewarded_at"`
}

// SnapshotResponse represents one daily portfolio valuation in API responses
type SnapshotResponse struct {
	Date     string            `json:"date"`
	TotalINR string            `json:"total_inr"`
	Details  map[string]string `json:"details,omitempty"`
}

func mapEventToResponse(e *reward.Event) RewardEventResponse {
	return RewardEventResponse{
		ID:               e.ID.String(),
		UserID:           e.UserID.String(),
		Symbol:           e.Symbol,
		Quantity:         e.Quantity.StringFixed(money.QuantityScale),
		PricePerShare:    e.PricePerShare.StringFixed(money.MoneyScale),
		FeesTotal:        e.FeesTotal.StringFixed(money.MoneyScale),
		TotalCashOutflow: e.TotalCashOutflow.StringFixed(money.MoneyScale),
		RewardedAt:       e.RewardedAt,
	}
}

func mapSnapshotToResponse(s *snapshot.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Date:     s.SnapshotDate.Format("2006-01-02"),
		TotalINR: s.TotalINR.StringFixed(money.MoneyScale),
	}
	if len(s.Details) > 0 {
		resp.Details = make(map[string]string, len(s.Details))
		for symbol, value := range s.Details {
			resp.Details[symbol] = value.StringFixed(money.MoneyScale)
		}
	}
	return resp
}
