// Package reward defines the reward event aggregate: the immutable fact that
// a user was granted shares of a stock, together with the fee breakdown and
// derived cash outflow.
package reward

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/money"
)

// Fees is the named breakdown of charges attached to a reward. Components
// default to zero and must never be negative.
type Fees struct {
	Brokerage decimal.Decimal `json:"brokerage"`
	STT       decimal.Decimal `json:"stt"`
	GST       decimal.Decimal `json:"gst"`
	Other     decimal.Decimal `json:"other"`
}

// Total sums the fee components at the money scale.
func (f Fees) Total() decimal.Decimal {
	return money.RoundMoney(f.Brokerage.Add(f.STT).Add(f.GST).Add(f.Other))
}

// Event is an immutable reward fact. TotalCashOutflow always equals
// quantity*price_per_share + fees_total.
type Event struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Symbol           string          `json:"symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	PricePerShare    decimal.Decimal `json:"price_per_share"`
	FeesTotal        decimal.Decimal `json:"fees_total"`
	Fees             Fees            `json:"fees"`
	TotalCashOutflow decimal.Decimal `json:"total_cash_outflow"`
	RewardedAt       time.Time       `json:"rewarded_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ValidationError reports a malformed request field. It is terminal: no
// storage is touched once validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// NewEvent validates and normalizes a reward request into an Event. The
// symbol is uppercased, fee components default to zero, and rewardedAt
// falls back to now when unset. The returned event has no ID or CreatedAt;
// the repository assigns both on insert.
func NewEvent(userID uuid.UUID, symbol string, quantity, pricePerShare decimal.Decimal, fees Fees, rewardedAt, now time.Time) (*Event, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if userID == uuid.Nil {
		return nil, ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if !quantity.IsPositive() {
		return nil, ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if money.ExceedsScale(quantity, money.QuantityScale) {
		return nil, ValidationError{Field: "quantity", Reason: "at most 6 decimal places"}
	}
	if !pricePerShare.IsPositive() {
		return nil, ValidationError{Field: "price_per_share", Reason: "must be positive"}
	}
	if money.ExceedsScale(pricePerShare, money.MoneyScale) {
		return nil, ValidationError{Field: "price_per_share", Reason: "at most 4 decimal places"}
	}
	for _, fee := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"fees.brokerage", fees.Brokerage},
		{"fees.stt", fees.STT},
		{"fees.gst", fees.GST},
		{"fees.other", fees.Other},
	} {
		if fee.value.IsNegative() {
			return nil, ValidationError{Field: fee.name, Reason: "must not be negative"}
		}
		if money.ExceedsScale(fee.value, money.MoneyScale) {
			return nil, ValidationError{Field: fee.name, Reason: "at most 4 decimal places"}
		}
	}
	if rewardedAt.IsZero() {
		rewardedAt = now
	}

	feesTotal := fees.Total()
	return &Event{
		UserID:           userID,
		Symbol:           symbol,
		Quantity:         quantity,
		PricePerShare:    pricePerShare,
		FeesTotal:        feesTotal,
		Fees:             fees,
		TotalCashOutflow: money.GrossAmount(quantity, pricePerShare).Add(feesTotal),
		RewardedAt:       rewardedAt,
	}, nil
}

// ResultPayload is the externally observable outcome of a reward posting.
// Decimal fields are rendered at fixed scale so the marshaled payload is
// byte-for-byte reproducible from the idempotency store.
type ResultPayload struct {
	RewardID         uuid.UUID `json:"reward_id"`
	UserID           uuid.UUID `json:"user_id"`
	Symbol           string    `json:"symbol"`
	Quantity         string    `json:"quantity"`
	PricePerShare    string    `json:"price_per_share"`
	FeesTotal        string    `json:"fees_total"`
	TotalCashOutflow string    `json:"total_cash_outflow"`
	RewardedAt       time.Time `json:"rewarded_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Result builds the response payload for a persisted event.
func (e *Event) Result() ResultPayload {
	return ResultPayload{
		RewardID:         e.ID,
		UserID:           e.UserID,
		Symbol:           e.Symbol,
		Quantity:         e.Quantity.StringFixed(money.QuantityScale),
		PricePerShare:    e.PricePerShare.StringFixed(money.MoneyScale),
		FeesTotal:        e.FeesTotal.StringFixed(money.MoneyScale),
		TotalCashOutflow: e.TotalCashOutflow.StringFixed(money.MoneyScale),
		RewardedAt:       e.RewardedAt,
		CreatedAt:        e.CreatedAt,
	}
}
