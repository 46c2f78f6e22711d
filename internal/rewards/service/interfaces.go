package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/reward"
)

// PostRewardCommand carries a validated-shape reward request into the
// posting service. Field-level validation happens inside PostReward.
type PostRewardCommand struct {
	UserID        uuid.UUID
	Symbol        string
	Quantity      decimal.Decimal
	PricePerShare decimal.Decimal
	Fees          reward.Fees
	RewardedAt    time.Time
}

// PostingResult is the outcome of a reward posting. Payload is the exact
// marshaled response body; for an idempotent replay it is the bytes stored
// by the winning request, returned verbatim.
type PostingResult struct {
	RewardID         uuid.UUID
	AlreadyProcessed bool
	Payload          json.RawMessage
}

// PostingService defines the reward posting entry point consumed by the
// HTTP layer. Retry and idempotency policy live entirely behind it.
type PostingService interface {
	// PostReward atomically records a reward event, its ledger transaction
	// and entries, and the holdings update, memoizing the response under
	// the idempotency key when one is supplied. Returns a ValidationError
	// for malformed input, user.ErrUserNotFound for an unknown user, and
	// a *StorageError for retryable storage failures.
	PostReward(ctx context.Context, cmd PostRewardCommand, idempotencyKey string) (*PostingResult, error)
}

// TxBeginner abstracts transaction control over the pgx pool
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// StorageError wraps a storage-layer failure that occurred after full
// rollback. The caller may safely resubmit with the same idempotency key.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
