// Package idempotency stores the memoized response for each client-supplied
// idempotency key. A key maps to exactly one reward posting result; the
// unique constraint on the key column is the serialization point for
// duplicate submissions.
package idempotency

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Record memoizes the full response payload returned for a key. Written at
// most once, read many times.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	UserID         uuid.UUID       `json:"user_id"`
	ResultJSON     json.RawMessage `json:"result_json"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Repository defines idempotency record persistence operations
type Repository interface {
	// Get returns the record for the key, or nil when absent.
	Get(ctx context.Context, key string) (*Record, error)

	// Create inserts a new record. Returns ErrKeyConflict when the key
	// already exists; the caller must then re-read and return the winner's
	// result instead of erroring.
	Create(ctx context.Context, record *Record) error

	WithTx(tx pgx.Tx) Repository
}

// ErrKeyConflict indicates a concurrent insert won the key's unique
// constraint. Recovered internally, never surfaced to the client.
type ErrKeyConflict struct {
	Key string
}

func (e ErrKeyConflict) Error() string {
	return "idempotency key already recorded: " + e.Key
}

// Is implements the errors.Is interface for ErrKeyConflict
func (e ErrKeyConflict) Is(target error) bool {
	t, ok := target.(ErrKeyConflict)
	if !ok {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}
