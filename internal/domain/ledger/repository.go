package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository manages ledger persistence. Writes happen only inside the
// reward posting transaction.
type Repository interface {
	// CreateTransaction inserts the header and fills in its generated ID
	// and CreatedAt.
	CreateTransaction(ctx context.Context, txn *Transaction) error

	// CreateEntries inserts the given entries for an already-created
	// transaction.
	CreateEntries(ctx context.Context, entries ...*Entry) error

	WithTx(tx pgx.Tx) Repository
}
