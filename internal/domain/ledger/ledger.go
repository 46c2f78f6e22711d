// Package ledger models the double-entry records derived from reward events.
// One reward produces one transaction with exactly two entries: a debit to
// the user's stock-asset account and a credit to their cash-liability
// account. Fees are absorbed into the cash leg, so the two legs net to the
// negative of the fee total rather than to zero.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/money"
)

// ReferenceTypeRewardEvent marks transactions derived from reward events.
const ReferenceTypeRewardEvent = "reward_event"

// Transaction groups the entries belonging to one business event.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uuid.UUID `json:"reference_id"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// Entry is one leg of a transaction. AmountShares is set only on stock-asset
// legs. Entries are immutable once written.
type Entry struct {
	ID           uuid.UUID        `json:"id"`
	LedgerTxnID  uuid.UUID        `json:"ledger_txn_id"`
	Account      string           `json:"account"`
	AmountINR    decimal.Decimal  `json:"amount_inr"`
	AmountShares *decimal.Decimal `json:"amount_shares,omitempty"`
	Symbol       string           `json:"symbol,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewRewardTransaction builds the transaction header for a reward event.
func NewRewardTransaction(rewardID uuid.UUID, quantity decimal.Decimal, symbol string) *Transaction {
	return &Transaction{
		ReferenceType: ReferenceTypeRewardEvent,
		ReferenceID:   rewardID,
		Description:   fmt.Sprintf("Reward of %s shares of %s", quantity.String(), symbol),
	}
}

// BuildEntries derives the two legs of a reward posting. The asset leg is
// debited quantity*price_per_share; the cash leg is credited the full cash
// outflow including fees.
func BuildEntries(userID uuid.UUID, symbol string, quantity, pricePerShare, feesTotal decimal.Decimal) (asset, cash Entry) {
	gross := money.GrossAmount(quantity, pricePerShare)
	shares := quantity

	asset = Entry{
		Account:      fmt.Sprintf("asset:stock:%s:user:%s", symbol, userID),
		AmountINR:    gross,
		AmountShares: &shares,
		Symbol:       symbol,
	}
	cash = Entry{
		Account:   fmt.Sprintf("liability:cash:user:%s", userID),
		AmountINR: gross.Add(feesTotal).Neg(),
		Symbol:    symbol,
	}
	return asset, cash
}
