// Package service implements the reward posting protocol: the atomic,
// idempotent transaction that turns one reward request into a consistent
// set of writes across the reward event log, the double-entry ledger, and
// the holdings table.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stocky-rewards-ledger/internal/domain/holding"
	"github.com/stocky-rewards-ledger/internal/domain/idempotency"
	"github.com/stocky-rewards-ledger/internal/domain/ledger"
	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/user"
	"github.com/stocky-rewards-ledger/internal/platform/messaging/producers"
)

// PostingServiceImpl implements the PostingService interface
type PostingServiceImpl struct {
	db              TxBeginner
	rewardRepo      reward.Repository
	ledgerRepo      ledger.Repository
	holdingRepo     holding.Repository
	idempotencyRepo idempotency.Repository
	producer        producers.MessagePublisher // nil when publishing is disabled
	clock           func() time.Time
	logger          *slog.Logger
}

// NewPostingService creates a new reward posting service. producer may be
// nil; clock defaults to time.Now when nil.
func NewPostingService(
	logger *slog.Logger,
	db TxBeginner,
	rewardRepo reward.Repository,
	ledgerRepo ledger.Repository,
	holdingRepo holding.Repository,
	idempotencyRepo idempotency.Repository,
	producer producers.MessagePublisher,
	clock func() time.Time,
) PostingService {
	if clock == nil {
		clock = time.Now
	}
	return &PostingServiceImpl{
		db:              db,
		rewardRepo:      rewardRepo,
		ledgerRepo:      ledgerRepo,
		holdingRepo:     holdingRepo,
		idempotencyRepo: idempotencyRepo,
		producer:        producer,
		clock:           clock,
		logger:          logger,
	}
}

// PostReward runs the posting protocol: validate, consult the idempotency
// store, then compute and persist all four writes in one transaction.
func (s *PostingServiceImpl) PostReward(ctx context.Context, cmd PostRewardCommand, idempotencyKey string) (*PostingResult, error) {
	event, err := reward.NewEvent(cmd.UserID, cmd.Symbol, cmd.Quantity, cmd.PricePerShare, cmd.Fees, cmd.RewardedAt, s.clock())
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		record, err := s.idempotencyRepo.Get(ctx, idempotencyKey)
		if err != nil {
			return nil, &StorageError{Err: err}
		}
		if record != nil {
			s.logger.Info("Reward already processed for idempotency key",
				"idempotency_key", idempotencyKey,
				"user_id", cmd.UserID.String(),
			)
			return replayedResult(record), nil
		}
	}

	result, err := s.postOnce(ctx, *event, idempotencyKey)
	if err == nil {
		return result, nil
	}
	if result, recovered := s.recoverConflict(ctx, idempotencyKey, err); recovered {
		return result, nil
	}
	if isTerminal(err) || ctx.Err() != nil {
		return nil, err
	}

	// The failed attempt rolled back completely, so one in-place retry with
	// the same inputs cannot double-post.
	s.logger.Warn("Retrying reward posting after storage failure",
		"user_id", cmd.UserID.String(),
		"symbol", event.Symbol,
		"error", err,
	)
	result, err = s.postOnce(ctx, *event, idempotencyKey)
	if err == nil {
		return result, nil
	}
	if result, recovered := s.recoverConflict(ctx, idempotencyKey, err); recovered {
		return result, nil
	}
	if isTerminal(err) {
		return nil, err
	}
	return nil, &StorageError{Err: err}
}

// postOnce executes one attempt of the atomic block. The event is passed by
// value so a retry starts from a clean, unpersisted copy.
func (s *PostingServiceImpl) postOnce(ctx context.Context, event reward.Event, idempotencyKey string) (_ *PostingResult, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error("Failed to rollback posting transaction", "rollback_error", rbErr, "original_error", err)
			}
		}
	}()

	if err = s.rewardRepo.WithTx(tx).Create(ctx, &event); err != nil {
		return nil, err
	}

	txn := ledger.NewRewardTransaction(event.ID, event.Quantity, event.Symbol)
	ledgerRepo := s.ledgerRepo.WithTx(tx)
	if err = ledgerRepo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	asset, cash := ledger.BuildEntries(event.UserID, event.Symbol, event.Quantity, event.PricePerShare, event.FeesTotal)
	asset.LedgerTxnID = txn.ID
	cash.LedgerTxnID = txn.ID
	if err = ledgerRepo.CreateEntries(ctx, &asset, &cash); err != nil {
		return nil, err
	}

	if err = s.holdingRepo.WithTx(tx).ApplyReward(ctx, event.UserID, event.Symbol, event.Quantity, event.PricePerShare); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(event.Result())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal posting result: %w", err)
	}

	if idempotencyKey != "" {
		record := &idempotency.Record{
			IdempotencyKey: idempotencyKey,
			UserID:         event.UserID,
			ResultJSON:     payload,
		}
		// A duplicate request that slipped past the pre-read loses here on
		// the key's unique constraint and aborts the whole transaction.
		if err = s.idempotencyRepo.WithTx(tx).Create(ctx, record); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit posting transaction: %w", err)
	}

	s.logger.Info("Reward posted",
		"reward_id", event.ID.String(),
		"user_id", event.UserID.String(),
		"symbol", event.Symbol,
	)

	if s.producer != nil {
		if pubErr := s.producer.Publish(ctx, event.ID.String(), json.RawMessage(payload)); pubErr != nil {
			s.logger.Error("Failed to publish posted reward", "reward_id", event.ID.String(), "error", pubErr)
		}
	}

	return &PostingResult{RewardID: event.ID, Payload: payload}, nil
}

// recoverConflict turns a lost idempotency-key race into the winner's
// result. The losing transaction has already rolled back, so re-reading the
// store yields the committed record.
func (s *PostingServiceImpl) recoverConflict(ctx context.Context, idempotencyKey string, err error) (*PostingResult, bool) {
	var conflict idempotency.ErrKeyConflict
	if !errors.As(err, &conflict) {
		return nil, false
	}

	record, getErr := s.idempotencyRepo.Get(ctx, idempotencyKey)
	if getErr != nil || record == nil {
		s.logger.Error("Failed to read winning idempotency record after conflict",
			"idempotency_key", idempotencyKey,
			"error", getErr,
		)
		return nil, false
	}

	s.logger.Info("Lost idempotency race, returning winner's result", "idempotency_key", idempotencyKey)
	return replayedResult(record), true
}

// replayedResult rebuilds a PostingResult from a stored record. The payload
// is returned verbatim; the reward ID is recovered from it when readable.
func replayedResult(record *idempotency.Record) *PostingResult {
	result := &PostingResult{
		AlreadyProcessed: true,
		Payload:          record.ResultJSON,
	}
	var payload reward.ResultPayload
	if err := json.Unmarshal(record.ResultJSON, &payload); err == nil {
		result.RewardID = payload.RewardID
	}
	return result
}

// isTerminal reports whether err must not trigger a posting retry.
func isTerminal(err error) bool {
	var validationErr reward.ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	return errors.Is(err, user.ErrUserNotFound{})
}
