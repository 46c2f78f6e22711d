// Package snapshots computes daily portfolio valuations. The worker values
// every user's holdings at the latest ingested prices and records one
// snapshot per user per calendar date; re-runs on the same date are no-ops
// because conflicting snapshots are ignored on insert.
package snapshots

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/holding"
	"github.com/stocky-rewards-ledger/internal/domain/money"
	"github.com/stocky-rewards-ledger/internal/domain/pricing"
	"github.com/stocky-rewards-ledger/internal/domain/snapshot"
	"github.com/stocky-rewards-ledger/internal/domain/user"
)

// Service fans per-user snapshot computations out over a bounded worker
// pool. Workers touch disjoint user rows, so they need no coordination
// beyond the pool itself.
type Service struct {
	userRepo     user.Repository
	holdingRepo  holding.Repository
	priceRepo    pricing.Repository
	snapshotRepo snapshot.Repository
	pool         *ants.Pool
	clock        func() time.Time
	logger       *slog.Logger
}

// NewService creates a snapshot service with poolSize concurrent workers.
// clock defaults to time.Now when nil.
func NewService(
	logger *slog.Logger,
	userRepo user.Repository,
	holdingRepo holding.Repository,
	priceRepo pricing.Repository,
	snapshotRepo snapshot.Repository,
	poolSize int,
	clock func() time.Time,
) (*Service, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		userRepo:     userRepo,
		holdingRepo:  holdingRepo,
		priceRepo:    priceRepo,
		snapshotRepo: snapshotRepo,
		pool:         pool,
		clock:        clock,
		logger:       logger,
	}, nil
}

// RunOnce snapshots every registered user for the current date. A single
// user's failure is logged and counted but does not stop the run; the
// first error is returned after all users have been attempted.
func (s *Service) RunOnce(ctx context.Context) error {
	userIDs, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return err
	}

	snapshotDate := s.clock().UTC().Truncate(24 * time.Hour)
	s.logger.Info("Starting snapshot run",
		"users", len(userIDs),
		"snapshot_date", snapshotDate.Format("2006-01-02"),
		"pool_size", s.pool.Cap(),
	)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	failures := 0

	for _, userID := range userIDs {
		userID := userID
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.snapshotUser(ctx, userID, snapshotDate); err != nil {
				s.logger.Error("Failed to snapshot user", "user_id", userID.String(), "error", err)
				mu.Lock()
				failures++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			failures++
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	s.logger.Info("Snapshot run finished", "users", len(userIDs), "failures", failures)
	return firstErr
}

// snapshotUser values one user's holdings at latest prices and upserts the
// snapshot. Symbols without a price contribute nothing to the total.
func (s *Service) snapshotUser(ctx context.Context, userID uuid.UUID, snapshotDate time.Time) error {
	holdings, err := s.holdingRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	prices, err := s.priceRepo.LatestBySymbols(ctx, symbols)
	if err != nil {
		return err
	}

	total := decimal.Zero
	details := make(map[string]decimal.Decimal, len(holdings))
	for _, h := range holdings {
		price, ok := prices[h.Symbol]
		if !ok {
			continue
		}
		value := money.GrossAmount(h.Quantity, price.PriceINR)
		details[h.Symbol] = value
		total = total.Add(value)
	}

	return s.snapshotRepo.Upsert(ctx, &snapshot.Snapshot{
		UserID:       userID,
		SnapshotDate: snapshotDate,
		TotalINR:     total,
		Details:      details,
	})
}

// Shutdown releases the worker pool
func (s *Service) Shutdown() {
	s.logger.Info("Shutting down snapshot worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}
