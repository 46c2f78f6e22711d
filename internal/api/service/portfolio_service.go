package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocky-rewards-ledger/internal/domain/holding"
	"github.com/stocky-rewards-ledger/internal/domain/money"
	"github.com/stocky-rewards-ledger/internal/domain/pricing"
	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/snapshot"
)

// PortfolioServiceImpl implements the PortfolioService interface
type PortfolioServiceImpl struct {
	holdingRepo  holding.Repository
	rewardRepo   reward.Repository
	priceRepo    pricing.Repository
	snapshotRepo snapshot.Repository
	staleness    time.Duration
	clock        func() time.Time
	logger       *slog.Logger
}

// NewPortfolioService creates a new portfolio read service. staleness is the
// age after which a valuation price counts as stale; clock defaults to
// time.Now when nil.
func NewPortfolioService(
	logger *slog.Logger,
	holdingRepo holding.Repository,
	rewardRepo reward.Repository,
	priceRepo pricing.Repository,
	snapshotRepo snapshot.Repository,
	staleness time.Duration,
	clock func() time.Time,
) PortfolioService {
	if clock == nil {
		clock = time.Now
	}
	return &PortfolioServiceImpl{
		holdingRepo:  holdingRepo,
		rewardRepo:   rewardRepo,
		priceRepo:    priceRepo,
		snapshotRepo: snapshotRepo,
		staleness:    staleness,
		clock:        clock,
		logger:       logger,
	}
}

// GetPortfolio values the user's holdings at the latest ingested prices.
// Symbols without a price appear with nil price fields and are excluded
// from the total.
func (s *PortfolioServiceImpl) GetPortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error) {
	holdings, err := s.holdingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prices, err := s.latestPrices(ctx, holdings)
	if err != nil {
		return nil, err
	}

	portfolio := &Portfolio{
		UserID:        userID,
		Positions:     make([]Position, 0, len(holdings)),
		TotalValueINR: decimal.Zero,
	}
	for _, h := range holdings {
		pos := Position{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AvgPriceINR: h.AvgPriceINR,
		}
		if price, ok := prices[h.Symbol]; ok {
			value := money.GrossAmount(h.Quantity, price.PriceINR)
			priceINR := price.PriceINR
			asOf := price.FetchedAt
			pos.CurrentPriceINR = &priceINR
			pos.CurrentValueINR = &value
			pos.PriceAsOf = &asOf
			portfolio.TotalValueINR = portfolio.TotalValueINR.Add(value)
		}
		portfolio.Positions = append(portfolio.Positions, pos)
	}

	return portfolio, nil
}

// GetStats combines today's reward totals with the current portfolio value
// and the freshness of the prices it was computed from. ValuationTimestamp
// is the newest price observation used; the valuation is stale when no
// price was used at all or that newest observation has aged past the
// staleness window.
func (s *PortfolioServiceImpl) GetStats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	now := s.clock()

	todayRewards, err := s.rewardRepo.SumQuantityRewardedOn(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	holdings, err := s.holdingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	prices, err := s.latestPrices(ctx, holdings)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		UserID:            userID,
		TodayRewards:      todayRewards,
		PortfolioValueINR: decimal.Zero,
	}
	for _, h := range holdings {
		price, ok := prices[h.Symbol]
		if !ok {
			// Symbols without any price observation are left out of the
			// valuation, same as in the portfolio view.
			continue
		}
		stats.PortfolioValueINR = stats.PortfolioValueINR.Add(money.GrossAmount(h.Quantity, price.PriceINR))
		if stats.ValuationTimestamp == nil || price.FetchedAt.After(*stats.ValuationTimestamp) {
			asOf := price.FetchedAt
			stats.ValuationTimestamp = &asOf
		}
	}
	if stats.ValuationTimestamp == nil || now.Sub(*stats.ValuationTimestamp) > s.staleness {
		stats.PriceStale = true
	}

	return stats, nil
}

// GetTodayRewards returns the reward events granted today, newest first
func (s *PortfolioServiceImpl) GetTodayRewards(ctx context.Context, userID uuid.UUID) ([]*reward.Event, error) {
	return s.rewardRepo.ListRewardedOn(ctx, userID, s.clock())
}

// GetHistoricalValuations returns daily snapshots strictly before today,
// newest first
func (s *PortfolioServiceImpl) GetHistoricalValuations(ctx context.Context, userID uuid.UUID) ([]*snapshot.Snapshot, error) {
	return s.snapshotRepo.ListBefore(ctx, userID, s.clock())
}

func (s *PortfolioServiceImpl) latestPrices(ctx context.Context, holdings []*holding.Holding) (map[string]*pricing.StockPrice, error) {
	if len(holdings) == 0 {
		return nil, nil
	}
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	return s.priceRepo.LatestBySymbols(ctx, symbols)
}
