package snapshots

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stocky-rewards-ledger/internal/domain/holding"
	"github.com/stocky-rewards-ledger/internal/domain/pricing"
	"github.com/stocky-rewards-ledger/internal/domain/snapshot"
	"github.com/stocky-rewards-ledger/internal/domain/user"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockHoldingRepository is a mock implementation of holding.Repository
type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) ApplyReward(ctx context.Context, userID uuid.UUID, symbol string, quantity, pricePerShare decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, quantity, pricePerShare)
	return args.Error(0)
}

func (m *MockHoldingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*holding.Holding, error) {
	args := m.Called(ctx, userID)
	if holdings, ok := args.Get(0).([]*holding.Holding); ok {
		return holdings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHoldingRepository) WithTx(tx pgx.Tx) holding.Repository { return m }

// MockPriceRepository is a mock implementation of pricing.Repository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) Insert(ctx context.Context, price *pricing.StockPrice) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *MockPriceRepository) LatestBySymbols(ctx context.Context, symbols []string) (map[string]*pricing.StockPrice, error) {
	args := m.Called(ctx, symbols)
	if prices, ok := args.Get(0).(map[string]*pricing.StockPrice); ok {
		return prices, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSnapshotRepository is a mock implementation of snapshot.Repository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, s *snapshot.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotRepository) ListBefore(ctx context.Context, userID uuid.UUID, before time.Time) ([]*snapshot.Snapshot, error) {
	args := m.Called(ctx, userID, before)
	if snapshots, ok := args.Get(0).([]*snapshot.Snapshot); ok {
		return snapshots, args.Error(1)
	}
	return nil, args.Error(1)
}

var runNow = time.Date(2025, 6, 15, 23, 50, 0, 0, time.UTC)

func newTestService(t *testing.T, userRepo *MockUserRepository, holdingRepo *MockHoldingRepository, priceRepo *MockPriceRepository, snapshotRepo *MockSnapshotRepository) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, err := NewService(logger, userRepo, holdingRepo, priceRepo, snapshotRepo, 4, func() time.Time { return runNow })
	require.NoError(t, err)
	t.Cleanup(svc.Shutdown)
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSnapshotService_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots every user at latest prices", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		holdingRepo := new(MockHoldingRepository)
		priceRepo := new(MockPriceRepository)
		snapshotRepo := new(MockSnapshotRepository)

		userA := uuid.New()
		userB := uuid.New()
		userRepo.On("ListIDs", ctx).Return([]uuid.UUID{userA, userB}, nil).Once()

		holdingRepo.On("ListByUser", ctx, userA).Return([]*holding.Holding{
			{UserID: userA, Symbol: "TCS", Quantity: dec("2"), AvgPriceINR: dec("3000")},
		}, nil).Once()
		holdingRepo.On("ListByUser", ctx, userB).Return([]*holding.Holding{
			{UserID: userB, Symbol: "INFY", Quantity: dec("10"), AvgPriceINR: dec("1500")},
		}, nil).Once()

		priceRepo.On("LatestBySymbols", ctx, []string{"TCS"}).Return(map[string]*pricing.StockPrice{
			"TCS": {Symbol: "TCS", PriceINR: dec("3100"), FetchedAt: runNow},
		}, nil).Once()
		priceRepo.On("LatestBySymbols", ctx, []string{"INFY"}).Return(map[string]*pricing.StockPrice{
			"INFY": {Symbol: "INFY", PriceINR: dec("1450"), FetchedAt: runNow},
		}, nil).Once()

		expectedDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		snapshotRepo.On("Upsert", ctx, mock.MatchedBy(func(s *snapshot.Snapshot) bool {
			return s.UserID == userA && s.SnapshotDate.Equal(expectedDate) && s.TotalINR.Equal(dec("6200"))
		})).Return(nil).Once()
		snapshotRepo.On("Upsert", ctx, mock.MatchedBy(func(s *snapshot.Snapshot) bool {
			return s.UserID == userB && s.SnapshotDate.Equal(expectedDate) && s.TotalINR.Equal(dec("14500"))
		})).Return(nil).Once()

		svc := newTestService(t, userRepo, holdingRepo, priceRepo, snapshotRepo)
		require.NoError(t, svc.RunOnce(ctx))

		userRepo.AssertExpectations(t)
		holdingRepo.AssertExpectations(t)
		priceRepo.AssertExpectations(t)
		snapshotRepo.AssertExpectations(t)
	})

	t.Run("a user without holdings is skipped", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		holdingRepo := new(MockHoldingRepository)
		priceRepo := new(MockPriceRepository)
		snapshotRepo := new(MockSnapshotRepository)

		userID := uuid.New()
		userRepo.On("ListIDs", ctx).Return([]uuid.UUID{userID}, nil).Once()
		holdingRepo.On("ListByUser", ctx, userID).Return([]*holding.Holding{}, nil).Once()

		svc := newTestService(t, userRepo, holdingRepo, priceRepo, snapshotRepo)
		require.NoError(t, svc.RunOnce(ctx))

		priceRepo.AssertNotCalled(t, "LatestBySymbols", mock.Anything, mock.Anything)
		snapshotRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("one user's failure does not stop the run", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		holdingRepo := new(MockHoldingRepository)
		priceRepo := new(MockPriceRepository)
		snapshotRepo := new(MockSnapshotRepository)

		failing := uuid.New()
		healthy := uuid.New()
		userRepo.On("ListIDs", ctx).Return([]uuid.UUID{failing, healthy}, nil).Once()

		holdingRepo.On("ListByUser", ctx, failing).Return(nil, assert.AnError).Once()
		holdingRepo.On("ListByUser", ctx, healthy).Return([]*holding.Holding{
			{UserID: healthy, Symbol: "TCS", Quantity: dec("1"), AvgPriceINR: dec("3000")},
		}, nil).Once()
		priceRepo.On("LatestBySymbols", ctx, []string{"TCS"}).Return(map[string]*pricing.StockPrice{
			"TCS": {Symbol: "TCS", PriceINR: dec("3000"), FetchedAt: runNow},
		}, nil).Once()
		snapshotRepo.On("Upsert", ctx, mock.MatchedBy(func(s *snapshot.Snapshot) bool {
			return s.UserID == healthy
		})).Return(nil).Once()

		svc := newTestService(t, userRepo, holdingRepo, priceRepo, snapshotRepo)
		err := svc.RunOnce(ctx)
		require.Error(t, err)

		snapshotRepo.AssertNumberOfCalls(t, "Upsert", 1)
	})
}
