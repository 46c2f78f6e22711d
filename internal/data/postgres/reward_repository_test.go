package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocky-rewards-ledger/internal/domain/reward"
	"github.com/stocky-rewards-ledger/internal/domain/user"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEvent(t *testing.T, userID uuid.UUID) *reward.Event {
	t.Helper()
	event, err := reward.NewEvent(
		userID,
		"TCS",
		dec("2.5"),
		dec("3000"),
		reward.Fees{Brokerage: dec("10"), STT: dec("5"), GST: dec("2")},
		time.Date(2025, 9, 13, 10, 0, 0, 0, time.UTC),
		time.Now(),
	)
	require.NoError(t, err)
	return event
}

func TestRewardRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RewardRepository{querier: mock, logger: logger}
	userID := uuid.New()
	now := time.Now()

	query := `INSERT INTO reward_events`

	t.Run("success", func(t *testing.T) {
		event := newTestEvent(t, userID)
		feesJSON, err := json.Marshal(event.Fees)
		require.NoError(t, err)

		mock.ExpectQuery(query).
			WithArgs(pgxmock.AnyArg(), event.UserID, event.Symbol, event.Quantity, event.PricePerShare, event.FeesTotal, feesJSON, event.TotalCashOutflow, event.RewardedAt).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

		err = repo.Create(ctx, event)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.Equal(t, now, event.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		event := newTestEvent(t, userID)
		feesJSON, err := json.Marshal(event.Fees)
		require.NoError(t, err)

		mock.ExpectQuery(query).
			WithArgs(pgxmock.AnyArg(), event.UserID, event.Symbol, event.Quantity, event.PricePerShare, event.FeesTotal, feesJSON, event.TotalCashOutflow, event.RewardedAt).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err = repo.Create(ctx, event)
		require.Error(t, err)
		assert.ErrorIs(t, err, user.ErrUserNotFound{UserID: userID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		event := newTestEvent(t, userID)
		feesJSON, err := json.Marshal(event.Fees)
		require.NoError(t, err)

		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).
			WithArgs(pgxmock.AnyArg(), event.UserID, event.Symbol, event.Quantity, event.PricePerShare, event.FeesTotal, feesJSON, event.TotalCashOutflow, event.RewardedAt).
			WillReturnError(expectedErr)

		err = repo.Create(ctx, event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create reward event")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRewardRepository_ListRewardedOn(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RewardRepository{querier: mock, logger: logger}
	userID := uuid.New()
	day := time.Date(2025, 9, 13, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	query := `SELECT (.+) FROM reward_events`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "user_id", "symbol", "quantity", "price_per_share", "fees_total", "fees", "total_cash_outflow", "rewarded_at", "created_at"}).
			AddRow(uuid.New(), userID, "TCS", dec("2.5"), dec("3000"), dec("17"), []byte(`{"brokerage":"10","stt":"5","gst":"2","other":"0"}`), dec("7517"), now, now)

		mock.ExpectQuery(query).WithArgs(userID, day).WillReturnRows(rows)

		events, err := repo.ListRewardedOn(ctx, userID, day)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "TCS", events[0].Symbol)
		assert.True(t, dec("10").Equal(events[0].Fees.Brokerage))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID, day).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "symbol", "quantity", "price_per_share", "fees_total", "fees", "total_cash_outflow", "rewarded_at", "created_at"}))

		events, err := repo.ListRewardedOn(ctx, userID, day)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRewardRepository_SumQuantityRewardedOn(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RewardRepository{querier: mock, logger: logger}
	userID := uuid.New()
	day := time.Date(2025, 9, 13, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"symbol", "total_quantity"}).
		AddRow("TCS", dec("3.5")).
		AddRow("INFY", dec("1"))

	mock.ExpectQuery(`SELECT symbol, SUM\(quantity\)`).WithArgs(userID, day).WillReturnRows(rows)

	totals, err := repo.SumQuantityRewardedOn(ctx, userID, day)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "TCS", totals[0].Symbol)
	assert.True(t, dec("3.5").Equal(totals[0].TotalQuantity))
	assert.NoError(t, mock.ExpectationsWereMet())
}
