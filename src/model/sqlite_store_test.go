package model

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "journal.db"), "")
	require.NoError(t, err)
	s := NewSQLStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTrade(id, date string, closed bool, pl string) *models.Trade {
	now := time.Now().UTC()
	tr := &models.Trade{
		ID:          id,
		Symbol:      "AAPL",
		Strategy:    "breakout",
		Position:    10,
		OpenAmount:  dec("100"),
		CloseReason: models.CloseReasonPending,
		ProfitLoss:  decimal.Zero,
		Date:        date,
		IsClosed:    closed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if closed {
		tr.ProfitLoss = dec(pl)
		tr.CloseReason = models.CloseReasonProfit
	}
	return tr
}

func TestGetBalanceWithoutRow(t *testing.T) {
	s := newTestStore(t)

	b, err := s.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())
	assert.Zero(t, b.Version)
}

func TestSetBalanceUpsertsAndBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var first, second models.Balance
	err := s.WithTx(ctx, func(tx LedgerTx) error {
		var err error
		first, err = tx.SetBalance(ctx, dec("1000.50"), time.Now())
		if err != nil {
			return err
		}
		second, err = tx.SetBalance(ctx, dec("750.25"), time.Now())
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := s.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("750.25")))
	assert.Equal(t, int64(2), got.Version)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx LedgerTx) error {
		if _, err := tx.SetBalance(ctx, dec("500"), time.Now()); err != nil {
			return err
		}
		if err := tx.CreateTrade(ctx, sampleTrade("T1", "2024-01-01", true, "10")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	b, err := s.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())

	_, err = s.GetTradeByID(ctx, "T1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx LedgerTx) error {
			_, _ = tx.SetBalance(ctx, dec("500"), time.Now())
			panic("half way")
		})
	})

	b, err := s.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())
}

func TestTradeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tr := sampleTrade("T1", "2024-03-01", true, "-12.345")
	tr.OpenTime = "09:30"

	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error { return tx.CreateTrade(ctx, tr) }))

	got, err := s.GetTradeByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, "09:30", got.OpenTime)
	assert.True(t, got.IsClosed)
	assert.True(t, got.ProfitLoss.Equal(dec("-12.345")))
	assert.WithinDuration(t, tr.CreatedAt, got.CreatedAt, time.Microsecond)

	got.ProfitLoss = dec("7")
	got.Remark = "moved stop"
	got.UpdatedAt = time.Now()
	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error { return tx.UpdateTrade(ctx, got) }))

	again, err := s.GetTradeByID(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, again.ProfitLoss.Equal(dec("7")))
	assert.Equal(t, "moved stop", again.Remark)

	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error { return tx.DeleteTrade(ctx, "T1") }))
	_, err = s.GetTradeByID(ctx, "T1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTradeMissingRowsReportNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx LedgerTx) error { return tx.UpdateTrade(ctx, sampleTrade("nope", "2024-01-01", false, "")) })
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = s.WithTx(ctx, func(tx LedgerTx) error { return tx.DeleteTrade(ctx, "nope") })
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = s.WithTx(ctx, func(tx LedgerTx) error { return tx.DeleteFundRecord(ctx, "nope") })
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListTradesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error {
		for _, tr := range []*models.Trade{
			sampleTrade("A1", "2024-01-05", true, "10"),
			sampleTrade("A2", "2024-01-10", false, ""),
			sampleTrade("A3", "2024-02-01", true, "-5"),
		} {
			if err := tx.CreateTrade(ctx, tr); err != nil {
				return err
			}
		}
		msft := sampleTrade("A4", "2024-01-20", true, "1")
		msft.Symbol = "MSFT"
		return tx.CreateTrade(ctx, msft)
	}))

	all, err := s.ListTrades(ctx, models.TradeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"A3", "A4", "A2", "A1"}, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	closed := true
	got, err := s.ListTrades(ctx, models.TradeFilter{IsClosed: &closed, Symbol: "aapl"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListTrades(ctx, models.TradeFilter{StartDate: "2024-01-06", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListTrades(ctx, models.TradeFilter{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A4", got[0].ID)

	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error {
		n, err := tx.DeleteAllTrades(ctx)
		assert.Equal(t, int64(4), n)
		return err
	}))
	got, err = s.ListTrades(ctx, models.TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFundRecordsAndEquity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error {
		if err := tx.CreateFundRecord(ctx, &models.FundRecord{ID: "F1", Type: models.FundDeposit, Amount: dec("300"), Date: "2024-01-01", CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.CreateFundRecord(ctx, &models.FundRecord{ID: "F2", Type: models.FundWithdraw, Amount: dec("50.5"), Date: "2024-01-02", CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.AppendEquity(ctx, &models.EquityPoint{ID: "E1", Date: "2024-01-01", Value: dec("300"), CreatedAt: now}); err != nil {
			return err
		}
		return tx.AppendEquity(ctx, &models.EquityPoint{ID: "E2", Date: "2024-01-02", Value: dec("249.5"), CreatedAt: now.Add(time.Millisecond)})
	}))

	rec, err := s.GetFundRecordByID(ctx, "F2")
	require.NoError(t, err)
	assert.Equal(t, models.FundWithdraw, rec.Type)
	assert.True(t, rec.Delta().Equal(dec("-50.5")))

	deposits, err := s.ListFundRecords(ctx, models.FundRecordFilter{Type: models.FundDeposit})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, "F1", deposits[0].ID)

	all, err := s.ListFundRecords(ctx, models.FundRecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "F2", all[0].ID)

	points, err := s.ListEquityHistory(ctx)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "E1", points[0].ID)
	assert.True(t, points[1].Value.Equal(dec("249.5")))

	require.NoError(t, s.WithTx(ctx, func(tx LedgerTx) error {
		n, err := tx.ClearEquityHistory(ctx)
		assert.Equal(t, int64(2), n)
		return err
	}))
	points, err = s.ListEquityHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, points)
}
