package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
)

type testEnv struct {
	store  *model.SQLStore
	cache  *StatsCache
	ledger LedgerService
	stats  StatsService
	backup BackupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "journal.db"), "")
	require.NoError(t, err)
	store := model.NewSQLStore(db)
	t.Cleanup(func() { store.Close() })

	c := NewStatsCache(time.Minute)
	ledger := NewLedgerService(store, c)
	return &testEnv{
		store:  store,
		cache:  c,
		ledger: ledger,
		stats:  NewStatsService(store, c),
		backup: NewBackupService(store, ledger),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

// seedBalance sets the starting principal.
func (e *testEnv) seedBalance(t *testing.T, amount string) {
	t.Helper()
	_, err := e.ledger.SetBalance(context.Background(), dec(amount), Expectation{})
	require.NoError(t, err)
}

func (e *testEnv) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.GetBalance(context.Background())
	require.NoError(t, err)
	return b.Amount
}

func closedTrade(symbol, pl string) CreateTradeInput {
	return CreateTradeInput{Symbol: symbol, Strategy: "test", Position: 10, IsClosed: true, ProfitLoss: decPtr(pl)}
}

func openTrade(symbol string) CreateTradeInput {
	return CreateTradeInput{Symbol: symbol, Strategy: "test", Position: 10}
}

func (e *testEnv) countTrades(t *testing.T) int {
	t.Helper()
	trades, err := e.store.ListTrades(context.Background(), models.TradeFilter{Limit: models.MaxListLimit})
	require.NoError(t, err)
	return len(trades)
}
