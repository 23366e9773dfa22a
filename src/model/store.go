// backend/src/model/store.go
package model

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
)

// LedgerReader is the read side shared by the store and its transactions.
type LedgerReader interface {
	// GetBalance returns a zero Balance (Version 0) when no row exists yet.
	GetBalance(ctx context.Context) (models.Balance, error)
	GetTradeByID(ctx context.Context, id string) (*models.Trade, error)
	ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error)
	GetFundRecordByID(ctx context.Context, id string) (*models.FundRecord, error)
	ListFundRecords(ctx context.Context, filter models.FundRecordFilter) ([]models.FundRecord, error)
	ListEquityHistory(ctx context.Context) ([]models.EquityPoint, error)
}

// LedgerTx is one open transaction. Every write to the ledger goes through it.
type LedgerTx interface {
	LedgerReader

	// LockBalance reads the balance and holds the write lock on it until the transaction ends.
	LockBalance(ctx context.Context) (models.Balance, error)
	// SetBalance upserts the singleton row and increments its version.
	SetBalance(ctx context.Context, amount decimal.Decimal, at time.Time) (models.Balance, error)

	CreateTrade(ctx context.Context, t *models.Trade) error
	UpdateTrade(ctx context.Context, t *models.Trade) error
	DeleteTrade(ctx context.Context, id string) error
	DeleteAllTrades(ctx context.Context) (int64, error)

	CreateFundRecord(ctx context.Context, r *models.FundRecord) error
	DeleteFundRecord(ctx context.Context, id string) error
	DeleteAllFundRecords(ctx context.Context) (int64, error)

	AppendEquity(ctx context.Context, p *models.EquityPoint) error
	ClearEquityHistory(ctx context.Context) (int64, error)
}

// LedgerStore owns the persisted ledger.
type LedgerStore interface {
	LedgerReader
	// WithTx commits iff fn returns nil and rolls back otherwise, including on panic.
	WithTx(ctx context.Context, fn func(tx LedgerTx) error) error
	Close() error
}
