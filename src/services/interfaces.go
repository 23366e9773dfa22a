// backend/src/services/interfaces.go
package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
)

// Expectation carries the optional optimistic-concurrency tokens a caller
// read before submitting a mutation. Nil fields are not checked.
type Expectation struct {
	Balance *decimal.Decimal
	Version *int64
}

type CreateTradeInput struct {
	Symbol      string
	Strategy    string
	Position    int
	OpenTime    string
	Date        string
	IsClosed    bool
	ProfitLoss  *decimal.Decimal
	CloseReason models.CloseReason
	Remark      string
	Expect      Expectation
}

// UpdateTradeInput is a partial update: nil fields keep their stored value.
type UpdateTradeInput struct {
	Symbol      *string
	Strategy    *string
	Position    *int
	OpenTime    *string
	Date        *string
	IsClosed    *bool
	ProfitLoss  *decimal.Decimal
	CloseReason *models.CloseReason
	Remark      *string
	Expect      Expectation
}

type CreateFundRecordInput struct {
	Type   models.FundRecordType
	Amount decimal.Decimal
	Date   string
	Expect Expectation
}

// TradeResult is a trade together with the balance after the write.
type TradeResult struct {
	Trade   *models.Trade
	Balance models.Balance
}

type FundRecordResult struct {
	Record  *models.FundRecord
	Balance models.Balance
}

type DeleteResult struct {
	Success bool
	Balance models.Balance
}

// LedgerService applies trade and fund-record mutations together with the
// balance change they imply, one at a time.
type LedgerService interface {
	GetBalance(ctx context.Context) (models.Balance, error)
	SetBalance(ctx context.Context, amount decimal.Decimal, expect Expectation) (models.Balance, error)

	CreateTrade(ctx context.Context, in CreateTradeInput) (*TradeResult, error)
	UpdateTrade(ctx context.Context, id string, in UpdateTradeInput) (*TradeResult, error)
	DeleteTrade(ctx context.Context, id string, expect Expectation) (*DeleteResult, error)
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error)

	CreateFundRecord(ctx context.Context, in CreateFundRecordInput) (*FundRecordResult, error)
	DeleteFundRecord(ctx context.Context, id string, expect Expectation) (*DeleteResult, error)
	GetFundRecord(ctx context.Context, id string) (*models.FundRecord, error)
	ListFundRecords(ctx context.Context, filter models.FundRecordFilter) ([]models.FundRecord, error)

	ListEquityHistory(ctx context.Context) ([]models.EquityPoint, error)
	ClearEquityHistory(ctx context.Context) (int64, error)
	ResetEquityHistory(ctx context.Context) ([]models.EquityPoint, error)

	// Replace discards all ledger state and writes snap in its place.
	Replace(ctx context.Context, snap *models.Snapshot) (*models.RestoreResult, error)
}

// StatsService computes dashboard aggregates.
type StatsService interface {
	GetStats(ctx context.Context, filter models.StatsFilter) (*models.TradeStats, error)
}

// BackupService exports and restores the whole ledger.
type BackupService interface {
	Export(ctx context.Context) (*models.Snapshot, error)
	Restore(ctx context.Context, snap *models.Snapshot) (*models.RestoreResult, error)
}
