package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by the ledger store when an id matches no row.
var ErrNotFound = errors.New("not found")

// CloseReason records why a trade was closed.
type CloseReason string

const (
	CloseReasonProfit  CloseReason = "profit"
	CloseReasonLoss    CloseReason = "loss"
	CloseReasonOther   CloseReason = "other"
	CloseReasonPending CloseReason = "pending" // trade still open
)

// FundRecordType distinguishes cash moving in from cash moving out.
type FundRecordType string

const (
	FundDeposit  FundRecordType = "deposit"
	FundWithdraw FundRecordType = "withdraw"
)

// PositionOptions are the allowed position sizes, as a percentage of the balance.
var PositionOptions = []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50}

// ValidPosition reports whether p is one of PositionOptions.
func ValidPosition(p int) bool {
	for _, opt := range PositionOptions {
		if p == opt {
			return true
		}
	}
	return false
}

// Balance is the singleton cash figure. A zero Version means the row has not been written yet.
type Balance struct {
	Amount    decimal.Decimal `json:"balance" yaml:"amount"`
	Version   int64           `json:"version" yaml:"version"`
	CreatedAt time.Time       `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Trade is one journal entry. OpenAmount is fixed when the trade is created.
type Trade struct {
	ID          string          `json:"id" yaml:"id"`
	Symbol      string          `json:"symbol" yaml:"symbol"`
	Strategy    string          `json:"strategy" yaml:"strategy"`
	Position    int             `json:"position" yaml:"position"` // percent of balance, see PositionOptions
	OpenAmount  decimal.Decimal `json:"openAmount" yaml:"openAmount"`
	OpenTime    string          `json:"openTime,omitempty" yaml:"openTime,omitempty"` // HH:MM
	CloseReason CloseReason     `json:"closeReason" yaml:"closeReason"`
	Remark      string          `json:"remark,omitempty" yaml:"remark,omitempty"`
	ProfitLoss  decimal.Decimal `json:"profitLoss" yaml:"profitLoss"`
	Date        string          `json:"date" yaml:"date"` // YYYY-MM-DD
	IsClosed    bool            `json:"isClosed" yaml:"isClosed"`
	CreatedAt   time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" yaml:"updatedAt"`
}

// Contribution is the amount this trade currently adds to the balance.
func (t Trade) Contribution() decimal.Decimal {
	if !t.IsClosed {
		return decimal.Zero
	}
	return t.ProfitLoss
}

// FundRecord is a deposit or a withdrawal.
type FundRecord struct {
	ID        string          `json:"id" yaml:"id"`
	Type      FundRecordType  `json:"type" yaml:"type"`
	Amount    decimal.Decimal `json:"amount" yaml:"amount"` // always positive
	Date      string          `json:"date" yaml:"date"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
}

// Delta is the signed effect of the record on the balance.
func (r FundRecord) Delta() decimal.Decimal {
	if r.Type == FundWithdraw {
		return r.Amount.Neg()
	}
	return r.Amount
}

// EquityPoint is an append-only snapshot of the balance after a write.
type EquityPoint struct {
	ID        string          `json:"id" yaml:"id"`
	Date      string          `json:"date" yaml:"date"`
	Value     decimal.Decimal `json:"value" yaml:"value"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
}

const (
	DefaultTradeLimit      = 100
	DefaultFundRecordLimit = 50
	MaxListLimit           = 1000
)

// TradeFilter narrows ListTrades. Dates are inclusive and compared on Trade.Date.
type TradeFilter struct {
	IsClosed  *bool
	Symbol    string
	StartDate string
	EndDate   string
	Skip      int
	Limit     int
}

// FundRecordFilter narrows ListFundRecords. Dates are inclusive.
type FundRecordFilter struct {
	Type      FundRecordType
	StartDate string
	EndDate   string
	Skip      int
	Limit     int
}

// NormalizeLimit clamps a caller supplied page size.
func NormalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
