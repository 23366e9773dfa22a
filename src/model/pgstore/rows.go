package pgstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
)

type balanceRow struct {
	ID        int             `gorm:"primaryKey;autoIncrement:false"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,8);not null;default:0"`
	Version   int64           `gorm:"not null;default:0"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime:false"`
}

func (balanceRow) TableName() string { return "balance" }

func (r balanceRow) toModel() models.Balance {
	return models.Balance{Amount: r.Amount, Version: r.Version, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

type tradeRow struct {
	ID          string          `gorm:"primaryKey;size:64"`
	Symbol      string          `gorm:"size:32;not null;index"`
	Strategy    string          `gorm:"size:1024;not null;default:''"`
	Position    int             `gorm:"not null"`
	OpenAmount  decimal.Decimal `gorm:"type:numeric(18,8);not null;default:0"`
	OpenTime    string          `gorm:"size:5;not null;default:''"`
	CloseReason string          `gorm:"size:16;not null;default:'pending'"`
	Remark      string          `gorm:"size:1024;not null;default:''"`
	ProfitLoss  decimal.Decimal `gorm:"type:numeric(18,8);not null;default:0"`
	Date        string          `gorm:"size:10;not null;index"`
	IsClosed    bool            `gorm:"not null;default:false;index"`
	CreatedAt   time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime:false"`
}

func (tradeRow) TableName() string { return "trades" }

func tradeFromModel(t *models.Trade) tradeRow {
	return tradeRow{
		ID:          t.ID,
		Symbol:      t.Symbol,
		Strategy:    t.Strategy,
		Position:    t.Position,
		OpenAmount:  t.OpenAmount,
		OpenTime:    t.OpenTime,
		CloseReason: string(t.CloseReason),
		Remark:      t.Remark,
		ProfitLoss:  t.ProfitLoss,
		Date:        t.Date,
		IsClosed:    t.IsClosed,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (r tradeRow) toModel() models.Trade {
	return models.Trade{
		ID:          r.ID,
		Symbol:      r.Symbol,
		Strategy:    r.Strategy,
		Position:    r.Position,
		OpenAmount:  r.OpenAmount,
		OpenTime:    r.OpenTime,
		CloseReason: models.CloseReason(r.CloseReason),
		Remark:      r.Remark,
		ProfitLoss:  r.ProfitLoss,
		Date:        r.Date,
		IsClosed:    r.IsClosed,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type fundRecordRow struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Type      string          `gorm:"size:16;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,8);not null"`
	Date      string          `gorm:"size:10;not null;index"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false"`
}

func (fundRecordRow) TableName() string { return "fund_records" }

func (r fundRecordRow) toModel() models.FundRecord {
	return models.FundRecord{
		ID:        r.ID,
		Type:      models.FundRecordType(r.Type),
		Amount:    r.Amount,
		Date:      r.Date,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type equityRow struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Date      string          `gorm:"size:10;not null"`
	Value     decimal.Decimal `gorm:"type:numeric(18,8);not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false;index"`
}

func (equityRow) TableName() string { return "equity_history" }

func (r equityRow) toModel() models.EquityPoint {
	return models.EquityPoint{ID: r.ID, Date: r.Date, Value: r.Value, CreatedAt: r.CreatedAt.UTC()}
}
