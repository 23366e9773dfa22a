package models

import "github.com/shopspring/decimal"

// StatsFilter restricts statistics to trades dated within [StartDate, EndDate].
type StatsFilter struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// TradeStats aggregates the journal for the dashboard.
type TradeStats struct {
	TotalTrades      int             `json:"totalTrades"`
	ClosedTrades     int             `json:"closedTrades"`
	OpenTrades       int             `json:"openTrades"`
	WinningTrades    int             `json:"winningTrades"`
	LosingTrades     int             `json:"losingTrades"`
	WinRate          decimal.Decimal `json:"winRate"` // percent of closed trades with a profit
	TotalProfitLoss  decimal.Decimal `json:"totalProfitLoss"`
	GrossProfit      decimal.Decimal `json:"grossProfit"`
	GrossLoss        decimal.Decimal `json:"grossLoss"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	NetDeposits      decimal.Decimal `json:"netDeposits"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	Filter           StatsFilter     `json:"filter"`
}
