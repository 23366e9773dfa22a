// backend/src/services/stats_service.go
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/utils"
)

const (
	ckStats = "stats:%s:%s"
)

var hundred = decimal.NewFromInt(100)

type statsServiceImpl struct {
	store      model.LedgerReader
	statsCache *StatsCache
}

func NewStatsService(store model.LedgerReader, statsCache *StatsCache) StatsService {
	return &statsServiceImpl{store: store, statsCache: statsCache}
}

func (s *statsServiceImpl) GetStats(ctx context.Context, filter models.StatsFilter) (*models.TradeStats, error) {
	if err := validation.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(ckStats, filter.StartDate, filter.EndDate)
	if cached, found := s.statsCache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("Stats served from cache", "key", cacheKey)
		return cached, nil
	}
	gen := s.statsCache.Generation()

	trades, err := collectTrades(ctx, s.store, models.TradeFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return nil, classify(err)
	}
	records, err := collectFundRecords(ctx, s.store, models.FundRecordFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return nil, classify(err)
	}
	bal, err := s.store.GetBalance(ctx)
	if err != nil {
		return nil, classify(err)
	}

	stats := computeStats(trades, records)
	stats.CurrentBalance = bal.Amount
	stats.Filter = filter

	if !s.statsCache.Store(cacheKey, stats, gen) {
		logger.FromContext(ctx).Debug("Stats not cached, ledger changed while computing", "key", cacheKey)
	}
	return stats, nil
}

func computeStats(trades []models.Trade, records []models.FundRecord) *models.TradeStats {
	stats := &models.TradeStats{
		WinRate:          decimal.Zero,
		TotalProfitLoss:  decimal.Zero,
		GrossProfit:      decimal.Zero,
		GrossLoss:        decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		NetDeposits:      decimal.Zero,
		CurrentBalance:   decimal.Zero,
	}

	for _, t := range trades {
		stats.TotalTrades++
		if !t.IsClosed {
			stats.OpenTrades++
			continue
		}
		stats.ClosedTrades++
		stats.TotalProfitLoss = stats.TotalProfitLoss.Add(t.ProfitLoss)
		switch t.ProfitLoss.Sign() {
		case 1:
			stats.WinningTrades++
			stats.GrossProfit = stats.GrossProfit.Add(t.ProfitLoss)
		case -1:
			stats.LosingTrades++
			stats.GrossLoss = stats.GrossLoss.Add(t.ProfitLoss.Abs())
		}
	}
	if stats.ClosedTrades > 0 {
		stats.WinRate = utils.RoundMoney(decimal.NewFromInt(int64(stats.WinningTrades)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(stats.ClosedTrades))))
	}

	for _, r := range records {
		if r.Type == models.FundWithdraw {
			stats.TotalWithdrawals = stats.TotalWithdrawals.Add(r.Amount)
		} else {
			stats.TotalDeposits = stats.TotalDeposits.Add(r.Amount)
		}
	}
	stats.NetDeposits = stats.TotalDeposits.Sub(stats.TotalWithdrawals)
	return stats
}

// collectTrades pages through every trade matching filter.
func collectTrades(ctx context.Context, store model.LedgerReader, filter models.TradeFilter) ([]models.Trade, error) {
	filter.Limit = models.MaxListLimit
	all := []models.Trade{}
	for skip := 0; ; skip += models.MaxListLimit {
		filter.Skip = skip
		page, err := store.ListTrades(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < models.MaxListLimit {
			return all, nil
		}
	}
}

// collectFundRecords pages through every fund record matching filter.
func collectFundRecords(ctx context.Context, store model.LedgerReader, filter models.FundRecordFilter) ([]models.FundRecord, error) {
	filter.Limit = models.MaxListLimit
	all := []models.FundRecord{}
	for skip := 0; ; skip += models.MaxListLimit {
		filter.Skip = skip
		page, err := store.ListFundRecords(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < models.MaxListLimit {
			return all, nil
		}
	}
}
