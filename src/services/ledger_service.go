// backend/src/services/ledger_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/utils"
)

// remark stored when a zero P/L trade is closed without a reason
const remarkBreakEven = "break-even"

type ledgerServiceImpl struct {
	store      model.LedgerStore
	statsCache *StatsCache
	now        func() time.Time

	// mu makes this process the single writer; the store transaction
	// protects against anything else touching the database.
	mu sync.Mutex
}

func NewLedgerService(store model.LedgerStore, statsCache *StatsCache) LedgerService {
	return &ledgerServiceImpl{
		store:      store,
		statsCache: statsCache,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// write runs fn as one serialized transaction and drops cached aggregates on success.
func (s *ledgerServiceImpl) write(ctx context.Context, op string, fn func(tx model.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithTx(ctx, fn)
	if err != nil {
		err = classify(err)
		l := logger.FromContext(ctx)
		if errors.Is(err, ErrStorage) {
			l.Error("Ledger write failed", "operation", op, "error", err)
		} else {
			l.Info("Ledger write rejected", "operation", op, "reason", ErrorKind(err), "error", err)
		}
		return err
	}
	s.statsCache.Invalidate()
	return nil
}

func validateExpectation(exp Expectation) error {
	if exp.Balance == nil {
		return nil
	}
	return validation.ValidateMoney(*exp.Balance, "expectedBalance")
}

func checkExpectation(bal models.Balance, exp Expectation) error {
	if exp.Balance != nil && !bal.Amount.Equal(*exp.Balance) {
		return fmt.Errorf("%w: balance is %s, expected %s", ErrConflict, bal.Amount.String(), exp.Balance.String())
	}
	if exp.Version != nil && bal.Version != *exp.Version {
		return fmt.Errorf("%w: balance version is %d, expected %d", ErrConflict, bal.Version, *exp.Version)
	}
	return nil
}

func applyDelta(current, delta decimal.Decimal) (decimal.Decimal, error) {
	next := current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: balance %s with change %s would become %s",
			ErrInsufficientBalance, current.String(), delta.String(), next.String())
	}
	if next.GreaterThanOrEqual(validation.MaxMoney) {
		return decimal.Zero, fmt.Errorf("%w: balance %s with change %s would reach the %s limit",
			validation.ErrValidationFailed, current.String(), delta.String(), validation.MaxMoney.String())
	}
	return next, nil
}

func (s *ledgerServiceImpl) appendEquity(ctx context.Context, tx model.LedgerTx, value decimal.Decimal, now time.Time) error {
	return tx.AppendEquity(ctx, &models.EquityPoint{
		ID:        utils.NewID(),
		Date:      now.Format(validation.DateLayout),
		Value:     value,
		CreatedAt: now,
	})
}

// resolveClose derives the closing fields a trade must carry given whether it is closed.
// An open trade always has zero P/L and the pending reason.
func resolveClose(isClosed bool, pl *decimal.Decimal, reason models.CloseReason, remark string) (decimal.Decimal, models.CloseReason, string, error) {
	if !isClosed {
		return decimal.Zero, models.CloseReasonPending, "", nil
	}
	if pl == nil {
		return decimal.Zero, "", "", fmt.Errorf("%w: profitLoss is required when the trade is closed", validation.ErrValidationFailed)
	}
	if err := validation.ValidateMoney(*pl, "profitLoss"); err != nil {
		return decimal.Zero, "", "", err
	}
	remark, err := validation.CleanFreeText(remark, validation.MaxRemarkLength, "remark")
	if err != nil {
		return decimal.Zero, "", "", err
	}
	if reason == "" {
		switch pl.Sign() {
		case 1:
			reason = models.CloseReasonProfit
		case -1:
			reason = models.CloseReasonLoss
		default:
			reason = models.CloseReasonOther
			if remark == "" {
				remark = remarkBreakEven
			}
		}
	}
	if err := validation.ValidateCloseReason(reason); err != nil {
		return decimal.Zero, "", "", err
	}
	if reason != models.CloseReasonOther {
		return *pl, reason, "", nil
	}
	if remark == "" {
		return decimal.Zero, "", "", fmt.Errorf("%w: remark is required when closeReason is other", validation.ErrValidationFailed)
	}
	return *pl, reason, remark, nil
}

// --- Balance ---

func (s *ledgerServiceImpl) GetBalance(ctx context.Context) (models.Balance, error) {
	b, err := s.store.GetBalance(ctx)
	return b, classify(err)
}

func (s *ledgerServiceImpl) SetBalance(ctx context.Context, amount decimal.Decimal, expect Expectation) (models.Balance, error) {
	if err := validation.ValidateNonNegativeAmount(amount, "amount"); err != nil {
		return models.Balance{}, err
	}
	if err := validateExpectation(expect); err != nil {
		return models.Balance{}, err
	}

	var result models.Balance
	err := s.write(ctx, "set_balance", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		if err := checkExpectation(bal, expect); err != nil {
			return err
		}
		now := s.now()
		if result, err = tx.SetBalance(ctx, amount, now); err != nil {
			return err
		}
		return s.appendEquity(ctx, tx, result.Amount, now)
	})
	if err != nil {
		return models.Balance{}, err
	}
	logger.FromContext(ctx).Info("Balance overridden", "balance", result.Amount.String(), "version", result.Version)
	return result, nil
}

// --- Trades ---

func newTradeFromInput(in CreateTradeInput) (*models.Trade, error) {
	symbol, err := validation.ValidateSymbol(in.Symbol)
	if err != nil {
		return nil, err
	}
	strategy, err := validation.CleanFreeText(in.Strategy, validation.MaxStrategyLength, "strategy")
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePosition(in.Position); err != nil {
		return nil, err
	}
	openTime, err := validation.ValidateOpenTime(in.OpenTime)
	if err != nil {
		return nil, err
	}
	date, err := validation.NormalizeDate(in.Date, "date")
	if err != nil {
		return nil, err
	}
	pl, reason, remark, err := resolveClose(in.IsClosed, in.ProfitLoss, in.CloseReason, in.Remark)
	if err != nil {
		return nil, err
	}
	return &models.Trade{
		Symbol:      symbol,
		Strategy:    strategy,
		Position:    in.Position,
		OpenTime:    openTime,
		CloseReason: reason,
		Remark:      remark,
		ProfitLoss:  pl,
		Date:        date,
		IsClosed:    in.IsClosed,
	}, nil
}

func (s *ledgerServiceImpl) CreateTrade(ctx context.Context, in CreateTradeInput) (*TradeResult, error) {
	if err := validateExpectation(in.Expect); err != nil {
		return nil, err
	}
	trade, err := newTradeFromInput(in)
	if err != nil {
		return nil, err
	}

	var result TradeResult
	err = s.write(ctx, "create_trade", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		if err := checkExpectation(bal, in.Expect); err != nil {
			return err
		}
		next, err := applyDelta(bal.Amount, trade.Contribution())
		if err != nil {
			return err
		}

		now := s.now()
		trade.ID = utils.NewID()
		trade.OpenAmount = utils.PercentOf(bal.Amount, trade.Position)
		trade.CreatedAt = now
		trade.UpdatedAt = now
		if err := tx.CreateTrade(ctx, trade); err != nil {
			return err
		}
		newBal, err := tx.SetBalance(ctx, next, now)
		if err != nil {
			return err
		}
		result = TradeResult{Trade: trade, Balance: newBal}
		return s.appendEquity(ctx, tx, newBal.Amount, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Trade created", "tradeID", trade.ID, "symbol", trade.Symbol, "isClosed", trade.IsClosed, "profitLoss", trade.ProfitLoss.String(), "balance", result.Balance.Amount.String())
	return &result, nil
}

// validateTradePatch checks the fields that do not depend on the stored trade.
func validateTradePatch(in *UpdateTradeInput) error {
	if in.Symbol != nil {
		symbol, err := validation.ValidateSymbol(*in.Symbol)
		if err != nil {
			return err
		}
		in.Symbol = &symbol
	}
	if in.Strategy != nil {
		strategy, err := validation.CleanFreeText(*in.Strategy, validation.MaxStrategyLength, "strategy")
		if err != nil {
			return err
		}
		in.Strategy = &strategy
	}
	if in.Position != nil {
		if err := validation.ValidatePosition(*in.Position); err != nil {
			return err
		}
	}
	if in.OpenTime != nil {
		openTime, err := validation.ValidateOpenTime(*in.OpenTime)
		if err != nil {
			return err
		}
		in.OpenTime = &openTime
	}
	if in.Date != nil {
		date, err := validation.ValidateDateString(*in.Date, "date")
		if err != nil {
			return err
		}
		formatted := date.Format(validation.DateLayout)
		in.Date = &formatted
	}
	if in.CloseReason != nil && *in.CloseReason != models.CloseReasonPending {
		if err := validation.ValidateCloseReason(*in.CloseReason); err != nil {
			return err
		}
	}
	return nil
}

// applyTradePatch returns the trade as it will be stored after the update.
func applyTradePatch(old *models.Trade, in UpdateTradeInput) (*models.Trade, error) {
	next := *old
	if in.Symbol != nil {
		next.Symbol = *in.Symbol
	}
	if in.Strategy != nil {
		next.Strategy = *in.Strategy
	}
	if in.Position != nil {
		next.Position = *in.Position
	}
	if in.OpenTime != nil {
		next.OpenTime = *in.OpenTime
	}
	if in.Date != nil {
		next.Date = *in.Date
	}
	if in.IsClosed != nil {
		next.IsClosed = *in.IsClosed
	}

	pl := in.ProfitLoss
	if pl == nil && old.IsClosed {
		pl = &old.ProfitLoss
	}

	var reason models.CloseReason
	switch {
	case in.CloseReason != nil && *in.CloseReason != models.CloseReasonPending:
		reason = *in.CloseReason
	case old.IsClosed && old.CloseReason == models.CloseReasonOther:
		reason = models.CloseReasonOther
	}
	// otherwise left empty and derived from the sign of the P/L

	remark := old.Remark
	if in.Remark != nil {
		remark = *in.Remark
	}

	var err error
	next.ProfitLoss, next.CloseReason, next.Remark, err = resolveClose(next.IsClosed, pl, reason, remark)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *ledgerServiceImpl) UpdateTrade(ctx context.Context, id string, in UpdateTradeInput) (*TradeResult, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	if err := validateTradePatch(&in); err != nil {
		return nil, err
	}
	if err := validateExpectation(in.Expect); err != nil {
		return nil, err
	}

	var result TradeResult
	var delta decimal.Decimal
	err := s.write(ctx, "update_trade", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		old, err := tx.GetTradeByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkExpectation(bal, in.Expect); err != nil {
			return err
		}
		updated, err := applyTradePatch(old, in)
		if err != nil {
			return err
		}

		now := s.now()
		newBal := bal
		delta = updated.Contribution().Sub(old.Contribution())
		if !delta.IsZero() {
			next, err := applyDelta(bal.Amount, delta)
			if err != nil {
				return err
			}
			if newBal, err = tx.SetBalance(ctx, next, now); err != nil {
				return err
			}
		}

		updated.UpdatedAt = now
		if err := tx.UpdateTrade(ctx, updated); err != nil {
			return err
		}
		result = TradeResult{Trade: updated, Balance: newBal}
		if delta.IsZero() {
			return nil
		}
		return s.appendEquity(ctx, tx, newBal.Amount, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Trade updated", "tradeID", id, "delta", delta.String(), "balance", result.Balance.Amount.String())
	return &result, nil
}

func (s *ledgerServiceImpl) DeleteTrade(ctx context.Context, id string, expect Expectation) (*DeleteResult, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	if err := validateExpectation(expect); err != nil {
		return nil, err
	}

	var result DeleteResult
	err := s.write(ctx, "delete_trade", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		old, err := tx.GetTradeByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkExpectation(bal, expect); err != nil {
			return err
		}
		next, err := applyDelta(bal.Amount, old.Contribution().Neg())
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.DeleteTrade(ctx, id); err != nil {
			return err
		}
		newBal, err := tx.SetBalance(ctx, next, now)
		if err != nil {
			return err
		}
		result = DeleteResult{Success: true, Balance: newBal}
		return s.appendEquity(ctx, tx, newBal.Amount, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Trade deleted", "tradeID", id, "balance", result.Balance.Amount.String())
	return &result, nil
}

func (s *ledgerServiceImpl) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	t, err := s.store.GetTradeByID(ctx, id)
	return t, classify(err)
}

func (s *ledgerServiceImpl) ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error) {
	if err := validation.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	trades, err := s.store.ListTrades(ctx, filter)
	return trades, classify(err)
}

// --- Fund records ---

func (s *ledgerServiceImpl) CreateFundRecord(ctx context.Context, in CreateFundRecordInput) (*FundRecordResult, error) {
	if err := validation.ValidateFundRecordType(in.Type); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveAmount(in.Amount, "amount"); err != nil {
		return nil, err
	}
	if err := validateExpectation(in.Expect); err != nil {
		return nil, err
	}
	date, err := validation.NormalizeDate(in.Date, "date")
	if err != nil {
		return nil, err
	}
	rec := &models.FundRecord{Type: in.Type, Amount: in.Amount, Date: date}

	var result FundRecordResult
	err = s.write(ctx, "create_fund_record", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		if err := checkExpectation(bal, in.Expect); err != nil {
			return err
		}
		next, err := applyDelta(bal.Amount, rec.Delta())
		if err != nil {
			return err
		}

		now := s.now()
		rec.ID = utils.NewID()
		rec.CreatedAt = now
		if err := tx.CreateFundRecord(ctx, rec); err != nil {
			return err
		}
		newBal, err := tx.SetBalance(ctx, next, now)
		if err != nil {
			return err
		}
		result = FundRecordResult{Record: rec, Balance: newBal}
		return s.appendEquity(ctx, tx, newBal.Amount, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Fund record created", "recordID", rec.ID, "type", rec.Type, "amount", rec.Amount.String(), "balance", result.Balance.Amount.String())
	return &result, nil
}

func (s *ledgerServiceImpl) DeleteFundRecord(ctx context.Context, id string, expect Expectation) (*DeleteResult, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	if err := validateExpectation(expect); err != nil {
		return nil, err
	}

	var result DeleteResult
	err := s.write(ctx, "delete_fund_record", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		rec, err := tx.GetFundRecordByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkExpectation(bal, expect); err != nil {
			return err
		}
		next, err := applyDelta(bal.Amount, rec.Delta().Neg())
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.DeleteFundRecord(ctx, id); err != nil {
			return err
		}
		newBal, err := tx.SetBalance(ctx, next, now)
		if err != nil {
			return err
		}
		result = DeleteResult{Success: true, Balance: newBal}
		return s.appendEquity(ctx, tx, newBal.Amount, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Fund record deleted", "recordID", id, "balance", result.Balance.Amount.String())
	return &result, nil
}

func (s *ledgerServiceImpl) GetFundRecord(ctx context.Context, id string) (*models.FundRecord, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	rec, err := s.store.GetFundRecordByID(ctx, id)
	return rec, classify(err)
}

func (s *ledgerServiceImpl) ListFundRecords(ctx context.Context, filter models.FundRecordFilter) ([]models.FundRecord, error) {
	if filter.Type != "" {
		if err := validation.ValidateFundRecordType(filter.Type); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	records, err := s.store.ListFundRecords(ctx, filter)
	return records, classify(err)
}

// --- Equity history ---

func (s *ledgerServiceImpl) ListEquityHistory(ctx context.Context) ([]models.EquityPoint, error) {
	points, err := s.store.ListEquityHistory(ctx)
	return points, classify(err)
}

func (s *ledgerServiceImpl) ClearEquityHistory(ctx context.Context) (int64, error) {
	var removed int64
	err := s.write(ctx, "clear_equity_history", func(tx model.LedgerTx) error {
		var err error
		removed, err = tx.ClearEquityHistory(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("Equity history cleared", "removed", removed)
	return removed, nil
}

// ResetEquityHistory clears the history and seeds it with the current balance.
func (s *ledgerServiceImpl) ResetEquityHistory(ctx context.Context) ([]models.EquityPoint, error) {
	var points []models.EquityPoint
	err := s.write(ctx, "reset_equity_history", func(tx model.LedgerTx) error {
		bal, err := tx.LockBalance(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.ClearEquityHistory(ctx); err != nil {
			return err
		}
		if err := s.appendEquity(ctx, tx, bal.Amount, s.now()); err != nil {
			return err
		}
		points, err = tx.ListEquityHistory(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Equity history reset")
	return points, nil
}

// --- Restore ---

// Replace swaps the whole ledger for snap in one transaction.
func (s *ledgerServiceImpl) Replace(ctx context.Context, snap *models.Snapshot) (*models.RestoreResult, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	result := &models.RestoreResult{SourceVersion: snap.Version}
	err := s.write(ctx, "restore", func(tx model.LedgerTx) error {
		if _, err := tx.LockBalance(ctx); err != nil {
			return err
		}
		if _, err := tx.DeleteAllTrades(ctx); err != nil {
			return err
		}
		if _, err := tx.DeleteAllFundRecords(ctx); err != nil {
			return err
		}
		if _, err := tx.ClearEquityHistory(ctx); err != nil {
			return err
		}

		now := s.now()
		for i := range snap.Trades {
			t := snap.Trades[i]
			if t.ID == "" {
				t.ID = utils.NewID()
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = now
			}
			if t.UpdatedAt.IsZero() {
				t.UpdatedAt = t.CreatedAt
			}
			if err := tx.CreateTrade(ctx, &t); err != nil {
				return err
			}
		}
		for i := range snap.FundRecords {
			r := snap.FundRecords[i]
			if r.ID == "" {
				r.ID = utils.NewID()
			}
			if r.CreatedAt.IsZero() {
				r.CreatedAt = now
			}
			if err := tx.CreateFundRecord(ctx, &r); err != nil {
				return err
			}
		}
		for i := range snap.EquityHistory {
			p := snap.EquityHistory[i]
			if p.ID == "" {
				p.ID = utils.NewID()
			}
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			if err := tx.AppendEquity(ctx, &p); err != nil {
				return err
			}
		}

		bal, err := tx.SetBalance(ctx, snap.Balance.Amount, now)
		if err != nil {
			return err
		}
		if err := s.appendEquity(ctx, tx, bal.Amount, now); err != nil {
			return err
		}
		result.Trades = len(snap.Trades)
		result.FundRecords = len(snap.FundRecords)
		result.EquityPoints = len(snap.EquityHistory) + 1
		result.Balance = bal.Amount.String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
