// backend/src/model/sqlite_store.go
package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

// fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLStore is the SQLite LedgerStore. The *sql.DB is owned by the caller.
type SQLStore struct {
	db *sql.DB
	sqlReader
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, sqlReader: sqlReader{q: db}}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx LedgerTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.L.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = fn(&sqlTx{sqlReader: sqlReader{q: tx}}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

type sqlReader struct {
	q querier
}

type sqlTx struct {
	sqlReader
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// --- Balance ---

func scanBalance(row rowScanner) (models.Balance, error) {
	var b models.Balance
	var createdAt, updatedAt string
	if err := row.Scan(&b.Amount, &b.Version, &createdAt, &updatedAt); err != nil {
		return models.Balance{}, err
	}
	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Balance{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Balance{}, err
	}
	return b, nil
}

func (r sqlReader) GetBalance(ctx context.Context) (models.Balance, error) {
	row := r.q.QueryRowContext(ctx, `SELECT amount, version, created_at, updated_at FROM balance WHERE id = 1`)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Balance{Amount: decimal.Zero}, nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to read balance: %w", err)
	}
	return b, nil
}

// LockBalance is a plain read: transactions start with BEGIN IMMEDIATE so the
// connection already holds the database write lock.
func (t *sqlTx) LockBalance(ctx context.Context) (models.Balance, error) {
	return t.GetBalance(ctx)
}

func (t *sqlTx) SetBalance(ctx context.Context, amount decimal.Decimal, at time.Time) (models.Balance, error) {
	query := `
	INSERT INTO balance (id, amount, version, created_at, updated_at)
	VALUES (1, ?, 1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		amount = excluded.amount,
		version = balance.version + 1,
		updated_at = excluded.updated_at
	RETURNING amount, version, created_at, updated_at`
	ts := formatTime(at)
	b, err := scanBalance(t.q.QueryRowContext(ctx, query, amount.String(), ts, ts))
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to write balance: %w", err)
	}
	return b, nil
}

// --- Trades ---

const tradeColumns = `id, symbol, strategy, position, open_amount, open_time, close_reason, remark, profit_loss, date, is_closed, created_at, updated_at`

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Symbol, &t.Strategy, &t.Position, &t.OpenAmount, &t.OpenTime,
		&t.CloseReason, &t.Remark, &t.ProfitLoss, &t.Date, &t.IsClosed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r sqlReader) GetTradeByID(ctx context.Context, id string) (*models.Trade, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trade %s: %w", id, err)
	}
	return t, nil
}

func (r sqlReader) ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error) {
	var where []string
	var args []any
	if filter.IsClosed != nil {
		where = append(where, "is_closed = ?")
		args = append(args, *filter.IsClosed)
	}
	if filter.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	if filter.StartDate != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.EndDate)
	}

	query := `SELECT ` + tradeColumns + ` FROM trades`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, models.NormalizeLimit(filter.Limit, models.DefaultTradeLimit), max(filter.Skip, 0))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

func (t *sqlTx) CreateTrade(ctx context.Context, tr *models.Trade) error {
	query := `INSERT INTO trades (` + tradeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := t.q.ExecContext(ctx, query,
		tr.ID, tr.Symbol, tr.Strategy, tr.Position, tr.OpenAmount.String(), tr.OpenTime,
		string(tr.CloseReason), tr.Remark, tr.ProfitLoss.String(), tr.Date, tr.IsClosed,
		formatTime(tr.CreatedAt), formatTime(tr.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateTrade(ctx context.Context, tr *models.Trade) error {
	query := `
	UPDATE trades SET symbol = ?, strategy = ?, position = ?, open_amount = ?, open_time = ?,
		close_reason = ?, remark = ?, profit_loss = ?, date = ?, is_closed = ?, updated_at = ?
	WHERE id = ?`
	res, err := t.q.ExecContext(ctx, query,
		tr.Symbol, tr.Strategy, tr.Position, tr.OpenAmount.String(), tr.OpenTime,
		string(tr.CloseReason), tr.Remark, tr.ProfitLoss.String(), tr.Date, tr.IsClosed,
		formatTime(tr.UpdatedAt), tr.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w", tr.ID, err)
	}
	return expectOneRow(res, "trade", tr.ID)
}

func (t *sqlTx) DeleteTrade(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	return expectOneRow(res, "trade", id)
}

func (t *sqlTx) DeleteAllTrades(ctx context.Context) (int64, error) {
	return t.deleteAll(ctx, "trades")
}

// --- Fund records ---

func scanFundRecord(row rowScanner) (*models.FundRecord, error) {
	var r models.FundRecord
	var createdAt string
	if err := row.Scan(&r.ID, &r.Type, &r.Amount, &r.Date, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r sqlReader) GetFundRecordByID(ctx context.Context, id string) (*models.FundRecord, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, type, amount, date, created_at FROM fund_records WHERE id = ?`, id)
	rec, err := scanFundRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fund record %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fund record %s: %w", id, err)
	}
	return rec, nil
}

func (r sqlReader) ListFundRecords(ctx context.Context, filter models.FundRecordFilter) ([]models.FundRecord, error) {
	var where []string
	var args []any
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.StartDate != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.EndDate)
	}

	query := `SELECT id, type, amount, date, created_at FROM fund_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, models.NormalizeLimit(filter.Limit, models.DefaultFundRecordLimit), max(filter.Skip, 0))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fund records: %w", err)
	}
	defer rows.Close()

	records := []models.FundRecord{}
	for rows.Next() {
		rec, err := scanFundRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (t *sqlTx) CreateFundRecord(ctx context.Context, rec *models.FundRecord) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO fund_records (id, type, amount, date, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Type), rec.Amount.String(), rec.Date, formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert fund record: %w", err)
	}
	return nil
}

func (t *sqlTx) DeleteFundRecord(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM fund_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fund record %s: %w", id, err)
	}
	return expectOneRow(res, "fund record", id)
}

func (t *sqlTx) DeleteAllFundRecords(ctx context.Context) (int64, error) {
	return t.deleteAll(ctx, "fund_records")
}

// --- Equity history ---

func (r sqlReader) ListEquityHistory(ctx context.Context) ([]models.EquityPoint, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, date, value, created_at FROM equity_history ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list equity history: %w", err)
	}
	defer rows.Close()

	points := []models.EquityPoint{}
	for rows.Next() {
		var p models.EquityPoint
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Date, &p.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan equity point: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse equity point time: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (t *sqlTx) AppendEquity(ctx context.Context, p *models.EquityPoint) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO equity_history (id, date, value, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Date, p.Value.String(), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append equity point: %w", err)
	}
	return nil
}

func (t *sqlTx) ClearEquityHistory(ctx context.Context) (int64, error) {
	return t.deleteAll(ctx, "equity_history")
}

// --- helpers ---

func (t *sqlTx) deleteAll(ctx context.Context, table string) (int64, error) {
	// table is always one of the constants above
	res, err := t.q.ExecContext(ctx, `DELETE FROM `+table)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared %s: %w", table, err)
	}
	return n, nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}
