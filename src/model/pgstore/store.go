// Package pgstore is the Postgres LedgerStore, built on gorm.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
	reader
}

// Open connects to dsn and migrates the ledger tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&balanceRow{}, &tradeRow{}, &fundRecordRow{}, &equityRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	logger.L.Info("Postgres ledger store ready")
	return New(db), nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, reader: reader{db: db}}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(tx model.LedgerTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgTx{reader: reader{db: tx}})
	})
}

type reader struct {
	db *gorm.DB
}

type pgTx struct {
	reader
}

// --- Balance ---

func (r reader) GetBalance(ctx context.Context) (models.Balance, error) {
	var row balanceRow
	err := r.db.WithContext(ctx).Where("id = ?", 1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Balance{Amount: decimal.Zero}, nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to read balance: %w", err)
	}
	return row.toModel(), nil
}

// LockBalance makes sure the singleton row exists so that FOR UPDATE has
// something to lock, even before the first write.
func (t *pgTx) LockBalance(ctx context.Context) (models.Balance, error) {
	now := time.Now().UTC()
	seed := balanceRow{ID: 1, Amount: decimal.Zero, CreatedAt: now, UpdatedAt: now}
	if err := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return models.Balance{}, fmt.Errorf("failed to seed balance row: %w", err)
	}
	var row balanceRow
	err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", 1).Take(&row).Error
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to lock balance: %w", err)
	}
	return row.toModel(), nil
}

func (t *pgTx) SetBalance(ctx context.Context, amount decimal.Decimal, at time.Time) (models.Balance, error) {
	at = at.UTC()
	row := balanceRow{ID: 1, Amount: amount, Version: 1, CreatedAt: at, UpdatedAt: at}
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     amount,
			"version":    gorm.Expr("balance.version + 1"),
			"updated_at": at,
		}),
	}).Create(&row).Error
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to write balance: %w", err)
	}
	return t.GetBalance(ctx)
}

// --- Trades ---

func (r reader) GetTradeByID(ctx context.Context, id string) (*models.Trade, error) {
	var row tradeRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("trade %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trade %s: %w", id, err)
	}
	t := row.toModel()
	return &t, nil
}

func (r reader) ListTrades(ctx context.Context, filter models.TradeFilter) ([]models.Trade, error) {
	q := r.db.WithContext(ctx).Model(&tradeRow{})
	if filter.IsClosed != nil {
		q = q.Where("is_closed = ?", *filter.IsClosed)
	}
	if filter.Symbol != "" {
		q = q.Where("symbol = ?", strings.ToUpper(filter.Symbol))
	}
	if filter.StartDate != "" {
		q = q.Where("date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("date <= ?", filter.EndDate)
	}
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}

	var rows []tradeRow
	err := q.Order("date DESC, id DESC").Limit(models.NormalizeLimit(filter.Limit, models.DefaultTradeLimit)).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	trades := make([]models.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, row.toModel())
	}
	return trades, nil
}

func (t *pgTx) CreateTrade(ctx context.Context, tr *models.Trade) error {
	row := tradeFromModel(tr)
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateTrade(ctx context.Context, tr *models.Trade) error {
	row := tradeFromModel(tr)
	res := t.db.WithContext(ctx).Model(&tradeRow{}).Where("id = ?", tr.ID).
		Select("*").Omit("id", "created_at").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to update trade %s: %w", tr.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("trade %s: %w", tr.ID, models.ErrNotFound)
	}
	return nil
}

func (t *pgTx) DeleteTrade(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(&tradeRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete trade %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("trade %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (t *pgTx) DeleteAllTrades(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).Where("1 = 1").Delete(&tradeRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear trades: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// --- Fund records ---

func (r reader) GetFundRecordByID(ctx context.Context, id string) (*models.FundRecord, error) {
	var row fundRecordRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fund record %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fund record %s: %w", id, err)
	}
	rec := row.toModel()
	return &rec, nil
}

func (r reader) ListFundRecords(ctx context.Context, filter models.FundRecordFilter) ([]models.FundRecord, error) {
	q := r.db.WithContext(ctx).Model(&fundRecordRow{})
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.StartDate != "" {
		q = q.Where("date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("date <= ?", filter.EndDate)
	}
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}
	var rows []fundRecordRow
	err := q.Order("date DESC, id DESC").Limit(models.NormalizeLimit(filter.Limit, models.DefaultFundRecordLimit)).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fund records: %w", err)
	}
	records := make([]models.FundRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

func (t *pgTx) CreateFundRecord(ctx context.Context, rec *models.FundRecord) error {
	row := fundRecordRow{ID: rec.ID, Type: string(rec.Type), Amount: rec.Amount, Date: rec.Date, CreatedAt: rec.CreatedAt.UTC()}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert fund record: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteFundRecord(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(&fundRecordRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete fund record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("fund record %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (t *pgTx) DeleteAllFundRecords(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).Where("1 = 1").Delete(&fundRecordRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear fund records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// --- Equity history ---

func (r reader) ListEquityHistory(ctx context.Context) ([]models.EquityPoint, error) {
	var rows []equityRow
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list equity history: %w", err)
	}
	points := make([]models.EquityPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, row.toModel())
	}
	return points, nil
}

func (t *pgTx) AppendEquity(ctx context.Context, p *models.EquityPoint) error {
	row := equityRow{ID: p.ID, Date: p.Date, Value: p.Value, CreatedAt: p.CreatedAt.UTC()}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append equity point: %w", err)
	}
	return nil
}

func (t *pgTx) ClearEquityHistory(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).Where("1 = 1").Delete(&equityRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear equity history: %w", res.Error)
	}
	return res.RowsAffected, nil
}
