// backend/src/services/backup_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type backupServiceImpl struct {
	store  model.LedgerReader
	ledger LedgerService
}

func NewBackupService(store model.LedgerReader, ledger LedgerService) BackupService {
	return &backupServiceImpl{store: store, ledger: ledger}
}

func (s *backupServiceImpl) Export(ctx context.Context) (*models.Snapshot, error) {
	bal, err := s.store.GetBalance(ctx)
	if err != nil {
		return nil, classify(err)
	}
	trades, err := collectTrades(ctx, s.store, models.TradeFilter{})
	if err != nil {
		return nil, classify(err)
	}
	records, err := collectFundRecords(ctx, s.store, models.FundRecordFilter{})
	if err != nil {
		return nil, classify(err)
	}
	points, err := s.store.ListEquityHistory(ctx)
	if err != nil {
		return nil, classify(err)
	}

	snap := &models.Snapshot{
		Version:       models.SnapshotVersion,
		ExportedAt:    time.Now().UTC(),
		Balance:       bal,
		Trades:        trades,
		FundRecords:   records,
		EquityHistory: points,
	}
	snap.Summary = summarize(snap)
	logger.FromContext(ctx).Info("Ledger exported", "trades", snap.Summary.TotalTrades, "fundRecords", snap.Summary.FundRecords)
	return snap, nil
}

func (s *backupServiceImpl) Restore(ctx context.Context, snap *models.Snapshot) (*models.RestoreResult, error) {
	result, err := s.ledger.Replace(ctx, snap)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Ledger restored", "trades", result.Trades, "fundRecords", result.FundRecords, "balance", result.Balance)
	return result, nil
}

func summarize(snap *models.Snapshot) models.SnapshotSummary {
	sum := models.SnapshotSummary{
		TotalTrades:  len(snap.Trades),
		FundRecords:  len(snap.FundRecords),
		EquityPoints: len(snap.EquityHistory),
	}
	for _, t := range snap.Trades {
		if t.IsClosed {
			sum.ClosedTrades++
		} else {
			sum.OpenTrades++
		}
	}
	return sum
}

// ParseFormat accepts json (default) or yaml/yml.
func ParseFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: format ('%s') must be json or yaml", validation.ErrValidationFailed, format)
	}
}

// EncodeSnapshot writes snap in the given format.
func EncodeSnapshot(w io.Writer, snap *models.Snapshot, format string) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot as yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot as json: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot in the given format. Malformed input is a validation error.
func DecodeSnapshot(r io.Reader, format string) (*models.Snapshot, error) {
	var snap models.Snapshot
	if format == FormatYAML {
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("%w: invalid yaml snapshot: %v", validation.ErrValidationFailed, err)
		}
		return &snap, nil
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: invalid json snapshot: %v", validation.ErrValidationFailed, err)
	}
	return &snap, nil
}

// validateSnapshot checks a snapshot before it replaces the ledger and
// normalizes symbols and dates in place.
func validateSnapshot(snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot is empty", validation.ErrValidationFailed)
	}
	if snap.Version == "" {
		return fmt.Errorf("%w: snapshot version is missing", validation.ErrValidationFailed)
	}
	if snap.Version != models.SnapshotVersion {
		return fmt.Errorf("%w: unsupported snapshot version %q", validation.ErrValidationFailed, snap.Version)
	}
	if err := validation.ValidateNonNegativeAmount(snap.Balance.Amount, "balance"); err != nil {
		return err
	}

	seen := make(map[string]bool)
	checkID := func(kind string, i int, id string) error {
		if id == "" {
			return nil
		}
		if err := validation.ValidateID(id); err != nil {
			return fmt.Errorf("%s %d: %w", kind, i, err)
		}
		if seen[kind+id] {
			return fmt.Errorf("%w: %s %d: duplicate id %s", validation.ErrValidationFailed, kind, i, id)
		}
		seen[kind+id] = true
		return nil
	}

	for i := range snap.Trades {
		t := &snap.Trades[i]
		if err := checkID("trade", i, t.ID); err != nil {
			return err
		}
		if err := validateSnapshotTrade(t); err != nil {
			return fmt.Errorf("trade %d: %w", i, err)
		}
	}
	for i := range snap.FundRecords {
		r := &snap.FundRecords[i]
		if err := checkID("fund record", i, r.ID); err != nil {
			return err
		}
		if err := validation.ValidateFundRecordType(r.Type); err != nil {
			return fmt.Errorf("fund record %d: %w", i, err)
		}
		if err := validation.ValidatePositiveAmount(r.Amount, "amount"); err != nil {
			return fmt.Errorf("fund record %d: %w", i, err)
		}
		if _, err := validation.ValidateDateString(r.Date, "date"); err != nil {
			return fmt.Errorf("fund record %d: %w", i, err)
		}
	}
	for i := range snap.EquityHistory {
		p := &snap.EquityHistory[i]
		if err := checkID("equity point", i, p.ID); err != nil {
			return err
		}
		if _, err := validation.ValidateDateString(p.Date, "date"); err != nil {
			return fmt.Errorf("equity point %d: %w", i, err)
		}
		if err := validation.ValidateNonNegativeAmount(p.Value, "value"); err != nil {
			return fmt.Errorf("equity point %d: %w", i, err)
		}
	}
	return nil
}

func validateSnapshotTrade(t *models.Trade) error {
	symbol, err := validation.ValidateSymbol(t.Symbol)
	if err != nil {
		return err
	}
	t.Symbol = symbol
	if err := validation.ValidatePosition(t.Position); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeAmount(t.OpenAmount, "openAmount"); err != nil {
		return err
	}
	if _, err := validation.ValidateDateString(t.Date, "date"); err != nil {
		return err
	}
	if t.OpenTime, err = validation.ValidateOpenTime(t.OpenTime); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(t.Strategy, validation.MaxStrategyLength, "strategy"); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(t.Remark, validation.MaxRemarkLength, "remark"); err != nil {
		return err
	}
	if err := validation.ValidateMoney(t.ProfitLoss, "profitLoss"); err != nil {
		return err
	}
	if !t.IsClosed {
		if !t.ProfitLoss.IsZero() || t.CloseReason != models.CloseReasonPending {
			return fmt.Errorf("%w: open trade must have zero profitLoss and closeReason pending", validation.ErrValidationFailed)
		}
		return nil
	}
	if err := validation.ValidateCloseReason(t.CloseReason); err != nil {
		return err
	}
	if t.CloseReason == models.CloseReasonOther && strings.TrimSpace(t.Remark) == "" {
		return fmt.Errorf("%w: remark is required when closeReason is other", validation.ErrValidationFailed)
	}
	return nil
}
