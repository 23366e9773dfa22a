// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxSymbolLength        = 32
	MaxStrategyLength      = 1024
	MaxRemarkLength        = 1024
	MaxIDLength            = 64

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

var (
	symbolRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/:-]*$`)
	idRegex     = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// ValidateSymbol checks a ticker and returns it upper-cased.
func ValidateSymbol(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, "symbol"); err != nil {
		return "", err
	}
	if err := ValidateStringMaxLength(trimmed, MaxSymbolLength, "symbol"); err != nil {
		return "", err
	}
	if err := ValidateStringRegex(trimmed, symbolRegex, "symbol", "letters, digits and . _ / : -"); err != nil {
		return "", err
	}
	return strings.ToUpper(trimmed), nil
}

// ValidateID rejects ids that could not have been issued by the store.
func ValidateID(s string) error {
	if err := ValidateStringNotEmpty(s, "id"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxIDLength, "id"); err != nil {
		return err
	}
	return ValidateStringRegex(s, idRegex, "id", "alphanumeric")
}

// --- Numeric Validators ---

// ValidateIntString parses a string to int and checks if it's within a range.
// An empty string yields 0 and no error; callers treat 0 as "not supplied".
func ValidateIntString(s, fieldName string, minVal, maxVal int) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid integer: %v", ErrValidationFailed, fieldName, s, err)
	}
	if val < minVal || val > maxVal {
		logger.L.Warn("Integer value out of range", "field", fieldName, "value", val, "min", minVal, "max", maxVal)
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrValidationFailed, fieldName, minVal, maxVal, val)
	}
	return val, nil
}

// ValidateBoolString parses an optional boolean query value.
func ValidateBoolString(s, fieldName string) (*bool, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	val, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s ('%s') is not a valid boolean", ErrValidationFailed, fieldName, s)
	}
	return &val, nil
}

// MoneyScale and MaxMoney bound every monetary value so it fits numeric(18,8).
const MoneyScale = 8

var MaxMoney = decimal.New(1, 10)

// exponents outside this window are rejected before any rescaling
const (
	minMoneyExponent = -64
	maxMoneyExponent = 10
)

// ValidateMoney requires at most MoneyScale decimal places and |d| < MaxMoney.
// The value is never formatted, so absurd exponents are refused cheaply.
func ValidateMoney(d decimal.Decimal, fieldName string) error {
	if d.IsZero() {
		return nil
	}
	exp := d.Exponent()
	if exp >= maxMoneyExponent {
		return fmt.Errorf("%w: %s must be below %s in absolute value", ErrValidationFailed, fieldName, MaxMoney.String())
	}
	if exp < minMoneyExponent || !d.Equal(d.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: %s allows at most %d decimal places", ErrValidationFailed, fieldName, MoneyScale)
	}
	if d.Abs().GreaterThanOrEqual(MaxMoney) {
		return fmt.Errorf("%w: %s must be below %s in absolute value", ErrValidationFailed, fieldName, MaxMoney.String())
	}
	return nil
}

// ValidateDecimalString parses a monetary amount.
func ValidateDecimalString(s, fieldName string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return decimal.Zero, err
	}
	if err := ValidateStringMaxLength(trimmed, DefaultMaxStringLength, fieldName); err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	if err := ValidateMoney(d, fieldName); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidatePositiveAmount requires d > 0.
func ValidatePositiveAmount(d decimal.Decimal, fieldName string) error {
	if err := ValidateMoney(d, fieldName); err != nil {
		return err
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero, got %s", ErrValidationFailed, fieldName, d.String())
	}
	return nil
}

// ValidateNonNegativeAmount requires d >= 0.
func ValidateNonNegativeAmount(d decimal.Decimal, fieldName string) error {
	if err := ValidateMoney(d, fieldName); err != nil {
		return err
	}
	if d.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative, got %s", ErrValidationFailed, fieldName, d.String())
	}
	return nil
}

// ValidatePosition checks the position size against models.PositionOptions.
func ValidatePosition(p int) error {
	if !models.ValidPosition(p) {
		return fmt.Errorf("%w: position must be one of %v, got %d", ErrValidationFailed, models.PositionOptions, p)
	}
	return nil
}

// --- Date Validators ---

// ValidateDateString checks if a string is a valid date in "YYYY-MM-DD" format.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD): %v", ErrValidationFailed, fieldName, s, err)
	}
	return t, nil
}

// NormalizeDate returns s as YYYY-MM-DD, or today (UTC) when s is empty.
func NormalizeDate(s, fieldName string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now().UTC().Format(DateLayout), nil
	}
	t, err := ValidateDateString(s, fieldName)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// ValidateDateRange checks optional start/end filters and their order.
func ValidateDateRange(start, end string) error {
	var startT, endT time.Time
	var err error
	if start != "" {
		if startT, err = ValidateDateString(start, "startDate"); err != nil {
			return err
		}
	}
	if end != "" {
		if endT, err = ValidateDateString(end, "endDate"); err != nil {
			return err
		}
	}
	if start != "" && end != "" && endT.Before(startT) {
		return fmt.Errorf("%w: endDate %s is before startDate %s", ErrValidationFailed, end, start)
	}
	return nil
}

// ValidateOpenTime accepts an empty string or HH:MM.
func ValidateOpenTime(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", nil
	}
	t, err := time.Parse(TimeLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: openTime ('%s') is not a valid time (expected HH:MM)", ErrValidationFailed, s)
	}
	return t.Format(TimeLayout), nil
}

// --- Enum Validators ---

// ValidateCloseReason accepts the reasons a closed trade may carry.
func ValidateCloseReason(r models.CloseReason) error {
	switch r {
	case models.CloseReasonProfit, models.CloseReasonLoss, models.CloseReasonOther:
		return nil
	case "":
		return fmt.Errorf("%w: closeReason is required when the trade is closed", ErrValidationFailed)
	default:
		return fmt.Errorf("%w: closeReason ('%s') must be profit, loss or other", ErrValidationFailed, r)
	}
}

// ValidateFundRecordType accepts deposit or withdraw.
func ValidateFundRecordType(t models.FundRecordType) error {
	switch t {
	case models.FundDeposit, models.FundWithdraw:
		return nil
	default:
		return fmt.Errorf("%w: type ('%s') must be deposit or withdraw", ErrValidationFailed, t)
	}
}
