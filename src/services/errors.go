// backend/src/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
)

var (
	// ErrConflict means an expected balance or version no longer matches.
	ErrConflict = errors.New("balance was changed by another operation, retry")
	// ErrInsufficientBalance means the mutation would leave the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrStorage wraps any persistence failure. The transaction was rolled back.
	ErrStorage = errors.New("storage error")
	// ErrNotFound is re-exported so callers need only this package.
	ErrNotFound = models.ErrNotFound
)

// classify leaves the known kinds untouched and wraps anything else as a storage failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrStorage):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// IsRetryable reports whether the caller may retry the same request unchanged.
// Business rule rejections would fail again the same way.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}

// ErrorKind names the error for API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "storage_error"
	}
}
