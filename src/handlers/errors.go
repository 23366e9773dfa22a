// backend/src/handlers/errors.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

// statusForKind maps services.ErrorKind values to HTTP statuses.
var statusForKind = map[string]int{
	"validation_failed":    http.StatusBadRequest,
	"not_found":            http.StatusNotFound,
	"conflict":             http.StatusConflict,
	"insufficient_balance": http.StatusBadRequest,
	"storage_error":        http.StatusInternalServerError,
}

// sendServiceError writes the JSON error body for an error returned by a service.
// Storage failures are logged and hidden behind a generic message.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.ErrorKind(err)
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	if kind == "storage_error" {
		logger.FromContext(r.Context()).Error("Ledger storage failure", "path", r.URL.Path, "error", err)
		msg = "internal storage error, please retry"
	}
	utils.SendJSONErrorCode(w, msg, kind, status)
}

// sendBadRequest reports a malformed request that never reached a service.
func sendBadRequest(w http.ResponseWriter, err error) {
	utils.SendJSONErrorCode(w, err.Error(), "validation_failed", http.StatusBadRequest)
}

// decodeBody decodes the request body and tags the failure as a validation error.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	if err := utils.DecodeJSONBody(r, dst, allowEmpty); err != nil {
		return fmt.Errorf("%w: %w", validation.ErrValidationFailed, err)
	}
	return nil
}
