// backend/src/handlers/respond.go
package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

// writeJSONWithETag sends data with a strong ETag and answers 304 when the client already has it.
func writeJSONWithETag(w http.ResponseWriter, r *http.Request, data any) {
	ctxLogger := logger.FromContext(r.Context())

	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		ctxLogger.Error("Failed to generate ETag", "path", r.URL.Path, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				ctxLogger.Debug("ETag match", "path", r.URL.Path, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, data)
}

// expectationRequest holds the optimistic-concurrency tokens accepted by every mutation.
type expectationRequest struct {
	ExpectedBalance *decimal.Decimal `json:"expectedBalance"`
	ExpectedVersion *int64           `json:"expectedVersion"`
}

func (e expectationRequest) toExpectation() services.Expectation {
	return services.Expectation{Balance: e.ExpectedBalance, Version: e.ExpectedVersion}
}

// expectationFromQuery reads expectedBalance and expectedVersion query parameters.
// Values in the body take precedence over the query string.
func expectationFromQuery(r *http.Request, body expectationRequest) (services.Expectation, error) {
	exp := body.toExpectation()
	q := r.URL.Query()
	if exp.Balance == nil {
		if s := q.Get("expectedBalance"); s != "" {
			d, err := validation.ValidateDecimalString(s, "expectedBalance")
			if err != nil {
				return exp, err
			}
			exp.Balance = &d
		}
	}
	if exp.Version == nil {
		if s := q.Get("expectedVersion"); s != "" {
			v, err := validation.ValidateIntString(s, "expectedVersion", 0, math.MaxInt32)
			if err != nil {
				return exp, err
			}
			v64 := int64(v)
			exp.Version = &v64
		}
	}
	return exp, nil
}

// balanceBody is the balance part shared by every mutation response.
type balanceBody struct {
	Balance decimal.Decimal `json:"balance"`
	Version int64           `json:"version"`
}

func newBalanceBody(b models.Balance) balanceBody {
	return balanceBody{Balance: b.Amount, Version: b.Version}
}

type deleteResponse struct {
	Success bool `json:"success"`
	balanceBody
}

func newDeleteResponse(res *services.DeleteResult) deleteResponse {
	return deleteResponse{Success: res.Success, balanceBody: newBalanceBody(res.Balance)}
}
