// backend/src/handlers/balance_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type BalanceHandler struct {
	ledger services.LedgerService
}

func NewBalanceHandler(ledger services.LedgerService) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

type balanceResponse struct {
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	UpdatedAt *time.Time      `json:"updatedAt"`
}

func newBalanceResponse(b models.Balance) balanceResponse {
	resp := balanceResponse{Balance: b.Amount, Version: b.Version}
	if !b.UpdatedAt.IsZero() {
		updated := b.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

type setBalanceRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	expectationRequest
}

func (h *BalanceHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.ledger.GetBalance(r.Context())
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newBalanceResponse(bal))
}

// HandleSetBalance overrides the balance. Admin only.
func (h *BalanceHandler) HandleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := decodeBody(r, &req, false); err != nil {
		sendBadRequest(w, err)
		return
	}
	if req.Amount == nil {
		sendBadRequest(w, errors.New("amount is required"))
		return
	}

	bal, err := h.ledger.SetBalance(r.Context(), *req.Amount, req.toExpectation())
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newBalanceResponse(bal))
}
