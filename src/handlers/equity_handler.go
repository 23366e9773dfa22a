// backend/src/handlers/equity_handler.go
package handlers

import (
	"net/http"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type EquityHandler struct {
	ledger services.LedgerService
}

func NewEquityHandler(ledger services.LedgerService) *EquityHandler {
	return &EquityHandler{ledger: ledger}
}

func (h *EquityHandler) HandleGetEquityHistory(w http.ResponseWriter, r *http.Request) {
	points, err := h.ledger.ListEquityHistory(r.Context())
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if points == nil {
		points = []models.EquityPoint{}
	}
	writeJSONWithETag(w, r, points)
}

// HandleClearEquityHistory drops every equity point. Admin only.
func (h *EquityHandler) HandleClearEquityHistory(w http.ResponseWriter, r *http.Request) {
	removed, err := h.ledger.ClearEquityHistory(r.Context())
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "removed": removed})
}

// HandleResetEquityHistory clears the history and seeds it with the current balance. Admin only.
func (h *EquityHandler) HandleResetEquityHistory(w http.ResponseWriter, r *http.Request) {
	points, err := h.ledger.ResetEquityHistory(r.Context())
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, points)
}
