// backend/src/handlers/fund_record_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type FundRecordHandler struct {
	ledger services.LedgerService
}

func NewFundRecordHandler(ledger services.LedgerService) *FundRecordHandler {
	return &FundRecordHandler{ledger: ledger}
}

type createFundRecordRequest struct {
	Type   models.FundRecordType `json:"type"`
	Amount *decimal.Decimal      `json:"amount"`
	Date   string                `json:"date"`
	expectationRequest
}

type fundRecordResponse struct {
	Record *models.FundRecord `json:"record"`
	balanceBody
}

func (h *FundRecordHandler) HandleListFundRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.FundRecordFilter{
		Type:      models.FundRecordType(q.Get("type")),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
	var err error
	if filter.Skip, err = validation.ValidateIntString(q.Get("skip"), "skip", 0, maxSkip); err != nil {
		sendBadRequest(w, err)
		return
	}
	if filter.Limit, err = validation.ValidateIntString(q.Get("limit"), "limit", 0, models.MaxListLimit); err != nil {
		sendBadRequest(w, err)
		return
	}

	records, err := h.ledger.ListFundRecords(r.Context(), filter)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []models.FundRecord{}
	}
	utils.WriteJSON(w, http.StatusOK, records)
}

func (h *FundRecordHandler) HandleCreateFundRecord(w http.ResponseWriter, r *http.Request) {
	var req createFundRecordRequest
	if err := decodeBody(r, &req, false); err != nil {
		sendBadRequest(w, err)
		return
	}
	if req.Amount == nil {
		sendBadRequest(w, errors.New("amount is required"))
		return
	}

	res, err := h.ledger.CreateFundRecord(r.Context(), services.CreateFundRecordInput{
		Type:   req.Type,
		Amount: *req.Amount,
		Date:   req.Date,
		Expect: req.toExpectation(),
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, fundRecordResponse{Record: res.Record, balanceBody: newBalanceBody(res.Balance)})
}

func (h *FundRecordHandler) HandleGetFundRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.GetFundRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rec)
}

func (h *FundRecordHandler) HandleDeleteFundRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body expectationRequest
	if err := decodeBody(r, &body, true); err != nil {
		sendBadRequest(w, err)
		return
	}
	expect, err := expectationFromQuery(r, body)
	if err != nil {
		sendBadRequest(w, err)
		return
	}

	res, err := h.ledger.DeleteFundRecord(r.Context(), id, expect)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newDeleteResponse(res))
}
