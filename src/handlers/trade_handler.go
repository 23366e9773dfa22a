// backend/src/handlers/trade_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

const maxSkip = 1_000_000

type TradeHandler struct {
	ledger services.LedgerService
	stats  services.StatsService
}

func NewTradeHandler(ledger services.LedgerService, stats services.StatsService) *TradeHandler {
	return &TradeHandler{ledger: ledger, stats: stats}
}

type createTradeRequest struct {
	Symbol      string             `json:"symbol"`
	Strategy    string             `json:"strategy"`
	Position    int                `json:"position"`
	OpenTime    string             `json:"openTime"`
	Date        string             `json:"date"`
	IsClosed    bool               `json:"isClosed"`
	ProfitLoss  *decimal.Decimal   `json:"profitLoss"`
	CloseReason models.CloseReason `json:"closeReason"`
	Remark      string             `json:"remark"`
	expectationRequest
}

// updateTradeRequest is a partial update. Absent fields keep their stored value.
type updateTradeRequest struct {
	ID          string              `json:"id"`
	Symbol      *string             `json:"symbol"`
	Strategy    *string             `json:"strategy"`
	Position    *int                `json:"position"`
	OpenTime    *string             `json:"openTime"`
	Date        *string             `json:"date"`
	IsClosed    *bool               `json:"isClosed"`
	ProfitLoss  *decimal.Decimal    `json:"profitLoss"`
	CloseReason *models.CloseReason `json:"closeReason"`
	Remark      *string             `json:"remark"`
	expectationRequest
}

type tradeResponse struct {
	Trade *models.Trade `json:"trade"`
	balanceBody
}

func newTradeResponse(res *services.TradeResult) tradeResponse {
	return tradeResponse{Trade: res.Trade, balanceBody: newBalanceBody(res.Balance)}
}

func tradeFilterFromQuery(r *http.Request) (models.TradeFilter, error) {
	q := r.URL.Query()
	var f models.TradeFilter
	var err error

	if f.IsClosed, err = validation.ValidateBoolString(q.Get("isClosed"), "isClosed"); err != nil {
		return f, err
	}
	if s := q.Get("symbol"); s != "" {
		if f.Symbol, err = validation.ValidateSymbol(s); err != nil {
			return f, err
		}
	}
	f.StartDate, f.EndDate = q.Get("startDate"), q.Get("endDate")
	if f.Skip, err = validation.ValidateIntString(q.Get("skip"), "skip", 0, maxSkip); err != nil {
		return f, err
	}
	if f.Limit, err = validation.ValidateIntString(q.Get("limit"), "limit", 0, models.MaxListLimit); err != nil {
		return f, err
	}
	return f, nil
}

func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	filter, err := tradeFilterFromQuery(r)
	if err != nil {
		sendBadRequest(w, err)
		return
	}
	trades, err := h.ledger.ListTrades(r.Context(), filter)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	utils.WriteJSON(w, http.StatusOK, trades)
}

func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := decodeBody(r, &req, false); err != nil {
		sendBadRequest(w, err)
		return
	}

	res, err := h.ledger.CreateTrade(r.Context(), services.CreateTradeInput{
		Symbol:      req.Symbol,
		Strategy:    req.Strategy,
		Position:    req.Position,
		OpenTime:    req.OpenTime,
		Date:        req.Date,
		IsClosed:    req.IsClosed,
		ProfitLoss:  req.ProfitLoss,
		CloseReason: req.CloseReason,
		Remark:      req.Remark,
		Expect:      req.toExpectation(),
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, newTradeResponse(res))
}

func (h *TradeHandler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.ledger.GetTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, trade)
}

func (h *TradeHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateTradeRequest
	if err := decodeBody(r, &req, false); err != nil {
		sendBadRequest(w, err)
		return
	}
	if req.ID != "" && req.ID != id {
		sendBadRequest(w, fmt.Errorf("%w: body id ('%s') does not match path id ('%s')", validation.ErrValidationFailed, req.ID, id))
		return
	}

	res, err := h.ledger.UpdateTrade(r.Context(), id, services.UpdateTradeInput{
		Symbol:      req.Symbol,
		Strategy:    req.Strategy,
		Position:    req.Position,
		OpenTime:    req.OpenTime,
		Date:        req.Date,
		IsClosed:    req.IsClosed,
		ProfitLoss:  req.ProfitLoss,
		CloseReason: req.CloseReason,
		Remark:      req.Remark,
		Expect:      req.toExpectation(),
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newTradeResponse(res))
}

func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.ledger.DeleteTrade(r.Context(), id, expect)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newDeleteResponse(res))
}

// HandleGetStats serves dashboard aggregates with ETag revalidation.
func (h *TradeHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.stats.GetStats(r.Context(), models.StatsFilter{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	writeJSONWithETag(w, r, stats)
}
