package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalAboveBalanceRejected(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "500")

	rec := s.do(t, http.MethodPost, "/api/fund-records", map[string]any{"type": "withdraw", "amount": "600"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_balance", decodeResponse[errorBody](t, rec).Code)

	got := decodeResponse[map[string]any](t, s.do(t, http.MethodGet, "/api/balance", nil))
	assert.Equal(t, "500", got["balance"])
}

func TestDepositThenDeleteRestoresBalance(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "500")

	rec := s.do(t, http.MethodPost, "/api/fund-records", map[string]any{"type": "deposit", "amount": "300", "date": "2024-05-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeResponse[mutationBody](t, rec)
	assert.Equal(t, "800", created.Balance)
	id := created.Record["id"].(string)

	rec = s.do(t, http.MethodGet, "/api/fund-records/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deposit", decodeResponse[map[string]any](t, rec)["type"])

	rec = s.do(t, http.MethodDelete, "/api/fund-records/"+id+"?expectedBalance=800", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deleted := decodeResponse[mutationBody](t, rec)
	assert.True(t, deleted.Success)
	assert.Equal(t, "500", deleted.Balance)

	rec = s.do(t, http.MethodDelete, "/api/fund-records/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFundRecordValidation(t *testing.T) {
	s := newTestServer(t, "")

	for name, body := range map[string]map[string]any{
		"zero amount":    {"type": "deposit", "amount": "0"},
		"negative":       {"type": "deposit", "amount": "-5"},
		"missing amount": {"type": "deposit"},
		"bad type":       {"type": "transfer", "amount": "5"},
		"too large":      {"type": "deposit", "amount": "1e10"},
		"too precise":    {"type": "deposit", "amount": "0.000000004"},
		"huge exponent":  {"type": "deposit", "amount": "1e100000000"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/fund-records", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestListFundRecords(t *testing.T) {
	s := newTestServer(t, "")

	for _, body := range []map[string]any{
		{"type": "deposit", "amount": "100", "date": "2024-01-01"},
		{"type": "deposit", "amount": "50", "date": "2024-01-05"},
		{"type": "withdraw", "amount": "20", "date": "2024-01-10"},
	} {
		rec := s.do(t, http.MethodPost, "/api/fund-records", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	all := decodeResponse[[]map[string]any](t, s.do(t, http.MethodGet, "/api/fund-records", nil))
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-10", all[0]["date"])

	deposits := decodeResponse[[]map[string]any](t, s.do(t, http.MethodGet, "/api/fund-records?type=deposit", nil))
	assert.Len(t, deposits, 2)

	ranged := decodeResponse[[]map[string]any](t, s.do(t, http.MethodGet, "/api/fund-records?startDate=2024-01-02", nil))
	assert.Len(t, ranged, 2)

	rec := s.do(t, http.MethodGet, "/api/fund-records?type=transfer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
