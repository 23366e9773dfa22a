package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTrade(t *testing.T, s *testServer, body map[string]any) mutationBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/trades", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeResponse[mutationBody](t, rec)
}

func TestCreateClosedTradeAdjustsBalance(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "1000")

	res := createTrade(t, s, map[string]any{
		"symbol": "aapl", "strategy": "breakout", "position": 10,
		"isClosed": true, "profitLoss": "-200", "date": "2024-03-01",
	})
	assert.Equal(t, "800", res.Balance)
	assert.EqualValues(t, 2, res.Version)
	assert.Equal(t, "AAPL", res.Trade["symbol"])
	assert.Equal(t, "100", res.Trade["openAmount"])
	assert.Equal(t, "loss", res.Trade["closeReason"])
}

func TestCreateTradeInsufficientBalance(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "100")

	rec := s.do(t, http.MethodPost, "/api/trades", map[string]any{
		"symbol": "TSLA", "position": 5, "isClosed": true, "profitLoss": "-150",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_balance", decodeResponse[errorBody](t, rec).Code)

	got := decodeResponse[map[string]any](t, s.do(t, http.MethodGet, "/api/balance", nil))
	assert.Equal(t, "100", got["balance"])
}

func TestCreateTradeConflict(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "1000")

	rec := s.do(t, http.MethodPost, "/api/trades", map[string]any{
		"symbol": "MSFT", "position": 10, "isClosed": true, "profitLoss": "10", "expectedBalance": "999",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeResponse[errorBody](t, rec).Code)
}

func TestCreateTradeValidation(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "1000")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing symbol", map[string]any{"position": 10}},
		{"bad position", map[string]any{"symbol": "X", "position": 7}},
		{"closed without pl", map[string]any{"symbol": "X", "position": 10, "isClosed": true}},
		{"other without remark", map[string]any{"symbol": "X", "position": 10, "isClosed": true, "profitLoss": "1", "closeReason": "other"}},
		{"bad date", map[string]any{"symbol": "X", "position": 10, "date": "03/01/2024"}},
		{"pl past 8 places", map[string]any{"symbol": "X", "position": 10, "isClosed": true, "profitLoss": "0.000000004"}},
		{"pl huge exponent", map[string]any{"symbol": "X", "position": 10, "isClosed": true, "profitLoss": "1e100000000"}},
		{"expected balance too precise", map[string]any{"symbol": "X", "position": 10, "expectedBalance": "1000.000000001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/trades", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "validation_failed", decodeResponse[errorBody](t, rec).Code)
		})
	}
}

func TestUpdateAndDeleteTrade(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "1000")

	created := createTrade(t, s, map[string]any{"symbol": "NVDA", "position": 20, "isClosed": true, "profitLoss": "50"})
	require.Equal(t, "1050", created.Balance)
	id := created.Trade["id"].(string)

	rec := s.do(t, http.MethodPut, "/api/trades/"+id, map[string]any{"id": id, "profitLoss": "-20"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeResponse[mutationBody](t, rec)
	assert.Equal(t, "980", updated.Balance)
	assert.Equal(t, "-20", updated.Trade["profitLoss"])
	assert.Equal(t, "200", updated.Trade["openAmount"])

	rec = s.do(t, http.MethodPut, "/api/trades/"+id, map[string]any{"id": "SOMETHINGELSE", "profitLoss": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/trades/"+id+"?expectedVersion=1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/trades/"+id, map[string]any{"expectedBalance": "980"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deleted := decodeResponse[mutationBody](t, rec)
	assert.True(t, deleted.Success)
	assert.Equal(t, "1000", deleted.Balance)

	rec = s.do(t, http.MethodDelete, "/api/trades/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeResponse[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/trades/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTradesFilters(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "1000")

	createTrade(t, s, map[string]any{"symbol": "AAPL", "position": 10, "isClosed": true, "profitLoss": "5", "date": "2024-01-01"})
	createTrade(t, s, map[string]any{"symbol": "AAPL", "position": 10, "date": "2024-01-02"})
	createTrade(t, s, map[string]any{"symbol": "MSFT", "position": 10, "isClosed": true, "profitLoss": "-5", "date": "2024-01-03"})

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?symbol=aapl", 2},
		{"?isClosed=true", 2},
		{"?isClosed=false", 1},
		{"?startDate=2024-01-02&endDate=2024-01-03", 2},
		{"?limit=1", 1},
		{"?skip=2", 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("query %q", tt.query), func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/trades"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decodeResponse[[]map[string]any](t, rec), tt.want)
		})
	}

	for _, bad := range []string{"?isClosed=maybe", "?limit=5000", "?skip=-1", "?startDate=2024-02-01&endDate=2024-01-01"} {
		rec := s.do(t, http.MethodGet, "/api/trades"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestListTradesEmptyIsArray(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/trades", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestStatsETag(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t, "1000")
	createTrade(t, s, map[string]any{"symbol": "AAPL", "position": 10, "isClosed": true, "profitLoss": "25"})

	rec := s.do(t, http.MethodGet, "/api/trades/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	stats := decodeResponse[map[string]any](t, rec)
	assert.EqualValues(t, 1, stats["totalTrades"])
	assert.Equal(t, "1025", stats["currentBalance"])

	rec = s.do(t, http.MethodGet, "/api/trades/stats", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	createTrade(t, s, map[string]any{"symbol": "AAPL", "position": 10})
	rec = s.do(t, http.MethodGet, "/api/trades/stats", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}
