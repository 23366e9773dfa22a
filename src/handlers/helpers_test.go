package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/services"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	router http.Handler
	ledger services.LedgerService
	auth   *security.AuthService
}

// newTestServer wires the full router over a fresh sqlite ledger. A non-empty
// adminPassword turns admin auth on.
func newTestServer(t *testing.T, adminPassword string) *testServer {
	t.Helper()
	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "journal.db"), "")
	require.NoError(t, err)
	store := model.NewSQLStore(db)
	t.Cleanup(func() { store.Close() })

	auth := security.NewAuthService("", "", time.Hour)
	if adminPassword != "" {
		hash, err := auth.HashPassword(adminPassword)
		require.NoError(t, err)
		auth = security.NewAuthService(testJWTSecret, hash, time.Hour)
	}

	statsCache := services.NewStatsCache(time.Minute)
	ledger := services.NewLedgerService(store, statsCache)
	router := NewRouter(RouterDeps{
		Ledger:         ledger,
		Stats:          services.NewStatsService(store, statsCache),
		Backup:         services.NewBackupService(store, ledger),
		Auth:           auth,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 16,
		RequestTimeout: 5 * time.Second,
	})
	return &testServer{router: router, ledger: ledger, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type mutationBody struct {
	Trade   map[string]any `json:"trade"`
	Record  map[string]any `json:"record"`
	Success bool           `json:"success"`
	Balance string         `json:"balance"`
	Version int64          `json:"version"`
}

// seed sets the balance through the API.
func (s *testServer) seed(t *testing.T, amount string) mutationBody {
	t.Helper()
	rec := s.do(t, http.MethodPut, "/api/balance", map[string]any{"amount": amount})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeResponse[mutationBody](t, rec)
}
