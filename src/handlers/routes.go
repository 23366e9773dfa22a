// backend/src/handlers/routes.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
	"golang.org/x/time/rate"
)

// RouterDeps is everything NewRouter wires into the HTTP surface.
type RouterDeps struct {
	Ledger services.LedgerService
	Stats  services.StatsService
	Backup services.BackupService
	Auth   *security.AuthService

	AllowedOrigins []string
	Limiter        *rate.Limiter // nil disables rate limiting
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

func NewRouter(deps RouterDeps) http.Handler {
	balanceHandler := NewBalanceHandler(deps.Ledger)
	tradeHandler := NewTradeHandler(deps.Ledger, deps.Stats)
	fundHandler := NewFundRecordHandler(deps.Ledger)
	equityHandler := NewEquityHandler(deps.Ledger)
	backupHandler := NewBackupHandler(deps.Backup)
	adminHandler := NewAdminHandler(deps.Auth)
	adminOnly := AdminMiddleware(deps.Auth)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(CORSMiddleware(deps.AllowedOrigins))
	if deps.Limiter != nil {
		r.Use(RateLimitMiddleware(deps.Limiter))
	}
	if deps.MaxBodyBytes > 0 {
		r.Use(MaxBodyMiddleware(deps.MaxBodyBytes))
	}
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Trade journal backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/admin/login", adminHandler.HandleLogin)

		r.Get("/balance", balanceHandler.HandleGetBalance)
		r.With(adminOnly).Put("/balance", balanceHandler.HandleSetBalance)

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", tradeHandler.HandleListTrades)
			r.Post("/", tradeHandler.HandleCreateTrade)
			r.Get("/stats", tradeHandler.HandleGetStats)
			r.Get("/{id}", tradeHandler.HandleGetTrade)
			r.Put("/{id}", tradeHandler.HandleUpdateTrade)
			r.Delete("/{id}", tradeHandler.HandleDeleteTrade)
		})

		r.Route("/fund-records", func(r chi.Router) {
			r.Get("/", fundHandler.HandleListFundRecords)
			r.Post("/", fundHandler.HandleCreateFundRecord)
			r.Get("/{id}", fundHandler.HandleGetFundRecord)
			r.Delete("/{id}", fundHandler.HandleDeleteFundRecord)
		})

		r.Get("/equity-history", equityHandler.HandleGetEquityHistory)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Delete("/equity-history", equityHandler.HandleClearEquityHistory)
			r.Post("/equity-history/reset", equityHandler.HandleResetEquityHistory)
			r.Get("/backup", backupHandler.HandleExport)
			r.Post("/restore", backupHandler.HandleRestore)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONErrorCode(w, "route not found", "not_found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	return r
}
