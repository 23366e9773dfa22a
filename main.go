package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/handlers"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/storage"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Trade journal backend server starting...")

	if config.Cfg.AdminAuthEnabled() {
		if len(config.Cfg.JWTSecret) < 32 {
			logger.L.Error("JWT_SECRET configuration invalid, it must be at least 32 characters")
			os.Exit(1)
		}
		if config.Cfg.AdminPasswordHash == "" {
			logger.L.Warn("ADMIN_PASSWORD_HASH is empty, admin login will be refused")
		}
	} else {
		logger.L.Warn("JWT_SECRET not set, admin routes are open (single-user mode)")
	}

	store, err := storage.OpenLedgerStore(config.Cfg)
	if err != nil {
		logger.L.Error("Failed to open ledger store", "driver", config.Cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	statsCache := services.NewStatsCache(config.Cfg.StatsCacheTTL)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AdminPasswordHash, config.Cfg.AdminTokenExpiry)
	ledgerService := services.NewLedgerService(store, statsCache)
	statsService := services.NewStatsService(store, statsCache)
	backupService := services.NewBackupService(store, ledgerService)

	var limiter *rate.Limiter
	if config.Cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Ledger:         ledgerService,
		Stats:          statsService,
		Backup:         backupService,
		Auth:           authService,
		AllowedOrigins: config.Cfg.AllowedOrigins,
		Limiter:        limiter,
		MaxBodyBytes:   config.Cfg.MaxBodyBytes,
		RequestTimeout: config.Cfg.RequestTimeout,
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	logger.L.Info("Shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.Cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
	logger.L.Info("Server stopped")
}
