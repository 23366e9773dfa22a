// backend/src/storage/storage.go
package storage

import (
	"fmt"

	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/model/pgstore"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenLedgerStore opens the backend selected by cfg and brings its schema up to date.
func OpenLedgerStore(cfg *config.AppConfig) (model.LedgerStore, error) {
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is %s", DriverPostgres)
		}
		logger.L.Info("Opening postgres ledger store")
		store, err := pgstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverSQLite, "":
		logger.L.Info("Opening sqlite ledger store", "path", cfg.DatabasePath)
		db, err := database.OpenAndMigrate(cfg.DatabasePath, cfg.MigrationsPath)
		if err != nil {
			return nil, err
		}
		return model.NewSQLStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
