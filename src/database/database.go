// backend/src/database/database.go
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/username/tradejournal/backend/src/logger"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Open returns a SQLite handle configured for a single writer.
// _txlock=immediate makes every transaction take the write lock at BEGIN.
func Open(databasePath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)&_txlock=immediate", databasePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.L.Info("Database connection established with WAL mode, busy_timeout, and foreign_keys enabled.", "path", databasePath)
	return db, nil
}

// RunMigrations applies all pending up migrations. An empty migrationsPath
// uses the migrations compiled into the binary.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	if db == nil {
		return errors.New("database connection is not initialized before running migrations")
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	var m *migrate.Migrate
	source := "embedded"
	if migrationsPath == "" {
		src, err := iofs.New(migrationFiles, "migrations")
		if err != nil {
			return fmt.Errorf("could not read embedded migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("migration instance creation failed: %w", err)
		}
	} else {
		abs, err := filepath.Abs(migrationsPath)
		if err != nil {
			return fmt.Errorf("failed to resolve migrations path: %w", err)
		}
		source = fmt.Sprintf("file://%s", filepath.ToSlash(abs))
		m, err = migrate.NewWithDatabaseInstance(source, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("migration instance creation failed for %s: %w", source, err)
		}
	}

	logger.L.Info("Applying database migrations...", "source", source)
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Info("No new database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.L.Info("Database migrations applied successfully.")
	return nil
}

// OpenAndMigrate is the usual startup sequence for the sqlite backend.
func OpenAndMigrate(databasePath, migrationsPath string) (*sql.DB, error) {
	db, err := Open(databasePath)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db, migrationsPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
