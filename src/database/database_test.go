package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	db, err := OpenAndMigrate(dbPath, "")
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"balance", "trades", "fund_records", "equity_history"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}

	// second run is a no-op
	require.NoError(t, RunMigrations(db, ""))
}

func TestRunMigrationsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_one.up.sql"), []byte(`CREATE TABLE only_here (id INTEGER PRIMARY KEY);`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_one.down.sql"), []byte(`DROP TABLE only_here;`), 0o600))

	db, err := Open(filepath.Join(t.TempDir(), "custom.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db, dir))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'only_here'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestBalanceSingletonConstraint(t *testing.T) {
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "journal.db"), "")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO balance (id, amount, version, created_at, updated_at) VALUES (2, '1', 1, 'x', 'x')`)
	assert.Error(t, err)
}

func TestRunMigrationsNilDB(t *testing.T) {
	assert.Error(t, RunMigrations(nil, ""))
}
