package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/config"
)

func TestOpenLedgerStoreSQLite(t *testing.T) {
	cfg := &config.AppConfig{DatabaseDriver: DriverSQLite, DatabasePath: filepath.Join(t.TempDir(), "j.db")}

	store, err := OpenLedgerStore(cfg)
	require.NoError(t, err)
	defer store.Close()

	bal, err := store.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.Amount.IsZero())
}

func TestOpenLedgerStoreErrors(t *testing.T) {
	_, err := OpenLedgerStore(&config.AppConfig{DatabaseDriver: DriverPostgres})
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = OpenLedgerStore(&config.AppConfig{DatabaseDriver: "mysql"})
	assert.ErrorContains(t, err, "unsupported")
}
