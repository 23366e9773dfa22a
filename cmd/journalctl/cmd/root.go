package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/storage"
)

// app is the per-invocation state shared by the subcommands.
type app struct {
	dbPath string
	cfg    *config.AppConfig
}

// NewRootCmd builds the journalctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "journalctl",
		Short: "Operator tool for the trade journal backend",
		Long: `journalctl works directly against the trade journal database.

It can:
  - apply schema migrations
  - print the balance and dashboard statistics
  - export and restore full ledger backups
  - prepare admin credentials (password hash, bearer token)

Database settings come from the same environment variables as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			a.cfg = config.Cfg
			if a.dbPath != "" {
				a.cfg.DatabasePath = a.dbPath
			}
			logger.InitLoggerWithWriter(os.Stderr, a.cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.dbPath, "db", "d", "", "path to the SQLite journal DB (overrides DATABASE_PATH)")

	root.AddCommand(
		newMigrateCmd(a),
		newBalanceCmd(a),
		newStatsCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newHashPasswordCmd(a),
		newTokenCmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) openStore() (model.LedgerStore, error) {
	return storage.OpenLedgerStore(a.cfg)
}

// services wires the service layer over store the same way the server does.
func (a *app) services(store model.LedgerStore) (services.LedgerService, services.StatsService, services.BackupService) {
	statsCache := services.NewStatsCache(a.cfg.StatsCacheTTL)
	ledger := services.NewLedgerService(store, statsCache)
	return ledger, services.NewStatsService(store, statsCache), services.NewBackupService(store, ledger)
}
