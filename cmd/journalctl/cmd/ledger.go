package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
)

func parseAmount(s string) (decimal.Decimal, error) {
	return validation.ValidateDecimalString(s, "amount")
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.cfg.DatabaseDriver)
			return nil
		},
	}
}

func newBalanceCmd(a *app) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the current balance, or override it with --set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			ledger, _, _ := a.services(store)

			var bal models.Balance
			if set != "" {
				amount, err := parseAmount(set)
				if err != nil {
					return err
				}
				bal, err = ledger.SetBalance(cmd.Context(), amount, services.Expectation{})
				if err != nil {
					return fmt.Errorf("set balance: %w", err)
				}
			} else if bal, err = ledger.GetBalance(cmd.Context()); err != nil {
				return fmt.Errorf("get balance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance: %s\nversion: %d\n", bal.Amount.StringFixed(2), bal.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "replace the balance with this amount")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var filter models.StatsFilter
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			_, stats, _ := a.services(store)

			res, err := stats.GetStats(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&filter.StartDate, "start", "", "first trade date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "end", "", "last trade date to include (YYYY-MM-DD)")
	return cmd
}
