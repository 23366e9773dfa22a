package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/username/tradejournal/backend/src/services"
)

// formatFor returns the explicit format, or guesses it from the file extension.
func formatFor(format, path string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = services.FormatYAML
		}
	}
	return services.ParseFormat(format)
}

func newBackupCmd(a *app) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the whole ledger to a file (or stdout)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatFor(format, out)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			_, _, backup := a.services(store)

			snap, err := backup.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer file.Close()
				w = file
			}
			if err := services.EncodeSnapshot(w, snap, f); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d trades, %d fund records to %s\n",
					snap.Summary.TotalTrades, snap.Summary.FundRecords, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from the file extension, else json)")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the whole ledger with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatFor(format, args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			snap, err := services.DecodeSnapshot(file, f)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			_, _, backup := a.services(store)

			res, err := backup.Restore(cmd.Context(), snap)
			if err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d trades, %d fund records, %d equity points; balance %s\n",
				res.Trades, res.FundRecords, res.EquityPoints, res.Balance)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from the file extension, else json)")
	return cmd
}
