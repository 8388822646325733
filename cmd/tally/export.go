package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/config"
	"github.com/dollarsandsense/tally/internal/export"
	"github.com/dollarsandsense/tally/internal/ledger"
	"github.com/dollarsandsense/tally/internal/report"
	"github.com/dollarsandsense/tally/internal/sheets"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger",
		Long:  `Export transactions and summaries to CSV or Google Sheets.`,
	}

	cmd.AddCommand(exportCSVCmd())
	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportCSVCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export transactions as CSV",
		Long:  `Write every transaction as CSV, to stdout or to a file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				txns, err := ledger.New(store).ListTransactions(ctx)
				if err != nil {
					return fmt.Errorf("failed to list transactions: %w", err)
				}

				var w io.Writer = os.Stdout
				if output != "" {
					f, createErr := os.Create(output)
					if createErr != nil {
						return fmt.Errorf("failed to create %s: %w", output, createErr)
					}
					defer f.Close()
					w = f
				}

				if err := export.WriteCSV(w, txns); err != nil {
					return fmt.Errorf("failed to write CSV: %w", err)
				}

				if output != "" {
					fmt.Println(cli.FormatSuccess(fmt.Sprintf("Wrote %d transactions to %s", len(txns), output)))
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Export the ledger to Google Sheets",
		Long: `Write the full transaction list and a summary tab to a Google
spreadsheet. Run 'tally auth sheets' first to set up credentials.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheetsConfig, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError("sheets export is not configured; run 'tally auth sheets' first", err)
			}

			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				txns, err := ledger.New(store).ListTransactions(ctx)
				if err != nil {
					return fmt.Errorf("failed to list transactions: %w", err)
				}

				reports := report.New(store)
				totals, err := reports.Totals(ctx)
				if err != nil {
					return fmt.Errorf("failed to compute totals: %w", err)
				}
				trend, err := reports.MonthlyTrend(ctx)
				if err != nil {
					return fmt.Errorf("failed to compute trend: %w", err)
				}

				slog.Info("Exporting to Google Sheets",
					"transactions", len(txns),
					"spreadsheet", sheetsConfig.SpreadsheetName)

				writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
				if err != nil {
					return fmt.Errorf("failed to create sheets writer: %w", err)
				}

				if err := writer.Write(ctx, sheets.ExportData{
					Transactions: txns,
					Totals:       totals,
					Trend:        trend,
				}); err != nil {
					return fmt.Errorf("failed to export to sheets: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %q",
					len(txns), sheetsConfig.SpreadsheetName)))
				return nil
			})
		},
	}
}
