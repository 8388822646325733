package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/report"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

const summaryRecentLimit = 10

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show where your money stands",
		Long: `Print the ledger totals, the six-month trend, and the most recent
transactions. The same numbers as the dashboard, as plain text.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				reports := report.New(store)

				totals, err := reports.Totals(ctx)
				if err != nil {
					return fmt.Errorf("failed to compute totals: %w", err)
				}
				trend, err := reports.MonthlyTrend(ctx)
				if err != nil {
					return fmt.Errorf("failed to compute trend: %w", err)
				}
				recent, err := reports.Recent(ctx, summaryRecentLimit)
				if err != nil {
					return fmt.Errorf("failed to load recent transactions: %w", err)
				}

				content := fmt.Sprintf("Income:   %s\nExpenses: %s\nNet:      %s",
					cli.FormatAmount(formatMoney(totals.Income), totals.Income),
					cli.FormatAmount(formatMoney(totals.Expenses), totals.Expenses),
					cli.FormatAmount(formatMoney(totals.Net()), totals.Net()))
				fmt.Println(cli.RenderBox("Ledger Summary", content))

				fmt.Println(cli.FormatTitle("Six-Month Trend"))
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\n",
					tableHeaderStyle.Render("Month"),
					tableHeaderStyle.Render("Net"))
				fmt.Fprintf(w, "%s\t%s\n",
					strings.Repeat("-", 7),
					strings.Repeat("-", 12))
				for _, point := range trend.Points {
					fmt.Fprintf(w, "%s\t%s\n", point.Month, cli.FormatAmount(formatMoney(point.Total), point.Total))
				}
				w.Flush()

				fmt.Println(cli.FormatTitle("Recent Transactions"))
				if len(recent) == 0 {
					fmt.Println(cli.FormatInfo("No transactions yet. Use 'tally tx add' to record one."))
					return nil
				}
				printTransactionTable(recent)

				return nil
			})
		},
	}
}
