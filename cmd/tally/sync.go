package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/config"
	"github.com/dollarsandsense/tally/internal/ledger"
	"github.com/dollarsandsense/tally/internal/plaid"
	"github.com/spf13/cobra"
)

// syncWindowDays is the default trailing window when no dates are given.
const syncWindowDays = 30

// newFetcher builds the transaction source for sync. Tests swap in a
// plaid.Mock here.
var newFetcher = func(cfg plaid.Config) (plaid.Fetcher, error) {
	return plaid.NewClient(cfg)
}

func syncCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync transactions from your bank",
		Long: `Fetch transactions from your linked bank account via Plaid and
import them into the ledger. Transactions already present are skipped.

Run 'tally auth plaid' first to link an account.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			start, end, err := parseDateRange(from, to)
			if err != nil {
				return err
			}

			plaidConfig := config.LoadPlaidConfig()
			if err := plaidConfig.Validate(); err != nil {
				return common.NewUserError("plaid is not configured; run 'tally auth plaid' first", err)
			}

			fetcher, err := newFetcher(plaidConfig)
			if err != nil {
				return fmt.Errorf("failed to create Plaid client: %w", err)
			}

			slog.Info("🔄 Fetching transactions from Plaid...",
				"start", start.Format("2006-01-02"),
				"end", end.Format("2006-01-02"))

			txns, err := fetcher.Transactions(ctx, start, end)
			if err != nil {
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("No transactions in the selected window."))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			imported, err := ledger.New(store).ImportTransactions(ctx, txns)
			if err != nil {
				return fmt.Errorf("failed to import transactions: %w", err)
			}

			skipped := int64(len(txns)) - imported
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions (%d already present)",
				imported, skipped)))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start date (format: 2006-01-02, default: 30 days ago)")
	cmd.Flags().StringVar(&to, "to", "", "End date (format: 2006-01-02, default: today)")

	return cmd
}

// parseDateRange resolves the sync window. Bare defaults cover the trailing
// 30 days ending today.
func parseDateRange(fromText, toText string) (time.Time, time.Time, error) {
	end := time.Now()
	if toText != "" {
		parsed, err := time.Parse("2006-01-02", toText)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: expected format 2006-01-02", toText)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -syncWindowDays)
	if fromText != "" {
		parsed, err := time.Parse("2006-01-02", fromText)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: expected format 2006-01-02", fromText)
		}
		start = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return start, end, nil
}
