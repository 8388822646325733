package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/report"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

const defaultRecentLimit = 10

func recentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent [count]",
		Short: "Show recent transactions",
		Long:  `Display the most recent transactions, newest first (default 10).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := defaultRecentLimit
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed < 1 {
					return fmt.Errorf("invalid count %q: expected a positive number", args[0])
				}
				limit = parsed
			}

			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				txns, err := report.New(store).Recent(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to load recent transactions: %w", err)
				}

				if len(txns) == 0 {
					fmt.Println(cli.FormatInfo("No transactions yet. Use 'tally tx add' to record one."))
					return nil
				}

				printTransactionTable(txns)
				return nil
			})
		},
	}
}
