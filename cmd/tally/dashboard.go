package main

import (
	"context"

	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/dollarsandsense/tally/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dashboardCmd() *cobra.Command {
	var theme string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive ledger dashboard",
		Long: `Open a full-screen dashboard with the totals, the six-month trend,
and recent transactions. Press r to refresh and q to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if theme == "" {
				theme = viper.GetString("ui.theme")
			}

			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				return tui.Run(ctx, tui.Config{
					Storage: store,
					Theme:   theme,
				})
			})
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "Color theme (default, catppuccin-mocha)")

	return cmd
}
