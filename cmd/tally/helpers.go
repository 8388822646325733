package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/config"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tableMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// databasePath resolves the configured database location, falling back to
// the default and expanding tildes and environment variables.
func databasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = config.DefaultDBPath()
	}
	return config.ExpandPath(path)
}

// initStorage opens the configured database and brings the schema up to
// date. Callers must Close the returned store.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// runWithStorage opens the database for one command invocation and closes
// it when fn returns. Most RunE bodies go through here.
func runWithStorage(cmd *cobra.Command, fn func(ctx context.Context, store *storage.SQLiteStorage) error) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

// lookupCategory resolves category flag text to a stored category. Numeric
// text looks up by ID, anything else by case-insensitive name.
func lookupCategory(ctx context.Context, store *storage.SQLiteStorage, text string) (*model.Category, error) {
	trimmed := strings.TrimSpace(text)

	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		category, lookupErr := store.GetCategoryByID(ctx, id)
		if lookupErr != nil {
			if errors.Is(lookupErr, common.ErrNotFound) {
				return nil, fmt.Errorf("category %d not found (run 'tally categories list')", id)
			}
			return nil, fmt.Errorf("failed to look up category: %w", lookupErr)
		}
		return category, nil
	}

	category, err := store.GetCategoryByName(ctx, trimmed)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("category %q not found (run 'tally categories list')", trimmed)
		}
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	return category, nil
}

// resolveCategoryFlag turns a --category flag value into the category ID
// text the ledger service expects. Empty input stays empty.
func resolveCategoryFlag(ctx context.Context, store *storage.SQLiteStorage, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	category, err := lookupCategory(ctx, store, text)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(category.ID, 10), nil
}

// formatMoney renders an amount as dollars with the sign ahead of the
// currency symbol.
func formatMoney(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// printTransactionTable renders transactions as an aligned table with a
// styled header.
func printTransactionTable(txns []model.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		tableHeaderStyle.Render("Date"),
		tableHeaderStyle.Render("Amount"),
		tableHeaderStyle.Render("Description"),
		tableHeaderStyle.Render("Category"),
		tableHeaderStyle.Render("ID"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 10),
		strings.Repeat("-", 12),
		strings.Repeat("-", 30),
		strings.Repeat("-", 16),
		strings.Repeat("-", 36))

	for i := range txns {
		txn := &txns[i]
		category := txn.CategoryName
		if category == "" {
			category = tableMutedStyle.Render("(uncategorized)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			txn.Date.Format("2006-01-02"),
			cli.FormatAmount(formatMoney(txn.Amount), txn.Amount),
			txn.Description,
			category,
			txn.ID)
	}
}
