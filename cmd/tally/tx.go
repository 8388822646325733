package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/ledger"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and manage transactions",
		Long:  `Add, edit, delete, and list the transactions in your ledger.`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(deleteTxCmd())
	cmd.AddCommand(listTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		amount      string
		date        string
		description string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record a new transaction. Positive amounts are income and negative
amounts are expenses. The date defaults to today.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				categoryRef, err := resolveCategoryFlag(ctx, store, category)
				if err != nil {
					return err
				}

				txn, err := ledger.New(store).AddTransaction(ctx, ledger.AddTransactionInput{
					Description: description,
					Amount:      amount,
					Date:        date,
					CategoryID:  categoryRef,
				})
				if err != nil {
					return fmt.Errorf("failed to add transaction: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s on %s (ID: %s)",
					formatMoney(txn.Amount), txn.Date.Format("2006-01-02"), txn.ID)))
				if txn.CategoryName != "" {
					fmt.Printf("  Category: %s\n", txn.CategoryName)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Transaction amount (positive income, negative expense)")
	cmd.Flags().StringVar(&date, "date", "", "Transaction date (format: 2006-01-02, default: today)")
	cmd.Flags().StringVar(&description, "description", "", "Transaction description")
	cmd.Flags().StringVar(&category, "category", "", "Category id or name")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		amount      string
		date        string
		description string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Long: `Update fields on an existing transaction. Only the flags you pass
change; use --category none to clear the category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				svc := ledger.New(store)
				current, err := svc.GetTransaction(ctx, id)
				if err != nil {
					return err
				}

				// The service overwrites every field, so unset flags carry
				// the current values through.
				input := ledger.EditTransactionInput{
					Description: current.Description,
				}
				if cmd.Flags().Changed("description") {
					input.Description = description
				}
				if cmd.Flags().Changed("amount") {
					input.Amount = amount
				}
				if cmd.Flags().Changed("date") {
					input.Date = date
				}

				switch {
				case !cmd.Flags().Changed("category"):
					if current.CategoryID != nil {
						input.CategoryID = strconv.FormatInt(*current.CategoryID, 10)
					}
				case category == "none":
					// An empty reference clears the assignment
				default:
					ref, resolveErr := resolveCategoryFlag(ctx, store, category)
					if resolveErr != nil {
						return resolveErr
					}
					input.CategoryID = ref
				}

				updated, err := svc.EditTransaction(ctx, id, input)
				if err != nil {
					return fmt.Errorf("failed to edit transaction: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated transaction %s", updated.ID)))
				fmt.Printf("  %s  %s  %s\n",
					updated.Date.Format("2006-01-02"),
					cli.FormatAmount(formatMoney(updated.Amount), updated.Amount),
					updated.Description)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "New amount")
	cmd.Flags().StringVar(&date, "date", "", "New date (format: 2006-01-02)")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&category, "category", "", "New category id or name, or 'none' to clear")

	return cmd
}

func deleteTxCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				svc := ledger.New(store)
				txn, err := svc.GetTransaction(ctx, id)
				if err != nil {
					return err
				}

				if !force {
					question := fmt.Sprintf("Delete %s %q from %s?",
						formatMoney(txn.Amount), txn.Description, txn.Date.Format("2006-01-02"))
					confirmed, confirmErr := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, question)
					if confirmErr != nil {
						return confirmErr
					}
					if !confirmed {
						fmt.Println("Deletion cancelled.")
						return nil
					}
				}

				if err := svc.DeleteTransaction(ctx, id); err != nil {
					return fmt.Errorf("failed to delete transaction: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %s", id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}

func listTxCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long:  `Display ledger transactions, newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				txns, err := ledger.New(store).ListTransactions(ctx)
				if err != nil {
					return fmt.Errorf("failed to list transactions: %w", err)
				}

				if len(txns) == 0 {
					fmt.Println(cli.FormatInfo("No transactions yet. Use 'tally tx add' to record one."))
					return nil
				}

				if limit > 0 && len(txns) > limit {
					txns = txns[:limit]
				}

				printTransactionTable(txns)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to show (0 shows everything)")

	return cmd
}
