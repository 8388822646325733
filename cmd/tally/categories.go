package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/ledger"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
		Long:  `List, add, and delete the categories used to label transactions.`,
	}

	cmd.AddCommand(listCategoriesCmd(), addCategoryCmd(), deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their IDs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				categories, err := ledger.New(store).ListCategories(ctx)
				if err != nil {
					return fmt.Errorf("failed to list categories: %w", err)
				}

				if len(categories) == 0 {
					fmt.Println(cli.FormatInfo("No categories found. Use 'tally categories add' to create one."))
					return nil
				}

				printCategoryTable(categories)
				return nil
			})
		},
	}
}

func printCategoryTable(categories []model.Category) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\n",
		tableHeaderStyle.Render("ID"),
		tableHeaderStyle.Render("Name"),
		tableHeaderStyle.Render("Created"))
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 20),
		strings.Repeat("-", 10))

	for _, cat := range categories {
		fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, cat.Name, cat.CreatedAt.Format("2006-01-02"))
	}
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Long:  `Create a new category. Names are unique ignoring case.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				category, err := ledger.New(store).AddCategory(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to create category: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", category.Name, category.ID)))
				return nil
			})
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Transactions that used it are kept and become
uncategorized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category ID %q: %w", args[0], err)
			}

			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				svc := ledger.New(store)
				category, err := svc.GetCategory(ctx, id)
				if err != nil {
					return err
				}

				if !force {
					question := fmt.Sprintf("Delete category %q? Its transactions become uncategorized.", category.Name)
					confirmed, confirmErr := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, question)
					if confirmErr != nil {
						return confirmErr
					}
					if !confirmed {
						fmt.Println("Deletion cancelled.")
						return nil
					}
				}

				if err := svc.DeleteCategory(ctx, id); err != nil {
					return fmt.Errorf("failed to delete category: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted category %q", category.Name)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete without asking for confirmation")

	return cmd
}
