package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, restore, and delete snapshots of the ledger database.

Backups live in a backups directory next to the database file.`,
		Example: `  # Snapshot before a big import
  tally backup create pre-2025-import

  # See what you have
  tally backup list

  # Roll back
  tally backup restore pre-2025-import`,
	}

	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupRestoreCmd())
	cmd.AddCommand(backupDeleteCmd())

	return cmd
}

func backupCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a backup",
		Long: `Snapshot the current database. The name defaults to a timestamp
when omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := ""
			if len(args) == 1 {
				tag = args[0]
			}

			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				manager, err := store.NewBackupManager()
				if err != nil {
					return fmt.Errorf("failed to open backups directory: %w", err)
				}

				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					if errors.Is(err, storage.ErrBackupExists) {
						return fmt.Errorf("backup %q already exists", tag)
					}
					return fmt.Errorf("failed to create backup: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created backup %s (%d transactions, %s)",
					info.ID, info.Transactions, formatFileSize(info.FileSize))))
				if info.Description != "" {
					fmt.Printf("  Description: %s\n", info.Description)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Free-form note stored with the backup")

	return cmd
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups",
		Long:  `Display all available backups with their metadata.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				manager, err := store.NewBackupManager()
				if err != nil {
					return fmt.Errorf("failed to open backups directory: %w", err)
				}

				backups, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list backups: %w", err)
				}

				if len(backups) == 0 {
					fmt.Println(cli.FormatInfo("No backups yet. Use 'tally backup create' to make one."))
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				defer w.Flush()

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tableHeaderStyle.Render("Name"),
					tableHeaderStyle.Render("Created"),
					tableHeaderStyle.Render("Size"),
					tableHeaderStyle.Render("Transactions"),
					tableHeaderStyle.Render("Categories"),
					tableHeaderStyle.Render("Type"))
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					strings.Repeat("-", 24),
					strings.Repeat("-", 14),
					strings.Repeat("-", 8),
					strings.Repeat("-", 12),
					strings.Repeat("-", 10),
					strings.Repeat("-", 6))

				for _, b := range backups {
					typeLabel := "manual"
					if b.IsAuto {
						typeLabel = "auto"
					}

					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
						b.ID,
						formatRelativeTime(b.CreatedAt),
						formatFileSize(b.FileSize),
						b.Transactions,
						b.Categories,
						tableMutedStyle.Render(typeLabel))
				}

				return nil
			})
		},
	}
}

func backupRestoreCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore a backup",
		Long: `Replace the current database with a backup. The replaced database
is kept next to the restored one until the restore verifies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if !force {
					question := fmt.Sprintf("Restore backup %q? The current ledger will be replaced.", name)
					confirmed, confirmErr := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, question)
					if confirmErr != nil {
						return confirmErr
					}
					if !confirmed {
						fmt.Println("Restore cancelled.")
						return nil
					}
				}

				manager, err := store.NewBackupManager()
				if err != nil {
					return fmt.Errorf("failed to open backups directory: %w", err)
				}

				if err := manager.Restore(ctx, name); err != nil {
					if errors.Is(err, storage.ErrBackupNotFound) {
						return fmt.Errorf("backup %q not found (run 'tally backup list')", name)
					}
					return fmt.Errorf("failed to restore backup: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Restored backup %q", name)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func backupDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a backup",
		Long:  `Permanently remove a backup and its metadata.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return runWithStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				manager, err := store.NewBackupManager()
				if err != nil {
					return fmt.Errorf("failed to open backups directory: %w", err)
				}

				if !force {
					question := fmt.Sprintf("Permanently delete backup %q?", name)
					confirmed, confirmErr := cli.NewConfirmer(os.Stdin, os.Stdout).Confirm(ctx, question)
					if confirmErr != nil {
						return confirmErr
					}
					if !confirmed {
						fmt.Println("Deletion cancelled.")
						return nil
					}
				}

				if err := manager.Delete(ctx, name); err != nil {
					if errors.Is(err, storage.ErrBackupNotFound) {
						return fmt.Errorf("backup %q not found (run 'tally backup list')", name)
					}
					return fmt.Errorf("failed to delete backup: %w", err)
				}

				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted backup %q", name)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

// Helper functions

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
