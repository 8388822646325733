package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dollarsandsense/tally/internal/cli"
	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Initialize or update the database schema to the latest version.

Most commands migrate automatically; this one exists for checking status
and for bringing a database current without touching any data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Open without migrating so --status reports the stored version.
			dbPath := databasePath()
			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			current, latest, err := store.SchemaVersion(ctx)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}

			if statusOnly {
				printSchemaStatus(dbPath, current, latest)
				return nil
			}
			return applyMigrations(ctx, store, dbPath, current, latest)
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Report the schema version without applying changes")

	return cmd
}

func printSchemaStatus(dbPath string, current, latest int) {
	fmt.Println(cli.RenderBox("Migration Status", fmt.Sprintf(
		"Database:        %s\nCurrent version: %d\nLatest version:  %d",
		dbPath, current, latest)))

	if current < latest {
		fmt.Println(cli.FormatWarning(fmt.Sprintf(
			"%d migrations pending. Run 'tally migrate' to apply them.", latest-current)))
	}
}

func applyMigrations(ctx context.Context, store *storage.SQLiteStorage, dbPath string, current, latest int) error {
	slog.Info("🗄️  Running database migrations...", "database", dbPath)

	// Take an automatic backup before changing the schema of an existing
	// database. A fresh database has nothing to protect.
	if current > 0 && current < latest {
		manager, err := store.NewBackupManager()
		if err != nil {
			return fmt.Errorf("failed to prepare backup: %w", err)
		}
		if err := manager.AutoBackup(ctx, "migrate"); err != nil {
			slog.Warn("Could not create pre-migration backup", "error", err)
		}
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Database schema is up to date"))
	return nil
}
