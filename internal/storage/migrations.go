package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version this build requires. Migrate
// fails rather than run against anything else.
const ExpectedSchemaVersion = 2

// migration is one schema step. Steps are plain statement lists; the
// migration runner wraps each step in its own transaction.
type migration struct {
	description string
	version     int
	statements  []string
}

var schema = []migration{
	{
		version:     1,
		description: "Initial schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS categories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			// NOCASE so "Food" and "food" cannot coexist
			`CREATE UNIQUE INDEX idx_categories_name ON categories(name COLLATE NOCASE)`,

			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				description TEXT NOT NULL DEFAULT '',
				amount REAL NOT NULL,
				date DATE NOT NULL,
				category_id INTEGER REFERENCES categories(id),
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_transactions_date ON transactions(date)`,
			`CREATE INDEX idx_transactions_category_id ON transactions(category_id)`,
		},
	},
	{
		version:     2,
		description: "Add import hash for bank statement deduplication",
		statements: []string{
			`ALTER TABLE transactions ADD COLUMN import_hash TEXT`,
			// Partial index: manual entries carry NULL and never collide
			`CREATE UNIQUE INDEX idx_transactions_import_hash
				ON transactions(import_hash) WHERE import_hash IS NOT NULL`,
		},
	},
}

// Migrate brings the database up to ExpectedSchemaVersion, applying any
// pending steps in order.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := requireContext(ctx); err != nil {
		return err
	}

	current, err := s.userVersion(ctx)
	if err != nil {
		return err
	}

	for _, step := range schema {
		if step.version <= current {
			continue
		}
		if err := s.applyMigration(ctx, step); err != nil {
			return err
		}
		slog.Info("Applied migration",
			"version", step.version,
			"description", step.description)
	}

	final, err := s.userVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}

	return nil
}

// applyMigration runs one step atomically and records its version.
func (s *SQLiteStorage) applyMigration(ctx context.Context, step migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, statement := range step.statements {
		if _, err := tx.Exec(statement); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", step.version, err)
		}
	}

	// PRAGMA does not accept bind parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", step.version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", step.version, err)
	}
	return nil
}

func (s *SQLiteStorage) userVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// SchemaVersion reports the database's current schema version alongside the
// version this build expects.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, int, error) {
	if err := requireContext(ctx); err != nil {
		return 0, 0, err
	}

	current, err := s.userVersion(ctx)
	if err != nil {
		return 0, 0, err
	}
	return current, ExpectedSchemaVersion, nil
}
