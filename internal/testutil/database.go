// Package testutil provides shared test helpers: a migrated in-memory
// database and seed fixtures for packages that exercise real storage.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/storage"
)

// SetupTestDB opens an in-memory SQLite database, applies migrations, and
// registers cleanup so each test gets an isolated schema-complete store.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "open in-memory database")
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.Migrate(context.Background()), "apply migrations")

	return store
}

// SeedCategory creates a category, failing the test on error.
func SeedCategory(t *testing.T, store *storage.SQLiteStorage, name string) *model.Category {
	t.Helper()

	cat, err := store.CreateCategory(context.Background(), name)
	require.NoError(t, err, "seed category %q", name)

	return cat
}

// SeedTransaction inserts a transaction with a caller-chosen id and a
// YYYY-MM-DD date, failing the test on error.
func SeedTransaction(t *testing.T, store *storage.SQLiteStorage, id string, amount float64, date string) *model.Transaction {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", date)
	require.NoError(t, err, "parse seed date %q", date)

	txn := &model.Transaction{
		ID:          id,
		Description: "seed",
		Amount:      amount,
		Date:        parsed,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.CreateTransaction(context.Background(), txn), "seed transaction %s", id)

	return txn
}
