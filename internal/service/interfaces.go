// Package service declares the contracts the application layers share.
package service

import (
	"context"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
)

// Storage is the persistence contract the ledger, report, and TUI layers
// depend on. The SQLite implementation lives in internal/storage.
type Storage interface {
	// Transaction records
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	GetTransactionsByCategoryID(ctx context.Context, categoryID int64) ([]model.Transaction, error)
	// SaveTransactions bulk-inserts imported transactions, skipping any
	// whose import hash is already present. Returns the number inserted.
	SaveTransactions(ctx context.Context, txns []model.Transaction) (int64, error)

	// Categories
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	// DetachCategoryFromTransactions clears the category reference on
	// every transaction pointing at the category and reports how many
	// rows changed.
	DetachCategoryFromTransactions(ctx context.Context, categoryID int64) (int64, error)

	// Aggregates
	GetTotals(ctx context.Context) (model.Totals, error)
	// SumAmountsByMonth returns the net amount per calendar month, keyed
	// by YYYY-MM, for dates in [from, to). Months with no transactions
	// are absent from the map.
	SumAmountsByMonth(ctx context.Context, from, to time.Time) (map[string]float64, error)

	// Schema and lifecycle
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (current, expected int, err error)
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction scopes Storage operations to a database transaction. Commit
// or Rollback ends the scope.
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}

// RetryOptions tunes the backoff loop in common.WithRetry. Zero values
// fall back to the defaults there.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
