package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// WAL keeps readers unblocked during writes; the busy timeout covers the
// brief lock handoff between them.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000"

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := requireNonEmpty(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY entirely
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// NewBackupManager creates a new backup manager for this storage instance.
func (s *SQLiteStorage) NewBackupManager() (*BackupManager, error) {
	return NewBackupManager(s.db, s.dbPath)
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &storageTx{tx: tx, base: s}, nil
}

// storageTx exposes the full storage API scoped to one sql.Tx. Each method
// runs the same guards as its connection-level counterpart, then delegates
// to the shared *Tx implementation.
type storageTx struct {
	tx   *sql.Tx
	base *SQLiteStorage
}

func (t *storageTx) Commit() error {
	return t.tx.Commit()
}

func (t *storageTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *storageTx) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := errors.Join(requireContext(ctx), requireTransaction(txn)); err != nil {
		return err
	}
	return t.base.createTransactionTx(ctx, t.tx, txn)
}

func (t *storageTx) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := errors.Join(requireContext(ctx), requireTransaction(txn)); err != nil {
		return err
	}
	return t.base.updateTransactionTx(ctx, t.tx, txn)
}

func (t *storageTx) DeleteTransaction(ctx context.Context, id string) error {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(id, "id")); err != nil {
		return err
	}
	return t.base.deleteTransactionTx(ctx, t.tx, id)
}

func (t *storageTx) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(id, "id")); err != nil {
		return nil, err
	}
	return t.base.getTransactionByIDTx(ctx, t.tx, id)
}

func (t *storageTx) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return t.base.listTransactionsTx(ctx, t.tx)
}

func (t *storageTx) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := errors.Join(requireContext(ctx), requireLimit(limit)); err != nil {
		return nil, err
	}
	return t.base.getRecentTransactionsTx(ctx, t.tx, limit)
}

func (t *storageTx) GetTransactionsByCategoryID(ctx context.Context, categoryID int64) ([]model.Transaction, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return t.base.getTransactionsByCategoryIDTx(ctx, t.tx, categoryID)
}

func (t *storageTx) SaveTransactions(ctx context.Context, txns []model.Transaction) (int64, error) {
	if err := errors.Join(requireContext(ctx), requireTransactions(txns)); err != nil {
		return 0, err
	}
	return t.base.saveTransactionsTx(ctx, t.tx, txns)
}

func (t *storageTx) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(name, "name")); err != nil {
		return nil, err
	}
	return t.base.createCategoryTx(ctx, t.tx, name)
}

func (t *storageTx) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return t.base.getCategoryByIDTx(ctx, t.tx, id)
}

func (t *storageTx) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(name, "name")); err != nil {
		return nil, err
	}
	return t.base.getCategoryByNameTx(ctx, t.tx, name)
}

func (t *storageTx) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return t.base.listCategoriesTx(ctx, t.tx)
}

func (t *storageTx) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireContext(ctx); err != nil {
		return err
	}
	return t.base.deleteCategoryTx(ctx, t.tx, id)
}

func (t *storageTx) DetachCategoryFromTransactions(ctx context.Context, categoryID int64) (int64, error) {
	if err := requireContext(ctx); err != nil {
		return 0, err
	}
	return t.base.detachCategoryFromTransactionsTx(ctx, t.tx, categoryID)
}

func (t *storageTx) GetTotals(ctx context.Context) (model.Totals, error) {
	if err := requireContext(ctx); err != nil {
		return model.Totals{}, err
	}
	return t.base.getTotalsTx(ctx, t.tx)
}

func (t *storageTx) SumAmountsByMonth(ctx context.Context, from, to time.Time) (map[string]float64, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, to, from)
	}
	return t.base.sumAmountsByMonthTx(ctx, t.tx, from, to)
}

func (t *storageTx) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *storageTx) SchemaVersion(ctx context.Context) (int, int, error) {
	return t.base.SchemaVersion(ctx)
}

func (t *storageTx) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *storageTx) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
