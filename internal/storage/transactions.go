package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
)

// dateLayout is how transaction dates are stored. Date-only strings keep
// lexicographic ordering and strftime grouping correct.
const dateLayout = "2006-01-02"

// transactionColumns is the SELECT list shared by every transaction read.
// The LEFT JOIN keeps transactions without a category in the result set.
const transactionColumns = `
	SELECT t.id, t.description, t.amount, t.date, t.category_id,
	       COALESCE(c.name, ''), t.import_hash, t.created_at
	FROM transactions t
	LEFT JOIN categories c ON t.category_id = c.id`

// CreateTransaction inserts a single transaction.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := errors.Join(requireContext(ctx), requireTransaction(txn)); err != nil {
		return err
	}
	return s.createTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) createTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, description, amount, date, category_id, import_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.Description,
		txn.Amount,
		txn.Date.Format(dateLayout),
		nullableID(txn.CategoryID),
		nullableString(txn.ImportHash),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

// UpdateTransaction rewrites a transaction's mutable fields. The creation
// timestamp and import hash never change after insert.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := errors.Join(requireContext(ctx), requireTransaction(txn)); err != nil {
		return err
	}
	return s.updateTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) updateTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, amount = ?, date = ?, category_id = ?
		WHERE id = ?
	`,
		txn.Description,
		txn.Amount,
		txn.Date.Format(dateLayout),
		nullableID(txn.CategoryID),
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}
	return requireRowChanged(result)
}

// DeleteTransaction removes a transaction by ID.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(id, "id")); err != nil {
		return err
	}
	return s.deleteTransactionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteTransactionTx(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return requireRowChanged(result)
}

// GetTransactionByID retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(id, "id")); err != nil {
		return nil, err
	}
	return s.getTransactionByIDTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransactionByIDTx(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	var txn model.Transaction
	var categoryID sql.NullInt64
	var importHash sql.NullString

	err := q.QueryRowContext(ctx, transactionColumns+` WHERE t.id = ?`, id).Scan(
		&txn.ID,
		&txn.Description,
		&txn.Amount,
		&txn.Date,
		&categoryID,
		&txn.CategoryName,
		&importHash,
		&txn.CreatedAt,
	)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	if importHash.Valid {
		txn.ImportHash = importHash.String
	}

	return &txn, nil
}

// ListTransactions retrieves every transaction, newest date first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return s.listTransactionsTx(ctx, s.db)
}

func (s *SQLiteStorage) listTransactionsTx(ctx context.Context, q queryable) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, transactionColumns+`
		ORDER BY t.date DESC, t.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetRecentTransactions retrieves the most recent transactions up to limit.
func (s *SQLiteStorage) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := errors.Join(requireContext(ctx), requireLimit(limit)); err != nil {
		return nil, err
	}
	return s.getRecentTransactionsTx(ctx, s.db, limit)
}

func (s *SQLiteStorage) getRecentTransactionsTx(ctx context.Context, q queryable, limit int) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, transactionColumns+`
		ORDER BY t.date DESC, t.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionsByCategoryID retrieves all transactions assigned to a category.
func (s *SQLiteStorage) GetTransactionsByCategoryID(ctx context.Context, categoryID int64) ([]model.Transaction, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactionsByCategoryIDTx(ctx, s.db, categoryID)
}

func (s *SQLiteStorage) getTransactionsByCategoryIDTx(ctx context.Context, q queryable, categoryID int64) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, transactionColumns+`
		WHERE t.category_id = ?
		ORDER BY t.date DESC, t.id DESC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// SaveTransactions saves multiple transactions to the database, skipping any
// whose import hash has been seen before. Returns the number inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int64, error) {
	if err := errors.Join(requireContext(ctx), requireTransactions(transactions)); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, description, amount, date, category_id, import_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var inserted int64
	for _, txn := range transactions {
		result, execErr := stmt.ExecContext(ctx,
			txn.ID,
			txn.Description,
			txn.Amount,
			txn.Date.Format(dateLayout),
			nullableID(txn.CategoryID),
			nullableString(txn.ImportHash),
			txn.CreatedAt,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
		}

		rows, raErr := result.RowsAffected()
		if raErr != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", raErr)
		}
		inserted += rows
	}

	return inserted, nil
}

// scanTransactions is a helper to scan transaction rows.
func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var categoryID sql.NullInt64
		var importHash sql.NullString

		err := rows.Scan(
			&txn.ID,
			&txn.Description,
			&txn.Amount,
			&txn.Date,
			&categoryID,
			&txn.CategoryName,
			&importHash,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if categoryID.Valid {
			txn.CategoryID = &categoryID.Int64
		}
		if importHash.Valid {
			txn.ImportHash = importHash.String
		}

		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// nullableID converts an optional category reference to a bindable value.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// nullableString binds empty strings as NULL so partial unique indexes skip them.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
