package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
)

// categoryColumns is the select list every category query shares.
const categoryColumns = "id, name, created_at"

// CreateCategory creates a new category and returns it with its assigned ID.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(name, "name")); err != nil {
		return nil, err
	}
	return s.createCategoryTx(ctx, s.db, name)
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, name string) (*model.Category, error) {
	now := time.Now()
	result, err := q.ExecContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES (?, ?)`, name, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created new category", "name", name, "id", id)
	return &model.Category{ID: id, Name: name, CreatedAt: now}, nil
}

// GetCategoryByID returns a category by its ID.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoryByIDTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getCategoryByIDTx(ctx context.Context, q queryable, id int64) (*model.Category, error) {
	return s.getCategoryTx(ctx, q, "id = ?", id)
}

// GetCategoryByName returns a category by its name. Matching ignores case so
// a lookup for "food" finds "Food".
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := errors.Join(requireContext(ctx), requireNonEmpty(name, "name")); err != nil {
		return nil, err
	}
	return s.getCategoryByNameTx(ctx, s.db, name)
}

func (s *SQLiteStorage) getCategoryByNameTx(ctx context.Context, q queryable, name string) (*model.Category, error) {
	return s.getCategoryTx(ctx, q, "name = ? COLLATE NOCASE", name)
}

// getCategoryTx runs a single-row category lookup. A miss maps to
// common.ErrNotFound.
func (s *SQLiteStorage) getCategoryTx(ctx context.Context, q queryable, where string, arg any) (*model.Category, error) {
	var cat model.Category
	err := q.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE "+where, arg).
		Scan(&cat.ID, &cat.Name, &cat.CreatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// ListCategories returns all categories sorted by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	return s.listCategoriesTx(ctx, s.db)
}

func (s *SQLiteStorage) listCategoriesTx(ctx context.Context, q queryable) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// DeleteCategory removes a category by ID. Transactions referencing it must
// be detached first; see DetachCategoryFromTransactions.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireContext(ctx); err != nil {
		return err
	}
	return s.deleteCategoryTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteCategoryTx(ctx context.Context, q queryable, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRowChanged(result)
}

// DetachCategoryFromTransactions clears the category reference on every
// transaction assigned to the category and reports how many rows changed.
func (s *SQLiteStorage) DetachCategoryFromTransactions(ctx context.Context, categoryID int64) (int64, error) {
	if err := requireContext(ctx); err != nil {
		return 0, err
	}
	return s.detachCategoryFromTransactionsTx(ctx, s.db, categoryID)
}

func (s *SQLiteStorage) detachCategoryFromTransactionsTx(ctx context.Context, q queryable, categoryID int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE transactions SET category_id = NULL WHERE category_id = ?`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach category %d: %w", categoryID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows > 0 {
		slog.Debug("detached category from transactions", "category_id", categoryID, "count", rows)
	}
	return rows, nil
}
