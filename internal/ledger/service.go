// Package ledger implements transaction and category bookkeeping on top of
// the storage layer.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/service"
)

// Service provides all mutation and lookup operations over the ledger.
type Service struct {
	storage service.Storage
}

// New creates a new ledger service.
func New(storage service.Storage) *Service {
	return &Service{storage: storage}
}

// AddTransactionInput carries the raw text fields of an add request.
type AddTransactionInput struct {
	Description string
	Amount      string
	Date        string
	CategoryID  string
}

// EditTransactionInput carries the raw text fields of an edit request.
type EditTransactionInput struct {
	Description string
	Amount      string
	Date        string
	CategoryID  string
}

// AddTransaction records a new transaction. Amount text is parsed leniently
// (unparseable input records 0.0); date text must be YYYY-MM-DD or empty
// (empty means today); a category reference that does not resolve fails the
// whole operation.
func (s *Service) AddTransaction(ctx context.Context, input AddTransactionInput) (*model.Transaction, error) {
	amount := parseAmount(input.Amount, 0.0)

	date, err := parseDate(input.Date, today())
	if err != nil {
		return nil, err
	}

	var categoryID *int64
	var categoryName string
	if input.CategoryID != "" {
		category, resolveErr := s.resolveCategory(ctx, input.CategoryID)
		if resolveErr != nil {
			return nil, resolveErr
		}
		categoryID = &category.ID
		categoryName = category.Name
	}

	txn := &model.Transaction{
		ID:           uuid.New().String(),
		Description:  normalizeDescription(input.Description),
		Amount:       amount,
		Date:         date,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		CreatedAt:    time.Now(),
	}

	if err := s.storage.CreateTransaction(ctx, txn); err != nil {
		return nil, s.persistenceError("add transaction", err)
	}

	slog.Debug("added transaction", "id", txn.ID, "amount", txn.Amount, "date", txn.Date.Format(dateLayout))
	return txn, nil
}

// EditTransaction overwrites a transaction's fields. Unparseable amount text
// keeps the current amount and empty date text keeps the current date. A
// category reference that does not resolve clears the assignment rather than
// failing; this mirrors how an edit form's stale dropdown value behaves.
func (s *Service) EditTransaction(ctx context.Context, id string, input EditTransactionInput) (*model.Transaction, error) {
	current, err := s.storage.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, s.persistenceError("edit transaction", err)
	}

	date, err := parseDate(input.Date, current.Date)
	if err != nil {
		return nil, err
	}

	var categoryID *int64
	var categoryName string
	if input.CategoryID != "" {
		category, resolveErr := s.resolveCategory(ctx, input.CategoryID)
		switch {
		case resolveErr == nil:
			categoryID = &category.ID
			categoryName = category.Name
		case errors.Is(resolveErr, common.ErrCategoryNotFound):
			// A stale reference clears the assignment instead of failing.
		default:
			return nil, resolveErr
		}
	}

	updated := &model.Transaction{
		ID:           current.ID,
		Description:  normalizeDescription(input.Description),
		Amount:       parseAmount(input.Amount, current.Amount),
		Date:         date,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		ImportHash:   current.ImportHash,
		CreatedAt:    current.CreatedAt,
	}

	if err := s.storage.UpdateTransaction(ctx, updated); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, s.persistenceError("edit transaction", err)
	}

	slog.Debug("edited transaction", "id", updated.ID)
	return updated, nil
}

// DeleteTransaction removes a transaction by ID.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return s.persistenceError("delete transaction", err)
	}

	slog.Debug("deleted transaction", "id", id)
	return nil
}

// GetTransaction retrieves a single transaction by ID.
func (s *Service) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	txn, err := s.storage.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, s.persistenceError("get transaction", err)
	}
	return txn, nil
}

// ListTransactions returns every transaction, newest date first, ties broken
// by ID descending.
func (s *Service) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	txns, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, s.persistenceError("list transactions", err)
	}
	return txns, nil
}

// AddCategory creates a new category. Names are trimmed, must be non-empty,
// at most 80 characters, and unique ignoring case.
func (s *Service) AddCategory(ctx context.Context, name string) (*model.Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, common.ErrEmptyName
	}
	if len([]rune(trimmed)) > model.MaxCategoryNameLen {
		return nil, fmt.Errorf("%w: %d character maximum", common.ErrNameTooLong, model.MaxCategoryNameLen)
	}

	existing, err := s.storage.GetCategoryByName(ctx, trimmed)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, s.persistenceError("add category", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("category %q: %w", existing.Name, common.ErrDuplicateName)
	}

	category, err := s.storage.CreateCategory(ctx, trimmed)
	if err != nil {
		return nil, s.persistenceError("add category", err)
	}
	return category, nil
}

// DeleteCategory removes a category, first detaching every transaction that
// references it. Both steps happen in one storage transaction so a failure
// leaves the ledger untouched.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := s.storage.BeginTx(ctx)
	if err != nil {
		return s.persistenceError("delete category", err)
	}
	defer func() { _ = tx.Rollback() }()

	category, err := tx.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
		}
		return s.persistenceError("delete category", err)
	}

	detached, err := tx.DetachCategoryFromTransactions(ctx, id)
	if err != nil {
		return s.persistenceError("delete category", err)
	}

	if err := tx.DeleteCategory(ctx, id); err != nil {
		return s.persistenceError("delete category", err)
	}

	if err := tx.Commit(); err != nil {
		return s.persistenceError("delete category", err)
	}

	slog.Info("deleted category", "name", category.Name, "detached_transactions", detached)
	return nil
}

// GetCategory retrieves a single category by ID.
func (s *Service) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.storage.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
		}
		return nil, s.persistenceError("get category", err)
	}
	return category, nil
}

// ListCategories returns every category sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.storage.ListCategories(ctx)
	if err != nil {
		return nil, s.persistenceError("list categories", err)
	}
	return categories, nil
}

// ImportTransactions bulk-inserts transactions from an import source,
// assigning IDs where missing. Rows whose import hash has been seen before
// are skipped. Returns the number actually inserted.
func (s *Service) ImportTransactions(ctx context.Context, txns []model.Transaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	now := time.Now()
	for i := range txns {
		if txns[i].ID == "" {
			txns[i].ID = uuid.New().String()
		}
		if txns[i].CreatedAt.IsZero() {
			txns[i].CreatedAt = now
		}
		txns[i].Description = normalizeDescription(txns[i].Description)
	}

	inserted, err := s.storage.SaveTransactions(ctx, txns)
	if err != nil {
		return 0, s.persistenceError("import transactions", err)
	}

	slog.Info("imported transactions",
		"total", len(txns),
		"inserted", inserted,
		"skipped", int64(len(txns))-inserted)
	return inserted, nil
}

// resolveCategory turns category ID text into a stored category. Garbage
// text and unknown IDs both report ErrCategoryNotFound.
func (s *Service) resolveCategory(ctx context.Context, idText string) (*model.Category, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", common.ErrCategoryNotFound, idText)
	}

	category, err := s.storage.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", common.ErrCategoryNotFound, idText)
		}
		return nil, s.persistenceError("resolve category", err)
	}
	return category, nil
}

// persistenceError logs the full storage failure and returns the generic
// sentinel so internals never leak to the user.
func (s *Service) persistenceError(operation string, err error) error {
	slog.Error("storage operation failed", "operation", operation, "error", err)
	return fmt.Errorf("%s: %w", operation, common.ErrPersistence)
}

// today returns the current date at day precision.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
