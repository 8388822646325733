package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/dollarsandsense/tally/internal/common"
)

func TestSQLiteStorage_CreateCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Groceries")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if cat.ID == 0 {
		t.Error("Expected non-zero category ID")
	}
	if cat.Name != "Groceries" {
		t.Errorf("Expected name Groceries, got %q", cat.Name)
	}
	if cat.CreatedAt.IsZero() {
		t.Error("Expected non-zero created_at")
	}
}

func TestSQLiteStorage_CreateCategory_DuplicateName(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.CreateCategory(ctx, "Food"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	// The unique index is case-insensitive.
	if _, err := store.CreateCategory(ctx, "food"); err == nil {
		t.Error("Expected error creating duplicate category with different case")
	}
}

func TestSQLiteStorage_GetCategoryByName(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "Utilities")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	tests := []struct {
		name   string
		lookup string
		found  bool
	}{
		{name: "exact match", lookup: "Utilities", found: true},
		{name: "case-insensitive match", lookup: "UTILITIES", found: true},
		{name: "no match", lookup: "Rent", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetCategoryByName(ctx, tt.lookup)
			if !tt.found {
				if !errors.Is(err, common.ErrNotFound) {
					t.Errorf("Expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetCategoryByName failed: %v", err)
			}
			if got.ID != created.ID {
				t.Errorf("Expected ID %d, got %d", created.ID, got.ID)
			}
			if got.Name != "Utilities" {
				t.Errorf("Expected stored name Utilities, got %q", got.Name)
			}
		})
	}
}

func TestSQLiteStorage_GetCategoryByID_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetCategoryByID(context.Background(), 42)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_ListCategories_Sorted(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, name := range []string{"Transport", "Food", "Rent"} {
		if _, err := store.CreateCategory(ctx, name); err != nil {
			t.Fatalf("CreateCategory %s failed: %v", name, err)
		}
	}

	cats, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}

	wantOrder := []string{"Food", "Rent", "Transport"}
	if len(cats) != len(wantOrder) {
		t.Fatalf("Expected %d categories, got %d", len(wantOrder), len(cats))
	}
	for i, want := range wantOrder {
		if cats[i].Name != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, cats[i].Name)
		}
	}
}

func TestSQLiteStorage_DeleteCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Doomed")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	if err := store.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	if _, err := store.GetCategoryByID(ctx, cat.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := store.DeleteCategory(ctx, cat.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}

func TestSQLiteStorage_DetachCategoryFromTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Dining")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	tagged := testTransaction("t1", "Dinner", -30, "2024-03-01")
	tagged.CategoryID = &cat.ID
	untagged := testTransaction("t2", "Salary", 1000, "2024-03-02")
	if err := store.CreateTransaction(ctx, &tagged); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if err := store.CreateTransaction(ctx, &untagged); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	detached, err := store.DetachCategoryFromTransactions(ctx, cat.ID)
	if err != nil {
		t.Fatalf("DetachCategoryFromTransactions failed: %v", err)
	}
	if detached != 1 {
		t.Errorf("Expected 1 detached transaction, got %d", detached)
	}

	got, err := store.GetTransactionByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTransactionByID failed: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("Expected nil category ID after detach, got %v", *got.CategoryID)
	}
	if got.CategoryName != "" {
		t.Errorf("Expected empty category name after detach, got %q", got.CategoryName)
	}
}

func TestSQLiteStorage_TransactionJoinsCategoryName(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Travel")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	txn := testTransaction("t1", "Train ticket", -45, "2024-04-01")
	txn.CategoryID = &cat.ID
	if err := store.CreateTransaction(ctx, &txn); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	got, err := store.GetTransactionByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTransactionByID failed: %v", err)
	}
	if got.CategoryName != "Travel" {
		t.Errorf("Expected category name Travel, got %q", got.CategoryName)
	}
	if got.CategoryID == nil || *got.CategoryID != cat.ID {
		t.Errorf("Expected category ID %d, got %v", cat.ID, got.CategoryID)
	}

	byCat, err := store.GetTransactionsByCategoryID(ctx, cat.ID)
	if err != nil {
		t.Fatalf("GetTransactionsByCategoryID failed: %v", err)
	}
	if len(byCat) != 1 || byCat[0].ID != "t1" {
		t.Errorf("Expected [t1] for category %d, got %v", cat.ID, byCat)
	}
}
