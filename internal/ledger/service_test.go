package ledger

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(testutil.SetupTestDB(t))
}

func TestAddTransaction_AmountParsing(t *testing.T) {
	tests := []struct {
		name       string
		amountText string
		want       float64
	}{
		{name: "plain number", amountText: "100", want: 100},
		{name: "negative decimal", amountText: "-50.5", want: -50.5},
		{name: "surrounding whitespace", amountText: "  100  ", want: 100},
		{name: "empty defaults to zero", amountText: "", want: 0},
		{name: "garbage defaults to zero", amountText: "abc", want: 0},
		{name: "whitespace only defaults to zero", amountText: "   ", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			ctx := context.Background()

			txn, err := svc.AddTransaction(ctx, AddTransactionInput{
				Description: "test",
				Amount:      tt.amountText,
				Date:        "2024-03-15",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, txn.Amount)
		})
	}
}

func TestAddTransaction_DateHandling(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("explicit date", func(t *testing.T) {
		txn, err := svc.AddTransaction(ctx, AddTransactionInput{Amount: "1", Date: "2024-03-15"})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-15", txn.Date.Format(dateLayout))
	})

	t.Run("empty date defaults to today", func(t *testing.T) {
		txn, err := svc.AddTransaction(ctx, AddTransactionInput{Amount: "1"})
		require.NoError(t, err)
		assert.Equal(t, time.Now().Format(dateLayout), txn.Date.Format(dateLayout))
	})

	t.Run("malformed date writes nothing", func(t *testing.T) {
		before, err := svc.ListTransactions(ctx)
		require.NoError(t, err)

		_, err = svc.AddTransaction(ctx, AddTransactionInput{Amount: "1", Date: "not-a-date"})
		require.ErrorIs(t, err, common.ErrInvalidDate)

		after, err := svc.ListTransactions(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("wrong layout rejected", func(t *testing.T) {
		_, err := svc.AddTransaction(ctx, AddTransactionInput{Amount: "1", Date: "15/03/2024"})
		assert.ErrorIs(t, err, common.ErrInvalidDate)
	})
}

func TestAddTransaction_CategoryResolution(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cat, err := svc.AddCategory(ctx, "Food")
	require.NoError(t, err)

	t.Run("resolves existing category", func(t *testing.T) {
		txn, err := svc.AddTransaction(ctx, AddTransactionInput{
			Amount:     "-12.50",
			Date:       "2024-03-15",
			CategoryID: fmt.Sprintf("%d", cat.ID),
		})
		require.NoError(t, err)
		require.NotNil(t, txn.CategoryID)
		assert.Equal(t, cat.ID, *txn.CategoryID)
		assert.Equal(t, "Food", txn.CategoryName)

		stored, err := svc.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "Food", stored.CategoryName)
	})

	t.Run("unknown category fails without writing", func(t *testing.T) {
		before, err := svc.ListTransactions(ctx)
		require.NoError(t, err)

		_, err = svc.AddTransaction(ctx, AddTransactionInput{
			Amount:     "1",
			Date:       "2024-03-15",
			CategoryID: "9999",
		})
		require.ErrorIs(t, err, common.ErrCategoryNotFound)

		after, err := svc.ListTransactions(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("garbage category text fails", func(t *testing.T) {
		_, err := svc.AddTransaction(ctx, AddTransactionInput{
			Amount:     "1",
			Date:       "2024-03-15",
			CategoryID: "not-a-number",
		})
		assert.ErrorIs(t, err, common.ErrCategoryNotFound)
	})

	t.Run("empty category means none", func(t *testing.T) {
		txn, err := svc.AddTransaction(ctx, AddTransactionInput{Amount: "1", Date: "2024-03-15"})
		require.NoError(t, err)
		assert.Nil(t, txn.CategoryID)
	})
}

func TestAddTransaction_DescriptionNormalization(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("trims whitespace", func(t *testing.T) {
		txn, err := svc.AddTransaction(ctx, AddTransactionInput{
			Description: "  Coffee  ",
			Amount:      "-4",
			Date:        "2024-03-15",
		})
		require.NoError(t, err)
		assert.Equal(t, "Coffee", txn.Description)
	})

	t.Run("truncates to maximum length", func(t *testing.T) {
		txn, err := svc.AddTransaction(ctx, AddTransactionInput{
			Description: strings.Repeat("x", model.MaxDescriptionLen+50),
			Amount:      "-4",
			Date:        "2024-03-15",
		})
		require.NoError(t, err)
		assert.Len(t, txn.Description, model.MaxDescriptionLen)
	})
}

func TestEditTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cat, err := svc.AddCategory(ctx, "Rent")
	require.NoError(t, err)

	seed, err := svc.AddTransaction(ctx, AddTransactionInput{
		Description: "Original",
		Amount:      "-100",
		Date:        "2024-03-01",
		CategoryID:  fmt.Sprintf("%d", cat.ID),
	})
	require.NoError(t, err)

	t.Run("garbage amount keeps current value", func(t *testing.T) {
		updated, err := svc.EditTransaction(ctx, seed.ID, EditTransactionInput{
			Description: "Original",
			Amount:      "oops",
			Date:        "2024-03-01",
			CategoryID:  fmt.Sprintf("%d", cat.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, -100.0, updated.Amount)
	})

	t.Run("empty date keeps current date", func(t *testing.T) {
		updated, err := svc.EditTransaction(ctx, seed.ID, EditTransactionInput{
			Amount:     "-100",
			CategoryID: fmt.Sprintf("%d", cat.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", updated.Date.Format(dateLayout))
	})

	t.Run("malformed date fails without writing", func(t *testing.T) {
		_, err := svc.EditTransaction(ctx, seed.ID, EditTransactionInput{
			Amount: "-999",
			Date:   "03/01/2024",
		})
		require.ErrorIs(t, err, common.ErrInvalidDate)

		unchanged, err := svc.GetTransaction(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, -100.0, unchanged.Amount)
	})

	t.Run("empty category clears assignment", func(t *testing.T) {
		updated, err := svc.EditTransaction(ctx, seed.ID, EditTransactionInput{
			Amount: "-100",
			Date:   "2024-03-01",
		})
		require.NoError(t, err)
		assert.Nil(t, updated.CategoryID)
		assert.Empty(t, updated.CategoryName)
	})

	t.Run("unresolvable category clears instead of failing", func(t *testing.T) {
		withCat, err := svc.EditTransaction(ctx, seed.ID, EditTransactionInput{
			Amount:     "-100",
			Date:       "2024-03-01",
			CategoryID: fmt.Sprintf("%d", cat.ID),
		})
		require.NoError(t, err)
		require.NotNil(t, withCat.CategoryID)

		updated, err := svc.EditTransaction(ctx, seed.ID, EditTransactionInput{
			Amount:     "-100",
			Date:       "2024-03-01",
			CategoryID: "9999",
		})
		require.NoError(t, err)
		assert.Nil(t, updated.CategoryID)

		stored, err := svc.GetTransaction(ctx, seed.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CategoryID)
	})

	t.Run("missing transaction", func(t *testing.T) {
		_, err := svc.EditTransaction(ctx, "ghost", EditTransactionInput{Amount: "1"})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestDeleteTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	txn, err := svc.AddTransaction(ctx, AddTransactionInput{Amount: "5", Date: "2024-03-15"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, txn.ID))

	_, err = svc.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = svc.DeleteTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAddCategory_Validation(t *testing.T) {
	tests := []struct {
		wantErr  error
		name     string
		input    string
		wantName string
	}{
		{name: "plain name", input: "Groceries", wantName: "Groceries"},
		{name: "trims whitespace", input: "  Bills  ", wantName: "Bills"},
		{name: "empty name", input: "", wantErr: common.ErrEmptyName},
		{name: "whitespace only", input: "   ", wantErr: common.ErrEmptyName},
		{name: "too long", input: strings.Repeat("x", model.MaxCategoryNameLen+1), wantErr: common.ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)

			cat, err := svc.AddCategory(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, cat.Name)
		})
	}
}

func TestAddCategory_DuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCategory(ctx, "Food")
	require.NoError(t, err)

	_, err = svc.AddCategory(ctx, "Food")
	assert.ErrorIs(t, err, common.ErrDuplicateName)

	// Case differences do not make a new category.
	_, err = svc.AddCategory(ctx, "FOOD")
	assert.ErrorIs(t, err, common.ErrDuplicateName)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestDeleteCategory_DetachesTransactions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cat, err := svc.AddCategory(ctx, "Dining")
	require.NoError(t, err)

	first, err := svc.AddTransaction(ctx, AddTransactionInput{
		Amount: "-20", Date: "2024-03-01", CategoryID: fmt.Sprintf("%d", cat.ID),
	})
	require.NoError(t, err)
	second, err := svc.AddTransaction(ctx, AddTransactionInput{
		Amount: "-35", Date: "2024-03-02", CategoryID: fmt.Sprintf("%d", cat.ID),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	_, err = svc.GetCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Transactions survive with the reference cleared.
	for _, id := range []string{first.ID, second.ID} {
		txn, err := svc.GetTransaction(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, txn.CategoryID)
		assert.Empty(t, txn.CategoryName)
	}
}

func TestDeleteCategory_NotFound(t *testing.T) {
	svc := newTestService(t)

	err := svc.DeleteCategory(context.Background(), 12345)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListTransactions_Ordering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	dates := []string{"2024-02-10", "2024-03-01", "2024-01-05", "2024-03-01"}
	for i, date := range dates {
		_, err := svc.AddTransaction(ctx, AddTransactionInput{
			Description: fmt.Sprintf("txn %d", i),
			Amount:      "1",
			Date:        date,
		})
		require.NoError(t, err)
	}

	txns, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 4)

	for i := 1; i < len(txns); i++ {
		prev, curr := txns[i-1], txns[i]
		assert.False(t, prev.Date.Before(curr.Date), "dates must be descending")
		if prev.Date.Equal(curr.Date) {
			assert.Greater(t, prev.ID, curr.ID, "same-date ties break by ID descending")
		}
	}
}

func TestListCategories_BinaryOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"banana", "Apple", "cherry"} {
		_, err := svc.AddCategory(ctx, name)
		require.NoError(t, err)
	}

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)

	// Ordinal sort puts uppercase first.
	assert.Equal(t, "Apple", cats[0].Name)
	assert.Equal(t, "banana", cats[1].Name)
	assert.Equal(t, "cherry", cats[2].Name)
}

func TestImportTransactions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	batch := []model.Transaction{
		{
			Description: "COFFEE SHOP",
			Amount:      -4.50,
			Date:        date,
			ImportHash:  model.GenerateImportHash("fitid-1", "acct-1", date, -4.50),
		},
		{
			Description: "PAYCHECK",
			Amount:      2500,
			Date:        date,
			ImportHash:  model.GenerateImportHash("fitid-2", "acct-1", date, 2500),
		},
	}

	inserted, err := svc.ImportTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	// Re-importing the same statement inserts nothing.
	rerun := []model.Transaction{
		{
			Description: "COFFEE SHOP",
			Amount:      -4.50,
			Date:        date,
			ImportHash:  model.GenerateImportHash("fitid-1", "acct-1", date, -4.50),
		},
	}
	inserted, err = svc.ImportTransactions(ctx, rerun)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)

	txns, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
	for _, txn := range txns {
		assert.NotEmpty(t, txn.ID, "import assigns IDs")
		assert.False(t, txn.CreatedAt.IsZero())
	}
}

func TestImportTransactions_EmptyBatch(t *testing.T) {
	svc := newTestService(t)

	inserted, err := svc.ImportTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
