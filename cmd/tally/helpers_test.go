package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/dollarsandsense/tally/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		amount float64
	}{
		{name: "income", want: "$2500.00", amount: 2500.0},
		{name: "expense", want: "-$82.50", amount: -82.5},
		{name: "zero", want: "$0.00", amount: 0},
		{name: "sub-dollar expense", want: "-$0.99", amount: -0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMoney(tt.amount))
		})
	}
}

func TestLookupCategory(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	groceries := testutil.SeedCategory(t, store, "Groceries")

	t.Run("by numeric id", func(t *testing.T) {
		got, err := lookupCategory(ctx, store, fmt.Sprintf("%d", groceries.ID))
		require.NoError(t, err)
		assert.Equal(t, "Groceries", got.Name)
	})

	t.Run("by name ignoring case", func(t *testing.T) {
		got, err := lookupCategory(ctx, store, "groceries")
		require.NoError(t, err)
		assert.Equal(t, groceries.ID, got.ID)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := lookupCategory(ctx, store, "Vacations")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := lookupCategory(ctx, store, "9999")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestResolveCategoryFlag(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	rent := testutil.SeedCategory(t, store, "Rent")

	ref, err := resolveCategoryFlag(ctx, store, "rent")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(rent.ID, 10), ref)

	ref, err = resolveCategoryFlag(ctx, store, "")
	require.NoError(t, err)
	assert.Empty(t, ref)
}
