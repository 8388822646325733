package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dollarsandsense/tally/internal/storage"
	"github.com/dollarsandsense/tally/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store := testutil.SetupTestDB(t)
	return New(store), store
}

func seedTransaction(t *testing.T, store *storage.SQLiteStorage, id string, amount float64, date string) {
	t.Helper()
	testutil.SeedTransaction(t, store, id, amount, date)
}

func TestTotals(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	t.Run("empty ledger yields zeros", func(t *testing.T) {
		totals, err := svc.Totals(ctx)
		require.NoError(t, err)
		assert.Zero(t, totals.Income)
		assert.Zero(t, totals.Expenses)
		assert.Zero(t, totals.Net())
	})

	t.Run("mixed amounts", func(t *testing.T) {
		seedTransaction(t, store, "t1", 1000, "2024-03-01")
		seedTransaction(t, store, "t2", -250.50, "2024-03-02")
		seedTransaction(t, store, "t3", -49.50, "2024-03-03")
		seedTransaction(t, store, "t4", 20, "2024-03-04")

		totals, err := svc.Totals(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 1020, totals.Income, 1e-9)
		assert.InDelta(t, -300, totals.Expenses, 1e-9)
		assert.InDelta(t, 720, totals.Net(), 1e-9)
	})
}

func TestMonthlyTrendAt_WindowShape(t *testing.T) {
	svc, _ := newTestService(t)

	trend, err := svc.MonthlyTrendAt(context.Background(), time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, trend.Points, TrendMonths)

	wantLabels := []string{"2024-02", "2024-03", "2024-04", "2024-05", "2024-06", "2024-07"}
	assert.Equal(t, wantLabels, trend.Labels())
	for _, point := range trend.Points {
		assert.Zero(t, point.Total)
	}
}

func TestMonthlyTrendAt_YearRollover(t *testing.T) {
	svc, _ := newTestService(t)

	// A March anchor reaches back into the previous year.
	trend, err := svc.MonthlyTrendAt(context.Background(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	wantLabels := []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"}
	assert.Equal(t, wantLabels, trend.Labels())
}

func TestMonthlyTrendAt_Sums(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Inside the window anchored at 2024-06.
	seedTransaction(t, store, "t1", 1000, "2024-01-05")
	seedTransaction(t, store, "t2", -400, "2024-01-20")
	seedTransaction(t, store, "t3", -60, "2024-06-01")
	seedTransaction(t, store, "t4", -15, "2024-06-30")
	// Outside the window.
	seedTransaction(t, store, "t5", 9999, "2023-12-31")
	seedTransaction(t, store, "t6", 9999, "2024-07-01")

	trend, err := svc.MonthlyTrendAt(ctx, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}, trend.Labels())
	assert.InDelta(t, 600, trend.Points[0].Total, 1e-9)
	assert.Zero(t, trend.Points[1].Total)
	assert.Zero(t, trend.Points[2].Total)
	assert.Zero(t, trend.Points[3].Total)
	assert.Zero(t, trend.Points[4].Total)
	assert.InDelta(t, -75, trend.Points[5].Total, 1e-9)

	data := trend.Data()
	require.Len(t, data, TrendMonths)
	assert.InDelta(t, 600, data[0], 1e-9)
	assert.InDelta(t, -75, data[5], 1e-9)
}

func TestRecent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		seedTransaction(t, store, fmt.Sprintf("t%d", i), float64(i), fmt.Sprintf("2024-03-%02d", i))
	}

	t.Run("returns newest first up to limit", func(t *testing.T) {
		txns, err := svc.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "t4", txns[0].ID)
		assert.Equal(t, "t3", txns[1].ID)
	})

	t.Run("limit larger than ledger", func(t *testing.T) {
		txns, err := svc.Recent(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, txns, 4)
	})

	t.Run("non-positive limit yields empty slice", func(t *testing.T) {
		for _, limit := range []int{0, -1} {
			txns, err := svc.Recent(ctx, limit)
			require.NoError(t, err)
			assert.Empty(t, txns)
			assert.NotNil(t, txns)
		}
	})
}
