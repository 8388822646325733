package storage

import (
	"context"
	"math"
	"testing"

	"github.com/dollarsandsense/tally/internal/model"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSQLiteStorage_GetTotals(t *testing.T) {
	tests := []struct {
		name         string
		amounts      []float64
		wantIncome   float64
		wantExpenses float64
	}{
		{
			name:         "empty ledger",
			amounts:      nil,
			wantIncome:   0,
			wantExpenses: 0,
		},
		{
			name:         "mixed amounts",
			amounts:      []float64{1000, -250.50, -49.50, 20},
			wantIncome:   1020,
			wantExpenses: -300,
		},
		{
			name:         "only income",
			amounts:      []float64{100, 200},
			wantIncome:   300,
			wantExpenses: 0,
		},
		{
			name:         "only expenses",
			amounts:      []float64{-10, -15.25},
			wantIncome:   0,
			wantExpenses: -25.25,
		},
		{
			name:         "zero amounts count as neither",
			amounts:      []float64{0, 0, 50},
			wantIncome:   50,
			wantExpenses: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			for i, amount := range tt.amounts {
				txn := testTransaction(
					string(rune('a'+i)),
					"Seed",
					amount,
					"2024-03-15",
				)
				if err := store.CreateTransaction(ctx, &txn); err != nil {
					t.Fatalf("Failed to seed transaction: %v", err)
				}
			}

			totals, err := store.GetTotals(ctx)
			if err != nil {
				t.Fatalf("GetTotals failed: %v", err)
			}
			if !approxEqual(totals.Income, tt.wantIncome) {
				t.Errorf("Expected income %v, got %v", tt.wantIncome, totals.Income)
			}
			if !approxEqual(totals.Expenses, tt.wantExpenses) {
				t.Errorf("Expected expenses %v, got %v", tt.wantExpenses, totals.Expenses)
			}
		})
	}
}

func TestSQLiteStorage_SumAmountsByMonth(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seed := []model.Transaction{
		testTransaction("t1", "January salary", 1000, "2024-01-05"),
		testTransaction("t2", "January rent", -400, "2024-01-31"),
		testTransaction("t3", "March groceries", -60, "2024-03-10"),
		testTransaction("t4", "Outside window", 9999, "2024-06-01"),
		testTransaction("t5", "Before window", -9999, "2023-12-31"),
	}
	for i := range seed {
		if err := store.CreateTransaction(ctx, &seed[i]); err != nil {
			t.Fatalf("Failed to seed transaction: %v", err)
		}
	}

	sums, err := store.SumAmountsByMonth(ctx, mustDate("2024-01-01"), mustDate("2024-06-01"))
	if err != nil {
		t.Fatalf("SumAmountsByMonth failed: %v", err)
	}

	if len(sums) != 2 {
		t.Fatalf("Expected 2 months with data, got %d: %v", len(sums), sums)
	}
	if !approxEqual(sums["2024-01"], 600) {
		t.Errorf("Expected 2024-01 sum 600, got %v", sums["2024-01"])
	}
	if !approxEqual(sums["2024-03"], -60) {
		t.Errorf("Expected 2024-03 sum -60, got %v", sums["2024-03"])
	}
	if _, ok := sums["2024-02"]; ok {
		t.Error("Expected no entry for empty month 2024-02")
	}
}

func TestSQLiteStorage_SumAmountsByMonth_InvalidRange(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.SumAmountsByMonth(context.Background(), mustDate("2024-06-01"), mustDate("2024-01-01"))
	if err == nil {
		t.Error("Expected error for inverted date range")
	}
}
