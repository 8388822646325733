package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
)

// GetTotals returns the ledger-wide income and expense sums in a single pass.
// Income sums positive amounts, expenses sums negative ones, so Expenses is
// zero or negative.
func (s *SQLiteStorage) GetTotals(ctx context.Context) (model.Totals, error) {
	if err := requireContext(ctx); err != nil {
		return model.Totals{}, err
	}
	return s.getTotalsTx(ctx, s.db)
}

func (s *SQLiteStorage) getTotalsTx(ctx context.Context, q queryable) (model.Totals, error) {
	var totals model.Totals
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN amount > 0 THEN amount END), 0),
		       COALESCE(SUM(CASE WHEN amount < 0 THEN amount END), 0)
		FROM transactions
	`).Scan(&totals.Income, &totals.Expenses)
	if err != nil {
		return model.Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}

	return totals, nil
}

// SumAmountsByMonth returns the net transaction amount per calendar month,
// keyed by YYYY-MM, for dates in [from, to). Months without transactions are
// absent from the map.
func (s *SQLiteStorage) SumAmountsByMonth(ctx context.Context, from, to time.Time) (map[string]float64, error) {
	if err := requireContext(ctx); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, to, from)
	}
	return s.sumAmountsByMonthTx(ctx, s.db, from, to)
}

func (s *SQLiteStorage) sumAmountsByMonthTx(ctx context.Context, q queryable, from, to time.Time) (map[string]float64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT strftime('%Y-%m', date) AS month, SUM(amount) AS total
		FROM transactions
		WHERE date >= ? AND date < ?
		GROUP BY month
	`, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sums: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sums := make(map[string]float64)
	for rows.Next() {
		var month sql.NullString
		var total float64
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sum: %w", err)
		}
		if month.Valid {
			sums[month.String] = total
		}
	}

	return sums, rows.Err()
}
