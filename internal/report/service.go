// Package report derives read-only aggregates from the ledger: overall
// income and expense totals, a trailing monthly trend, and recent activity.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/service"
)

// TrendMonths is the number of calendar months covered by the trend window.
const TrendMonths = 6

const monthLayout = "2006-01"

// Service computes aggregates over stored transactions. All operations are
// read-only and return zero values rather than errors on an empty ledger.
type Service struct {
	storage service.Storage
}

// New creates a new report service.
func New(storage service.Storage) *Service {
	return &Service{storage: storage}
}

// Totals returns ledger-wide income and expense sums. Income is the sum of
// positive amounts, Expenses the sum of negative ones (zero or negative,
// never a magnitude).
func (s *Service) Totals(ctx context.Context) (model.Totals, error) {
	totals, err := s.storage.GetTotals(ctx)
	if err != nil {
		return model.Totals{}, fmt.Errorf("failed to compute totals: %w", err)
	}
	return totals, nil
}

// MonthlyTrend returns the net amount per month for the window ending at the
// current month.
func (s *Service) MonthlyTrend(ctx context.Context) (model.Trend, error) {
	return s.MonthlyTrendAt(ctx, time.Now())
}

// MonthlyTrendAt computes the trend for the window ending at now's calendar
// month: exactly TrendMonths points in chronological order, one per month,
// labelled YYYY-MM. Months without transactions carry 0. Month arithmetic
// rolls over year boundaries.
func (s *Service) MonthlyTrendAt(ctx context.Context, now time.Time) (model.Trend, error) {
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(TrendMonths - 1), 0)
	windowEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	sums, err := s.storage.SumAmountsByMonth(ctx, windowStart, windowEnd)
	if err != nil {
		return model.Trend{}, fmt.Errorf("failed to compute monthly trend: %w", err)
	}

	points := make([]model.TrendPoint, 0, TrendMonths)
	for i := 0; i < TrendMonths; i++ {
		label := windowStart.AddDate(0, i, 0).Format(monthLayout)
		points = append(points, model.TrendPoint{
			Month: label,
			Total: sums[label],
		})
	}

	return model.Trend{Points: points}, nil
}

// Recent returns the limit most recent transactions, newest date first. A
// non-positive limit yields an empty slice.
func (s *Service) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		return []model.Transaction{}, nil
	}

	txns, err := s.storage.GetRecentTransactions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}
	return txns, nil
}
