package plaid

import (
	"context"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
)

// FetchWindow records the date range of one Transactions call.
type FetchWindow struct {
	From time.Time
	To   time.Time
}

// Mock implements Fetcher with canned responses and call recording.
type Mock struct {
	TransactionsFn func(ctx context.Context, from, to time.Time) ([]model.Transaction, error)
	AccountsFn     func(ctx context.Context) ([]string, error)

	TransactionCalls []FetchWindow
	AccountCalls     int
}

var _ Fetcher = (*Mock)(nil)

// Transactions records the window and delegates to TransactionsFn when
// set.
func (m *Mock) Transactions(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	m.TransactionCalls = append(m.TransactionCalls, FetchWindow{From: from, To: to})
	if m.TransactionsFn != nil {
		return m.TransactionsFn(ctx, from, to)
	}
	return nil, nil
}

// Accounts counts the call and delegates to AccountsFn when set.
func (m *Mock) Accounts(ctx context.Context) ([]string, error) {
	m.AccountCalls++
	if m.AccountsFn != nil {
		return m.AccountsFn(ctx)
	}
	return nil, nil
}
