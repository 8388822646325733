package plaid

import (
	"context"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
)

// Fetcher is the seam between the sync command and the Plaid API,
// narrow enough to stub out in command tests.
type Fetcher interface {
	Transactions(ctx context.Context, from, to time.Time) ([]model.Transaction, error)
	Accounts(ctx context.Context) ([]string, error)
}
