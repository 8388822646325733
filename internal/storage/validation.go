// Package storage provides the SQLite persistence layer for the ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
)

// Parameter errors, reported before any SQL runs.
var (
	ErrNilContext         = errors.New("nil context")
	ErrBlankParameter     = errors.New("parameter is blank")
	ErrNilParameter       = errors.New("parameter is nil")
	ErrEmptyBatch         = errors.New("batch is empty")
	ErrInvalidLimit       = errors.New("limit must be positive")
	ErrInvalidDateRange   = errors.New("date range ends before it starts")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

func requireContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func requireNonEmpty(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrBlankParameter, paramName)
	}
	return nil
}

func requireLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}

// requireTransaction checks the fields storage relies on. Amount and
// description rules belong to the ledger service, not here.
func requireTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	switch {
	case txn.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	case txn.Date.IsZero():
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	return nil
}

func requireTransactions(txns []model.Transaction) error {
	if txns == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(txns) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptyBatch)
	}

	for i := range txns {
		if err := requireTransaction(&txns[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// requireRowChanged maps a zero-row write to common.ErrNotFound.
func requireRowChanged(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return common.ErrNotFound
	}
	return nil
}
