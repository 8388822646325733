// Package export renders ledger data for consumption outside the
// application.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dollarsandsense/tally/internal/model"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{"id", "description", "amount", "date", "category"}

// WriteCSV writes transactions as CSV with a fixed header. Amounts carry two
// decimals, dates are ISO-8601 at day precision, and a missing category is
// an empty string. Rows appear in the order given; callers pass them already
// sorted newest date first.
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range txns {
		record := []string{
			txn.ID,
			txn.Description,
			strconv.FormatFloat(txn.Amount, 'f', 2, 64),
			txn.Date.Format("2006-01-02"),
			txn.CategoryName,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", txn.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
