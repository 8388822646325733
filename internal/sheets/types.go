package sheets

import (
	"github.com/dollarsandsense/tally/internal/model"
)

// Tab names within the exported spreadsheet.
const (
	transactionsTab = "Transactions"
	summaryTab      = "Summary"
)

// ExportData holds everything the writer puts into the spreadsheet: the
// full transaction list for the Transactions tab and the derived numbers
// for the Summary tab.
type ExportData struct {
	Transactions []model.Transaction
	Totals       model.Totals
	Trend        model.Trend
}
