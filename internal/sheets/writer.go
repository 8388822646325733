package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/service"
)

// Writer exports the ledger to a Google Sheets spreadsheet.
type Writer struct {
	api    *sheets.Service
	logger *slog.Logger
	cfg    Config
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, cfg Config, logger *slog.Logger) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := newSheetsAPI(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{api: api, cfg: cfg, logger: logger}, nil
}

// Write exports the data into the Transactions and Summary tabs, clearing
// each tab before writing.
func (w *Writer) Write(ctx context.Context, data ExportData) error {
	w.logger.Info("starting spreadsheet export",
		"transactions", len(data.Transactions),
		"trend_months", len(data.Trend.Points))

	spreadsheetID, err := w.resolveSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	tabs, err := w.ensureTabs(ctx, spreadsheetID)
	if err != nil {
		return fmt.Errorf("failed to prepare tabs: %w", err)
	}

	txRows := transactionRows(data.Transactions)
	sumRows := summaryRows(data)

	for _, tab := range []struct {
		name   string
		values [][]any
	}{
		{transactionsTab, txRows},
		{summaryTab, sumRows},
	} {
		if clearErr := w.clearTab(ctx, spreadsheetID, tab.name); clearErr != nil {
			return fmt.Errorf("failed to clear %s tab: %w", tab.name, clearErr)
		}

		err = common.WithRetry(ctx, func() error {
			return w.writeTab(ctx, spreadsheetID, tab.name, tab.values)
		}, w.retryOptions())
		if err != nil {
			return fmt.Errorf("failed to write %s tab: %w", tab.name, err)
		}
	}

	if w.cfg.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, tabs, len(txRows), len(sumRows))
		}, w.retryOptions())
		if err != nil {
			// Data is already in place; formatting is cosmetic
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("spreadsheet export completed",
		"spreadsheet_id", spreadsheetID,
		"transaction_rows", len(txRows),
		"summary_rows", len(sumRows))

	return nil
}

func (w *Writer) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  w.cfg.RetryAttempts,
		InitialDelay: w.cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// newSheetsAPI builds the Sheets client around whichever credential the
// config carries.
func newSheetsAPI(ctx context.Context, cfg Config) (*sheets.Service, error) {
	source, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, source)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return api, nil
}

// tokenSource picks credentials in order: service account key, stored
// refresh token, then the cached-or-interactive OAuth flow.
func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	if cfg.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}

	if cfg.RefreshToken != "" {
		seed := &oauth2.Token{RefreshToken: cfg.RefreshToken, TokenType: "Bearer"}
		return oauthConfig.TokenSource(ctx, seed), nil
	}

	auth := Authenticator{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenFile:    cfg.TokenFile,
	}
	token, err := auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth2 flow failed: %w", err)
	}
	return oauthConfig.TokenSource(ctx, token), nil
}

// resolveSpreadsheet returns the configured spreadsheet, creating a fresh
// one when no ID is set.
func (w *Writer) resolveSpreadsheet(ctx context.Context) (string, error) {
	if id := w.cfg.SpreadsheetID; id != "" {
		// Verify the spreadsheet exists and is accessible
		if _, err := w.api.Spreadsheets.Get(id).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", id, err)
		}
		return id, nil
	}

	created, err := w.api.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.cfg.SpreadsheetName,
			TimeZone: w.cfg.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: transactionsTab}},
			{Properties: &sheets.SheetProperties{Title: summaryTab}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// ensureTabs makes sure both tabs exist and returns their sheet IDs by
// title. Pre-existing spreadsheets may be missing one or both.
func (w *Writer) ensureTabs(ctx context.Context, spreadsheetID string) (map[string]int64, error) {
	spreadsheet, err := w.api.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to inspect spreadsheet: %w", err)
	}

	tabs := make(map[string]int64)
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			tabs[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}

	var requests []*sheets.Request
	for _, title := range []string{transactionsTab, summaryTab} {
		if _, ok := tabs[title]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			})
		}
	}

	if len(requests) == 0 {
		return tabs, nil
	}

	resp, err := w.batchUpdate(ctx, spreadsheetID, requests)
	if err != nil {
		return nil, fmt.Errorf("unable to add missing tabs: %w", err)
	}

	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			tabs[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}

	return tabs, nil
}

func (w *Writer) batchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return w.api.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
}

// clearTab clears all data from one tab.
func (w *Writer) clearTab(ctx context.Context, spreadsheetID, tab string) error {
	tabRange := fmt.Sprintf("%s!A:Z", tab)
	_, err := w.api.Spreadsheets.Values.Clear(spreadsheetID, tabRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// transactionRows prepares the Transactions tab: one header row, then one
// row per transaction in the same field order as the CSV export.
func transactionRows(transactions []model.Transaction) [][]any {
	values := make([][]any, 0, len(transactions)+1)
	values = append(values, []any{"ID", "Description", "Amount", "Date", "Category"})

	for _, txn := range transactions {
		values = append(values, []any{
			txn.ID,
			txn.Description,
			txn.Amount,
			txn.Date.Format("2006-01-02"),
			txn.CategoryName,
		})
	}

	return values
}

// summaryRows prepares the Summary tab: the ledger totals followed by the
// six-month trend.
func summaryRows(data ExportData) [][]any {
	values := make([][]any, 0, 9+len(data.Trend.Points))

	values = append(values,
		[]any{"Tally Summary", time.Now().Format("Jan 2, 2006")},
		[]any{},
		[]any{"Income", data.Totals.Income},
		[]any{"Expenses", data.Totals.Expenses},
		[]any{"Net", data.Totals.Net()},
		[]any{},
		[]any{"Six-Month Trend"},
		[]any{"Month", "Net"},
	)

	for _, point := range data.Trend.Points {
		values = append(values, []any{point.Month, point.Total})
	}

	return values
}

// writeTab writes the values into one tab in batches to stay under API
// limits.
func (w *Writer) writeTab(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	for start := 0; start < len(values); start += w.cfg.BatchSize {
		batch := values[start:min(start+w.cfg.BatchSize, len(values))]

		target := fmt.Sprintf("%s!A%d", tab, start+1)
		_, err := w.api.Spreadsheets.Values.Update(spreadsheetID, target, &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", start+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tab, "start_row", start+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting applies header and currency formatting to both tabs.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tabs map[string]int64, txRows, summaryLen int) error {
	var requests []*sheets.Request

	if txID, ok := tabs[transactionsTab]; ok {
		requests = append(requests,
			boldRow(txID, 5),
			// Amount column
			currencyColumn(txID, 2, int64(txRows)),
			freezeTopRow(txID),
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    txID,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   5,
					},
				},
			},
		)
	}

	if sumID, ok := tabs[summaryTab]; ok {
		requests = append(requests,
			boldRow(sumID, 2),
			currencyColumn(sumID, 1, int64(summaryLen)),
		)
	}

	if len(requests) == 0 {
		return nil
	}

	_, err := w.batchUpdate(ctx, spreadsheetID, requests)
	return err
}

func repeatCell(gridRange *sheets.GridRange, format *sheets.CellFormat, fields string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range:  gridRange,
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		},
	}
}

func boldRow(sheetID, columns int64) *sheets.Request {
	return repeatCell(
		&sheets.GridRange{
			SheetId:        sheetID,
			StartRowIndex:  0,
			EndRowIndex:    1,
			EndColumnIndex: columns,
		},
		&sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
		"userEnteredFormat.textFormat",
	)
}

// currencyColumn formats one column as dollars from the row below the
// header down to lastRow.
func currencyColumn(sheetID, column, lastRow int64) *sheets.Request {
	return repeatCell(
		&sheets.GridRange{
			SheetId:          sheetID,
			StartRowIndex:    1,
			EndRowIndex:      lastRow,
			StartColumnIndex: column,
			EndColumnIndex:   column + 1,
		},
		&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{
			Type:    "CURRENCY",
			Pattern: "$#,##0.00",
		}},
		"userEnteredFormat.numberFormat",
	)
}

func freezeTopRow(sheetID int64) *sheets.Request {
	return &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:        sheetID,
				GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
			},
			Fields: "gridProperties.frozenRowCount",
		},
	}
}
