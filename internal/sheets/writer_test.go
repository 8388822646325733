package sheets

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dollarsandsense/tally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func sampleExportData() ExportData {
	catID := int64(3)
	return ExportData{
		Transactions: []model.Transaction{
			{
				ID:           "a1",
				Description:  "Paycheck",
				Amount:       2500.00,
				Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				CategoryName: "",
			},
			{
				ID:           "b2",
				Description:  "Groceries",
				Amount:       -82.50,
				Date:         time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
				CategoryID:   &catID,
				CategoryName: "Food",
			},
		},
		Totals: model.Totals{Income: 2500.00, Expenses: -82.50},
		Trend: model.Trend{Points: []model.TrendPoint{
			{Month: "2024-02", Total: 0},
			{Month: "2024-03", Total: 2417.50},
		}},
	}
}

func TestTransactionRows(t *testing.T) {
	data := sampleExportData()
	rows := transactionRows(data.Transactions)

	require.Len(t, rows, 3)
	assert.Equal(t, []any{"ID", "Description", "Amount", "Date", "Category"}, rows[0])
	assert.Equal(t, []any{"a1", "Paycheck", 2500.00, "2024-03-01", ""}, rows[1])
	assert.Equal(t, []any{"b2", "Groceries", -82.50, "2024-03-20", "Food"}, rows[2])
}

func TestTransactionRowsEmptyLedger(t *testing.T) {
	rows := transactionRows(nil)

	require.Len(t, rows, 1) // header only
	assert.Equal(t, []any{"ID", "Description", "Amount", "Date", "Category"}, rows[0])
}

func TestSummaryRows(t *testing.T) {
	data := sampleExportData()
	rows := summaryRows(data)

	require.Len(t, rows, 10)

	assert.Equal(t, "Tally Summary", rows[0][0])
	assert.Equal(t, []any{"Income", 2500.00}, rows[2])
	assert.Equal(t, []any{"Expenses", -82.50}, rows[3])
	assert.Equal(t, []any{"Net", 2417.50}, rows[4])
	assert.Equal(t, []any{"Six-Month Trend"}, rows[6])
	assert.Equal(t, []any{"Month", "Net"}, rows[7])
	assert.Equal(t, []any{"2024-02", 0.0}, rows[8])
	assert.Equal(t, []any{"2024-03", 2417.50}, rows[9])
}

func TestNewWriterRejectsInvalidConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestTokenSaveLoadRoundTrip(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "nested", "token.json")

	token := &oauth2.Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, saveToken(tokenFile, token))

	loaded, err := LoadToken(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, token.TokenType, loaded.TokenType)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestLoadTokenMissingFile(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
