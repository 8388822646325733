// Package sheets provides Google Sheets export for the ledger.
package sheets

import (
	"errors"
	"os"
	"time"
)

// defaultSpreadsheetName labels spreadsheets the writer creates itself.
const defaultSpreadsheetName = "Tally Budget"

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	// OAuth client credentials, or a service account key as the
	// alternative. Exactly one of the two must be configured.
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string

	// Target spreadsheet. An empty ID means look up by name, creating a
	// new spreadsheet when none matches.
	SpreadsheetID   string
	SpreadsheetName string

	TokenFile        string
	TimeZone         string
	BatchSize        int
	RetryAttempts    int
	RetryDelay       time.Duration
	EnableFormatting bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  defaultSpreadsheetName,
		EnableFormatting: true,
		TimeZone:         "America/New_York",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// LoadFromEnv fills in credentials from the standard Google environment
// variables. Useful for CI and for users who already have them exported.
func (c *Config) LoadFromEnv() error {
	for _, v := range []struct {
		dst *string
		env string
	}{
		{&c.ClientID, "GOOGLE_SHEETS_CLIENT_ID"},
		{&c.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET"},
		{&c.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN"},
		{&c.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"},
		{&c.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID"},
	} {
		*v.dst = os.Getenv(v.env)
	}

	if name := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
		c.SpreadsheetName = name
	} else if c.SpreadsheetName == "" {
		c.SpreadsheetName = defaultSpreadsheetName
	}

	if c.ServiceAccountPath == "" && (c.ClientID == "" || c.ClientSecret == "") {
		return errors.New("missing Google Sheets authentication: provide either service account path or OAuth2 credentials")
	}

	return nil
}

// Validate checks if the configuration is valid. A refresh token is not
// required for OAuth2; without one the writer falls back to the
// interactive flow.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case !hasOAuth && !hasServiceAccount:
		return errors.New("no authentication method configured")
	case hasOAuth && hasServiceAccount:
		return errors.New("multiple authentication methods configured; use either OAuth2 or service account")
	case c.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case c.RetryAttempts < 0:
		return errors.New("retry attempts cannot be negative")
	case c.RetryDelay < 0:
		return errors.New("retry delay cannot be negative")
	}

	return nil
}
