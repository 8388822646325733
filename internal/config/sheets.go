package config

import (
	"os"
	"path/filepath"

	"github.com/dollarsandsense/tally/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig assembles the Google Sheets configuration. Viper keys
// (config file or TALLY_ variables) win over the GOOGLE_SHEETS_* fallback
// variables; both beat the built-in defaults.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	settings := []struct {
		field    *string
		viperKey string
		envVar   string
		isPath   bool
	}{
		{&config.ServiceAccountPath, "sheets.service_account_path", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", true},
		{&config.ClientID, "sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID", false},
		{&config.ClientSecret, "sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET", false},
		{&config.RefreshToken, "sheets.refresh_token", "GOOGLE_SHEETS_REFRESH_TOKEN", false},
		{&config.SpreadsheetID, "sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID", false},
		{&config.TokenFile, "sheets.token_file", "", true},
	}

	for _, s := range settings {
		value := viper.GetString(s.viperKey)
		if value == "" && *s.field == "" && s.envVar != "" {
			value = os.Getenv(s.envVar)
		}
		if value == "" {
			continue
		}
		if s.isPath {
			value = ExpandPath(value)
		}
		*s.field = value
	}

	// The spreadsheet name always has a default, so the environment
	// fallback applies whenever viper stays silent.
	if v := viper.GetString("sheets.spreadsheet_name"); v != "" {
		config.SpreadsheetName = v
	} else if v := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); v != "" {
		config.SpreadsheetName = v
	}

	// Interactive tokens live next to the config file.
	if config.TokenFile == "" {
		config.TokenFile = filepath.Join(Dir(), "sheets-token.json")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
