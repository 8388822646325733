package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dollarsandsense/tally/internal/plaid"
	"github.com/spf13/viper"
)

// LoadPlaidConfig loads Plaid configuration from Viper and environment
// variables. It follows this precedence:
// 1. Viper configuration (from config file or TALLY_ env vars)
// 2. Direct environment variables (PLAID_*)
// 3. Default values
//
// The result is not validated: the Link flow runs without an access
// token, so callers that need one must call Validate themselves.
func LoadPlaidConfig() plaid.Config {
	config := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}

	if config.ClientID == "" {
		config.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if config.Secret == "" {
		config.Secret = os.Getenv("PLAID_SECRET")
	}
	if config.Environment == "" {
		config.Environment = os.Getenv("PLAID_ENVIRONMENT")
	}
	if config.AccessToken == "" {
		config.AccessToken = os.Getenv("PLAID_ACCESS_TOKEN")
	}

	if config.Environment == "" {
		config.Environment = "sandbox"
	}

	return config
}

// SavePlaidAccessToken persists the access token into the config file so
// later sync runs pick it up without re-linking.
func SavePlaidAccessToken(token string) error {
	viper.Set("plaid.access_token", token)

	if err := viper.WriteConfig(); err == nil {
		return nil
	}

	// No config file yet; create the default one
	path := filepath.Join(Dir(), "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
