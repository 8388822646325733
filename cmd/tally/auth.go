package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dollarsandsense/tally/internal/certs"
	"github.com/dollarsandsense/tally/internal/config"
	"github.com/dollarsandsense/tally/internal/plaid"
	"github.com/dollarsandsense/tally/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// linkWait bounds how long the link server stays up waiting for the user
// to finish the browser flow.
const linkWait = 10 * time.Minute

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with external services like Plaid and Google Sheets.`,
	}

	cmd.AddCommand(authPlaidCmd())
	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Link a bank account via Plaid",
		Long: `Link your bank account using Plaid Link.

This command will:
1. Start a local web server
2. Open Plaid Link in your browser
3. Let you connect a bank account
4. Save the access token for 'tally sync'`,
		RunE: runAuthPlaid,
	}

	cmd.Flags().String("env", "", "Plaid environment (sandbox/production)")

	return cmd
}

// linkOutcome carries either a completed link or the error that ended the
// flow, whichever arrives first.
type linkOutcome struct {
	success *plaidLinkSuccess
	err     error
}

type plaidLinkAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type plaidLinkSuccess struct {
	AccessToken     string
	ItemID          string
	InstitutionName string
	Accounts        []plaidLinkAccount
}

func runAuthPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	plaidConfig := config.LoadPlaidConfig()
	if flagEnv, _ := cmd.Flags().GetString("env"); flagEnv != "" {
		plaidConfig.Environment = flagEnv
	}

	if plaidConfig.ClientID == "" || plaidConfig.Secret == "" {
		return fmt.Errorf("plaid credentials missing: add plaid.client_id and plaid.secret to the config file or set PLAID_CLIENT_ID and PLAID_SECRET")
	}

	slog.Info("Starting Plaid Link flow", "environment", plaidConfig.Environment)

	plaidClient, err := plaid.NewClient(plaidConfig)
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	linkToken, err := plaidClient.CreateLinkToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to create link token: %w", err)
	}

	production := plaidConfig.Environment == "production"
	outcomes := make(chan linkOutcome, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", linkPageHandler(linkToken))
	mux.HandleFunc("/exchange", exchangeHandler(ctx, plaidClient, outcomes))

	server := &http.Server{Addr: ":8080", Handler: mux}
	browserURL, err := serveLink(server, production, outcomes)
	if err != nil {
		return err
	}
	defer func() { _ = server.Shutdown(ctx) }()

	slog.Info("Opening your browser to link a bank account...")
	slog.Info("If the browser doesn't open, visit:", "url", browserURL)
	openBrowser(browserURL)

	var result *plaidLinkSuccess
	select {
	case outcome := <-outcomes:
		if outcome.err != nil {
			return outcome.err
		}
		result = outcome.success
	case <-time.After(linkWait):
		return fmt.Errorf("timeout waiting for account connection")
	}

	slog.Info("Successfully linked account", "institution", result.InstitutionName)

	if err := config.SavePlaidAccessToken(result.AccessToken); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	slog.Info("📝 Saved access token to config")

	if len(result.Accounts) > 0 {
		slog.Info("Linked accounts:")
		for _, acc := range result.Accounts {
			slog.Info("  Account", "name", acc.Name, "type", acc.Type)
		}
	}

	slog.Info("🎉 Your bank account is now linked!")
	slog.Info("Run 'tally sync' to import transactions")

	return nil
}

// serveLink starts the link server, over HTTPS with a self-signed localhost
// certificate in production (real banks require it) and plain HTTP in
// sandbox. Returns the URL to open.
func serveLink(server *http.Server, production bool, outcomes chan<- linkOutcome) (string, error) {
	if !production {
		go func() {
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				outcomes <- linkOutcome{err: fmt.Errorf("failed to start server: %w", err)}
			}
		}()

		slog.Info("🏦 Plaid Account Connection (Sandbox)")
		slog.Info("Starting server...")
		return "http://localhost:8080", nil
	}

	certStore := certs.NewStore(filepath.Join(config.Dir(), "certs"))
	cert, err := certStore.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load localhost certificate: %w", err)
	}

	server.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	go func() {
		if err := server.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
			outcomes <- linkOutcome{err: fmt.Errorf("failed to start HTTPS server: %w", err)}
		}
	}()

	slog.Info("🏦 Plaid Account Connection (Production)")
	slog.Info("Starting secure HTTPS server...")
	slog.Info("")
	slog.Info("⚠️  BROWSER SECURITY WARNING EXPECTED")
	slog.Info("Your browser will warn about the self-signed localhost certificate.")
	slog.Info("Click 'Advanced' and proceed to localhost to continue.")
	slog.Info("")
	return "https://localhost:8080", nil
}

// exchangeRequest mirrors the payload Plaid Link posts back on success.
type exchangeRequest struct {
	PublicToken string `json:"public_token"`
	Metadata    struct {
		Institution struct {
			Name string `json:"name"`
			ID   string `json:"institution_id"`
		} `json:"institution"`
		Accounts []plaidLinkAccount `json:"accounts"`
	} `json:"metadata"`
}

// exchangeHandler trades the public token from the browser for a long-lived
// access token and reports the outcome to the waiting command.
func exchangeHandler(ctx context.Context, client *plaid.Client, outcomes chan<- linkOutcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeExchangeResult(w, "Invalid request")
			return
		}

		accessToken, itemID, err := client.ExchangePublicToken(ctx, req.PublicToken)
		if err != nil {
			outcomes <- linkOutcome{err: fmt.Errorf("failed to exchange token: %w", err)}
			writeExchangeResult(w, "Failed to exchange token")
			return
		}

		outcomes <- linkOutcome{success: &plaidLinkSuccess{
			AccessToken:     accessToken,
			ItemID:          itemID,
			InstitutionName: req.Metadata.Institution.Name,
			Accounts:        req.Metadata.Accounts,
		}}
		writeExchangeResult(w, "")
	}
}

func writeExchangeResult(w http.ResponseWriter, errText string) {
	body := map[string]any{"success": errText == ""}
	if errText != "" {
		body["error"] = errText
	}
	_ = json.NewEncoder(w).Encode(body)
}

func linkPageHandler(linkToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprintf(w, linkPage, linkToken)
	}
}

// linkPage hosts Plaid Link locally; the embedded script posts the public
// token back to /exchange.
const linkPage = `<!DOCTYPE html>
<html>
<head>
	<title>Link Your Bank Account - Tally</title>
	<script src="https://cdn.plaid.com/link/v2/stable/link-initialize.js"></script>
	<style>
		body {
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
			margin: 0;
			height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background-color: #f5f5f5;
		}
		.card {
			background: white;
			text-align: center;
			padding: 40px;
			border-radius: 8px;
			box-shadow: 0 2px 10px rgba(0,0,0,0.1);
		}
		h1 { color: #333; margin-bottom: 20px; }
		button {
			background-color: #2ECC71;
			color: white;
			border: none;
			border-radius: 4px;
			padding: 12px 24px;
			font-size: 16px;
			cursor: pointer;
		}
		button:hover { background-color: #27ae60; }
		.error { color: #d32f2f; margin-top: 20px; }
		.success { color: #388e3c; margin-top: 20px; }
	</style>
</head>
<body>
	<div class="card">
		<h1>🧮 Link Your Bank Account</h1>
		<p>Click the button below to securely link your bank account through Plaid.</p>
		<button id="link-button">Link Bank Account</button>
		<div id="message"></div>
	</div>

	<script>
	const message = document.getElementById('message');
	const show = (cls, text) => { message.innerHTML = '<div class="' + cls + '">' + text + '</div>'; };

	const handler = Plaid.create({
		token: '%s',
		onSuccess: (public_token, metadata) => {
			show('success', '🔄 Processing connection...');
			fetch('/exchange', {
				method: 'POST',
				headers: { 'Content-Type': 'application/json' },
				body: JSON.stringify({ public_token, metadata })
			})
			.then(resp => resp.json())
			.then(data => {
				if (data.success) {
					show('success', '✅ Account linked! You can close this window.');
				} else {
					show('error', '❌ ' + (data.error || 'Connection failed'));
				}
			})
			.catch(err => show('error', '❌ Network error: ' + err));
		},
		onExit: (err) => {
			if (err != null) {
				show('error', 'Connection canceled or failed.');
			}
		}
	});

	document.getElementById('link-button').onclick = () => handler.open();
	</script>
</body>
</html>`

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Save the refresh token for future use
3. Update your config file with the token

You'll need to run this once before 'tally export sheets'.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID, clientSecret, err := sheetsCredentials(cmd)
	if err != nil {
		return err
	}

	tokenFile := filepath.Join(config.Dir(), "sheets-token.json")
	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	auth := sheets.Authenticator{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
	}
	token, err := auth.Interactive(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	// Keep the refresh token in the config file so the writer can renew
	// access without the cached token file.
	viper.Set("sheets.refresh_token", token.RefreshToken)

	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		slog.Info("Please add this to your config.yaml manually:")
		slog.Info(fmt.Sprintf("sheets:\n  refresh_token: %q", token.RefreshToken))
	} else {
		slog.Info("Updated config file with refresh token")
		slog.Info("✅ Authentication successful!")
	}

	slog.Info("📊 Google Sheets is now configured.")
	slog.Info("Run 'tally export sheets' to publish your ledger.")

	return nil
}

// sheetsCredentials resolves the OAuth client pair from flags, config, then
// environment.
func sheetsCredentials(cmd *cobra.Command) (string, string, error) {
	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return "", "", fmt.Errorf("OAuth2 credentials not found: set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret")
	}

	return clientID, clientSecret, nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(config.Dir(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o750); err != nil {
		return err
	}
	return viper.WriteConfigAs(configFile)
}

// openBrowser makes a best-effort attempt to open the URL in the default
// browser.
func openBrowser(url string) {
	name, args := browserCommand(runtime.GOOS, url)
	if name == "" {
		return
	}
	if err := exec.Command(name, args...).Start(); err != nil { //nolint:gosec // fixed command, localhost URL
		slog.Debug("Failed to open browser", "error", err)
	}
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "linux":
		return "xdg-open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "", nil
	}
}
