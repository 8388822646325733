package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	callbackAddr = ":8080"
	callbackURL  = "http://localhost:8080/callback"
	consentWait  = 5 * time.Minute
)

// Authenticator drives the OAuth2 consent flow for Google Sheets and
// caches the resulting token on disk.
type Authenticator struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // cached token location, empty disables caching
}

func (a Authenticator) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// Token returns a usable token: the cached one, refreshed when stale,
// or whatever the interactive consent flow produces.
func (a Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	if a.TokenFile != "" {
		if cached, err := LoadToken(a.TokenFile); err == nil {
			slog.Info("Loaded cached Sheets token", "file", a.TokenFile)
			return a.refresh(ctx, cached)
		}
		slog.Info("No cached Sheets token, starting consent flow")
	}
	return a.Interactive(ctx)
}

// Interactive runs the browser consent flow: a localhost callback
// server catches the authorization code, which is then exchanged for a
// token.
func (a Authenticator) Interactive(ctx context.Context) (*oauth2.Token, error) {
	cfg := a.oauthConfig(callbackURL)

	code, err := waitForConsent(ctx, cfg)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	a.cache(token)
	return token, nil
}

// refresh renews an expired token and re-caches the result.
func (a Authenticator) refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token.Valid() {
		return token, nil
	}

	slog.Info("Cached token expired, refreshing")
	fresh, err := a.oauthConfig("").TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	a.cache(fresh)
	return fresh, nil
}

func (a Authenticator) cache(token *oauth2.Token) {
	if a.TokenFile == "" {
		return
	}
	if err := saveToken(a.TokenFile, token); err != nil {
		slog.Warn("Failed to cache Sheets token", "error", err, "file", a.TokenFile)
	}
}

// waitForConsent serves the callback endpoint until Google redirects
// back with an authorization code, the context ends, or the wait times
// out.
func waitForConsent(ctx context.Context, cfg *oauth2.Config) (string, error) {
	codes := make(chan string, 1)
	fails := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			fails <- errors.New("no authorization code received")
			writeConsentPage(w, "Authentication Failed", "No authorization code received. Please try again.")
			return
		}
		codes <- code
		writeConsentPage(w, "Authentication Successful!", "You can close this window and return to the terminal.")
	})

	server := &http.Server{Addr: callbackAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			fails <- fmt.Errorf("failed to start callback server: %w", err)
		}
	}()
	defer func() {
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	// Offline access so Google issues a refresh token.
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	slog.Info("🔐 Google Sheets authorization required")
	slog.Info("Visit this URL to authorize tally", "url", authURL)
	slog.Info("Waiting for the browser consent flow...")

	select {
	case code := <-codes:
		slog.Info("Received authorization code")
		return code, nil
	case err := <-fails:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(consentWait):
		return "", fmt.Errorf("no authorization received within %s", consentWait)
	}
}

func writeConsentPage(w http.ResponseWriter, title, detail string) {
	_, _ = fmt.Fprintf(w, `<html><body>
	<h1>%s</h1>
	<p>%s</p>
	<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`, title, detail)
}

// LoadToken reads a cached OAuth2 token from disk.
func LoadToken(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return &token, nil
}

// saveToken writes the token with owner-only permissions, creating the
// parent directory when needed.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
