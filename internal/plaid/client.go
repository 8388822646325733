// Package plaid pulls bank transactions into the ledger through the
// Plaid API. The Link flow mints an access token; Transactions pages
// through /transactions/get with that token.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/service"
)

const (
	dateLayout = "2006-01-02"
	// Plaid caps /transactions/get at 500 rows per page.
	pageSize = int32(500)
)

// Config carries the Plaid credentials and environment selection.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate reports the first missing field. Unlike NewClient it also
// requires an access token, so sync can refuse to run before an
// account is linked.
func (c *Config) Validate() error {
	if err := c.checkCredentials(); err != nil {
		return err
	}
	if c.AccessToken == "" {
		return fmt.Errorf("plaid access token is required")
	}
	return nil
}

func (c *Config) checkCredentials() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("plaid client ID is required")
	case c.Secret == "":
		return fmt.Errorf("plaid secret is required")
	case c.Environment == "":
		return fmt.Errorf("plaid environment is required")
	}
	_, err := environmentFor(c.Environment)
	return err
}

func environmentFor(name string) (plaid.Environment, error) {
	switch name {
	case "sandbox":
		return plaid.Sandbox, nil
	case "production":
		return plaid.Production, nil
	default:
		return "", fmt.Errorf("invalid Plaid environment: must be sandbox or production")
	}
}

// Client talks to one Plaid item on behalf of the sync and link
// commands.
type Client struct {
	api         *plaid.APIClient
	logger      *slog.Logger
	retry       service.RetryOptions
	accessToken string
	environment string
}

var _ Fetcher = (*Client)(nil)

// NewClient builds a Client from cfg. The access token may be empty for
// the Link flow; Transactions requires it.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.checkCredentials(); err != nil {
		return nil, err
	}
	env, _ := environmentFor(cfg.Environment)

	apiCfg := plaid.NewConfiguration()
	apiCfg.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	apiCfg.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	apiCfg.UseEnvironment(env)

	return &Client{
		api:         plaid.NewAPIClient(apiCfg),
		accessToken: cfg.AccessToken,
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Transactions fetches every transaction dated within [from, to],
// paging until a short page arrives.
func (c *Client) Transactions(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if from.After(to) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", from.Format(dateLayout),
		"end_date", to.Format(dateLayout))

	var fetched []plaid.Transaction
	for offset := int32(0); ; offset += pageSize {
		page, err := c.transactionPage(ctx, from, to, offset)
		if err != nil {
			return nil, err
		}

		fetched = append(fetched, page...)
		if len(page) < int(pageSize) {
			break
		}
	}

	c.logger.Info("Fetched all transactions", "count", len(fetched))

	out := make([]model.Transaction, 0, len(fetched))
	for _, pt := range fetched {
		out = append(out, c.toLedgerTransaction(pt))
	}
	return out, nil
}

// transactionPage fetches one page, retrying transient API failures.
func (c *Client) transactionPage(ctx context.Context, from, to time.Time, offset int32) ([]plaid.Transaction, error) {
	var page []plaid.Transaction

	err := common.WithRetry(ctx, func() error {
		req := plaid.NewTransactionsGetRequest(c.accessToken, from.Format(dateLayout), to.Format(dateLayout))
		req.SetOptions(plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		})

		resp, _, err := c.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
		if err != nil {
			return c.classify(err, "fetch transactions")
		}

		page = resp.GetTransactions()
		c.logger.Debug("Fetched transaction page",
			"count", len(page),
			"offset", offset,
			"total", resp.GetTotalTransactions())
		return nil
	}, c.retry)

	return page, err
}

// Accounts returns the account IDs behind the access token. The link
// command uses it to sanity-check a freshly exchanged token.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	var ids []string
	err := common.WithRetry(ctx, func() error {
		req := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
		if err != nil {
			return c.classify(err, "fetch accounts")
		}

		accounts := resp.GetAccounts()
		ids = make([]string, 0, len(accounts))
		for _, account := range accounts {
			ids = append(ids, account.GetAccountId())
		}
		return nil
	}, c.retry)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched accounts", "count", len(ids))
	return ids, nil
}

// CreateLinkToken mints a Link token for the browser flow.
func (c *Client) CreateLinkToken(ctx context.Context) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: "tally-user-" + time.Now().Format("20060102150405"),
	}

	req := plaid.NewLinkTokenCreateRequest(
		"Tally Budget Tracker",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		user,
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	// OAuth banks require a redirect URI matching the Plaid dashboard.
	if c.environment == "production" {
		req.SetRedirectUri("https://localhost:8080/")
	}

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", c.classify(err, "create link token")
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken swaps the public token from a completed Link flow
// for the long-lived access token and its item ID.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", "", c.classify(err, "exchange public token")
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

// classify maps an SDK error onto retry semantics: rate limits and
// Plaid server errors stay retryable, other API errors are permanent
// because repeating a rejected request cannot help, and transport
// errors keep the default retryable treatment.
func (c *Client) classify(err error, action string) error {
	plaidErr := extractPlaidError(err)
	if plaidErr == nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	switch plaidErr.ErrorCode {
	case "RATE_LIMIT_EXCEEDED":
		c.logger.Warn("Plaid rate limit hit", "error", plaidErr.ErrorMessage)
		return fmt.Errorf("%w: %s", common.ErrRateLimit, plaidErr.ErrorMessage)
	case "INTERNAL_SERVER_ERROR":
		c.logger.Warn("Plaid server error", "error", plaidErr.ErrorMessage)
		return fmt.Errorf("plaid server error: %s", plaidErr.ErrorMessage)
	default:
		return common.Permanent(fmt.Errorf("plaid API error: %s - %s", plaidErr.ErrorCode, plaidErr.ErrorMessage))
	}
}

// extractPlaidError pulls the structured Plaid error out of an SDK
// error, nil when the failure never reached the API.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// toLedgerTransaction converts one Plaid row. Plaid reports positive
// amounts for money leaving the account, so the sign flips to match
// the positive-income / negative-expense convention. The ID stays
// empty; the ledger assigns one on import.
func (c *Client) toLedgerTransaction(pt plaid.Transaction) model.Transaction {
	date, err := time.Parse(dateLayout, pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		now := time.Now().UTC()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	// Merchant name is usually cleaner than the raw statement name.
	description := pt.GetMerchantName()
	if description == "" {
		description = pt.GetName()
	}

	amount := -pt.GetAmount()

	return model.Transaction{
		Description: cleanDescription(description),
		Amount:      amount,
		Date:        date,
		ImportHash:  model.GenerateImportHash(pt.GetTransactionId(), pt.GetAccountId(), date, amount),
	}
}

// cleanDescription collapses whitespace and strips the trailing
// reference number banks tack onto statement names.
func cleanDescription(name string) string {
	words := strings.Fields(name)
	if n := len(words); n > 1 && looksLikeReference(words[n-1]) {
		words = words[:n-1]
	}
	return strings.Join(words, " ")
}

// looksLikeReference reports whether word is a digit run long enough to
// be a bank reference rather than part of the merchant name.
func looksLikeReference(word string) bool {
	if len(word) <= 5 {
		return false
	}
	return !strings.ContainsFunc(word, func(r rune) bool {
		return r < '0' || r > '9'
	})
}
