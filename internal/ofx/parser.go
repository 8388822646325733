// Package ofx parses OFX/QFX bank statement files into ledger transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/dollarsandsense/tally/internal/model"
)

var (
	// Banks emit SEVERITY in whatever case they feel like; the parser
	// requires INFO, WARN, or ERROR.
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)

	// SGML-style files sometimes leave an opening tag unclosed at the end
	// of a line.
	bareTagRe = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// normalize repairs the formatting quirks real bank exports ship with so
// ofxgo can parse them.
func normalize(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return bareTagRe.ReplaceAllString(content, "$1>")
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses an OFX/QFX file and returns transactions ready for
// import. IDs are left empty; the ledger assigns them on insert.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(normalize(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		bankStmts++
		transactions = append(transactions,
			p.listTransactions(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		ccStmts++
		transactions = append(transactions,
			p.listTransactions(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// listTransactions converts one statement's transaction list. Bank and
// credit card statements share the list shape, only the account field
// differs.
func (p *Parser) listTransactions(list *ofxgo.TransactionList, accountID string) []model.Transaction {
	if list == nil {
		return nil
	}

	transactions := make([]model.Transaction, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		transactions = append(transactions, p.toTransaction(ofxTx, accountID))
	}
	return transactions
}

// toTransaction maps one OFX statement line onto the ledger model. OFX
// amounts already carry the right sign (negative for debits), so they fit
// the positive-income / negative-expense convention unchanged.
func (p *Parser) toTransaction(ofxTx ofxgo.Transaction, accountID string) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	// Day precision; statement timestamps are bank-local noise
	posted := ofxTx.DtPosted.Time
	date := time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC)

	return model.Transaction{
		Description: p.describe(ofxTx),
		Amount:      amount,
		Date:        date,
		ImportHash:  model.GenerateImportHash(string(ofxTx.FiTID), accountID, date, amount),
	}
}

// describe builds a readable description from the OFX name, payee and memo
// fields.
func (p *Parser) describe(ofxTx ofxgo.Transaction) string {
	name := strings.TrimSpace(string(ofxTx.Name))
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		// PAYEE is usually the cleaner merchant name
		name = strings.TrimSpace(string(ofxTx.Payee.Name))
	}

	memo := strings.TrimSpace(string(ofxTx.Memo))
	switch {
	case name == "":
		return memo
	case memo == "" || strings.EqualFold(memo, name):
		return name
	default:
		return name + " " + memo
	}
}
