package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// MaxDescriptionLen is the longest description a transaction may carry.
// Longer input is truncated, not rejected.
const MaxDescriptionLen = 200

// Transaction represents a single ledger entry. Amounts are signed:
// positive for income, negative for expenses.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	ID          string
	Description string
	// CategoryName is populated on reads via a join; it is never written
	// back to storage. Empty when the transaction has no category.
	CategoryName string
	// ImportHash is a source-derived deduplication key for imported
	// transactions. Empty for manually entered ones.
	ImportHash string
	CategoryID *int64
	Amount     float64
}

// GenerateImportHash creates a stable hash for duplicate detection of
// imported transactions, derived from the source transaction identity.
func GenerateImportHash(sourceID, accountID string, date time.Time, amount float64) string {
	data := fmt.Sprintf("%s:%s:%s:%.2f",
		sourceID,
		accountID,
		date.Format("2006-01-02"),
		amount)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
