// Package model defines the core domain entities for the ledger.
package model

import "time"

// MaxCategoryNameLen is the longest name a category may carry.
const MaxCategoryNameLen = 80

// Category represents a transaction category. Names are unique under
// case-insensitive comparison.
type Category struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}
