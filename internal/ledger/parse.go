package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dollarsandsense/tally/internal/common"
	"github.com/dollarsandsense/tally/internal/model"
)

const dateLayout = "2006-01-02"

// parseAmount converts free-form amount text to a number. The input is
// trimmed; empty or unparseable text yields fallback. Never fails.
func parseAmount(raw string, fallback float64) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return value
}

// parseDate parses strict YYYY-MM-DD date text. Empty text yields fallback;
// anything else that fails to parse is ErrInvalidDate.
func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, raw)
	}
	return parsed, nil
}

// normalizeDescription trims surrounding whitespace and caps the length.
func normalizeDescription(raw string) string {
	trimmed := strings.TrimSpace(raw)
	runes := []rune(trimmed)
	if len(runes) > model.MaxDescriptionLen {
		return string(runes[:model.MaxDescriptionLen])
	}
	return trimmed
}
