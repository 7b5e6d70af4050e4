package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
)

const (
	// MaxQueryTerms bounds the disjunction a search query expands into.
	MaxQueryTerms = 8
	// MaxQueryWildcards bounds '*' and '?' in a search query.
	MaxQueryWildcards = 2
)

var markupRegex = regexp.MustCompile(
	`(?i)<\s*/?\s*(script|iframe|object|embed|style|link|img|svg)\b|\bon[a-z]+\s*=|javascript:|vbscript:`,
)

func preview(s string) string {
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}

// ScanSearchQuery rejects queries carrying markup or too many terms or
// wildcards for the fund index.
func ScanSearchQuery(q string) error {
	if markupRegex.MatchString(q) {
		logger.L.Warn("Rejected search query with markup", "query", preview(q))
		return fmt.Errorf("%w: q must not contain markup", ErrValidationFailed)
	}
	if n := len(strings.Fields(q)); n > MaxQueryTerms {
		return fmt.Errorf("%w: q has %d terms, at most %d allowed", ErrValidationFailed, n, MaxQueryTerms)
	}
	if n := strings.Count(q, "*") + strings.Count(q, "?"); n > MaxQueryWildcards {
		return fmt.Errorf("%w: q has %d wildcards, at most %d allowed", ErrValidationFailed, n, MaxQueryWildcards)
	}
	return nil
}

// HasMarkup reports whether provider text carried active markup before
// sanitizing. Ingestion logs it per ticker.
func HasMarkup(s string) bool {
	return markupRegex.MatchString(s)
}
