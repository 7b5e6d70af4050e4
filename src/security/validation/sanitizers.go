package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictHTMLPolicy removes every tag and attribute.
var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips HTML from provider-supplied text (fund names and
// descriptions) before it is stored or served.
func SanitizeText(s string) string {
	return strings.TrimSpace(strictHTMLPolicy.Sanitize(StripUnprintable(s)))
}

// SanitizeForFormulaInjection prefixes a single quote when a CSV cell would
// start with a spreadsheet formula trigger.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
