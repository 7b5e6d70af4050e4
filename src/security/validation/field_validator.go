package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxTickerLength      = 12
	MaxSearchQueryLength = 100
	MaxWeight            = 100.0
	DateLayout           = "2006-01-02"
)

var tickerRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^]*$`)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(s string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(s))
	if err := ValidateStringNotEmpty(ticker, "ticker"); err != nil {
		return "", err
	}
	if err := ValidateStringMaxLength(ticker, MaxTickerLength, "ticker"); err != nil {
		return "", err
	}
	if err := ValidateStringRegex(ticker, tickerRegex, "ticker", "letters, digits, '.', '-' or '^'"); err != nil {
		return "", err
	}
	return ticker, nil
}

// NormalizeCategory accepts ETF, CEF or empty (all funds), in any case.
func NormalizeCategory(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	switch c {
	case "", models.CategoryETF, models.CategoryCEF:
		return c, nil
	}
	return "", fmt.Errorf("%w: category must be ETF or CEF, got '%s'", ErrValidationFailed, s)
}

// --- Numeric Validators ---

// ValidateFloatString parses a string to float and checks if it's within a range.
// An empty string yields 0 and no error; callers decide whether the field is required.
func ValidateFloatString(s, fieldName string, minVal, maxVal float64) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	if val < minVal || val > maxVal {
		logger.L.Warn("Float value out of range", "field", fieldName, "value", val, "min", minVal, "max", maxVal)
		return 0, fmt.Errorf("%w: %s must be between %.2f and %.2f, got %.2f", ErrValidationFailed, fieldName, minVal, maxVal, val)
	}
	return val, nil
}

// ValidateIntString parses a string to int and checks if it's within a range.
// An empty string yields the fallback.
func ValidateIntString(s, fieldName string, fallback, minVal, maxVal int) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid integer", ErrValidationFailed, fieldName, s)
	}
	if val < minVal || val > maxVal {
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrValidationFailed, fieldName, minVal, maxVal, val)
	}
	return val, nil
}

// --- Date Validator ---

// ValidateDateString checks that s is a real calendar date in YYYY-MM-DD format.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

// --- Ranking ---

// ValidateWeights checks each weight is within 0..100 and the timeframe is
// known. It does not check the sum; the ranking engine reports that.
// An empty timeframe is set to 12mo.
func ValidateWeights(w *models.RankingWeights) error {
	for name, v := range map[string]float64{
		models.CriterionYield:       w.Yield,
		models.CriterionVolatility:  w.Volatility,
		models.CriterionZScore:      w.ZScore,
		models.CriterionTotalReturn: w.TotalReturn,
	} {
		if math.IsNaN(v) || v < 0 || v > MaxWeight {
			return fmt.Errorf("%w: weight %s must be between 0 and 100, got %v", ErrValidationFailed, name, v)
		}
	}
	switch w.Timeframe {
	case "":
		w.Timeframe = models.Timeframe12Mo
	case models.Timeframe3Mo, models.Timeframe6Mo, models.Timeframe12Mo:
	default:
		return fmt.Errorf("%w: timeframe must be one of 3mo, 6mo, 12mo, got '%s'", ErrValidationFailed, w.Timeframe)
	}
	return nil
}

// ValidateSearchQuery trims and bounds a free-text query.
func ValidateSearchQuery(s string) (string, error) {
	q := StripUnprintable(strings.TrimSpace(s))
	if err := ValidateStringNotEmpty(q, "q"); err != nil {
		return "", err
	}
	if err := ValidateStringMaxLength(q, MaxSearchQueryLength, "q"); err != nil {
		return "", err
	}
	if err := ScanSearchQuery(q); err != nil {
		return "", err
	}
	return q, nil
}
