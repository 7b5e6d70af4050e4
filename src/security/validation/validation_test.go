package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

func TestNormalizeTicker(t *testing.T) {
	got, err := NormalizeTicker("  jepi ")
	require.NoError(t, err)
	assert.Equal(t, "JEPI", got)

	got, err = NormalizeTicker("brk.b")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", got)

	for _, bad := range []string{"", "   ", "JEPI;DROP", "<script>", "ABCDEFGHIJKLMN"} {
		_, err := NormalizeTicker(bad)
		assert.ErrorIs(t, err, ErrValidationFailed, "input %q", bad)
	}
}

func TestNormalizeCategory(t *testing.T) {
	c, err := NormalizeCategory("cef")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCEF, c)

	c, err = NormalizeCategory("")
	require.NoError(t, err)
	assert.Equal(t, "", c)

	_, err = NormalizeCategory("bond")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateWeights(t *testing.T) {
	w := models.RankingWeights{Yield: 50, Volatility: 30, TotalReturn: 20}
	require.NoError(t, ValidateWeights(&w))
	assert.Equal(t, models.Timeframe12Mo, w.Timeframe)

	// Sums other than 100 are the engine's concern.
	w = models.RankingWeights{Yield: 70, Timeframe: models.Timeframe3Mo}
	assert.NoError(t, ValidateWeights(&w))

	w = models.RankingWeights{Yield: -1}
	assert.ErrorIs(t, ValidateWeights(&w), ErrValidationFailed)

	w = models.RankingWeights{Yield: 101}
	assert.ErrorIs(t, ValidateWeights(&w), ErrValidationFailed)

	w = models.RankingWeights{Yield: 100, Timeframe: "5y"}
	assert.ErrorIs(t, ValidateWeights(&w), ErrValidationFailed)
}

func TestValidateFloatString(t *testing.T) {
	v, err := ValidateFloatString(" 42.5 ", "yield", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)

	v, err = ValidateFloatString("", "yield", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	_, err = ValidateFloatString("abc", "yield", 0, 100)
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = ValidateFloatString("NaN", "yield", 0, 100)
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = ValidateFloatString("150", "yield", 0, 100)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateIntString(t *testing.T) {
	v, err := ValidateIntString("", "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = ValidateIntString("0", "limit", 20, 1, 100)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateDateString(t *testing.T) {
	d, err := ValidateDateString("2024-02-29", "from")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	for _, bad := range []string{"", "2024-02-30", "29-02-2024"} {
		_, err := ValidateDateString(bad, "from")
		assert.ErrorIs(t, err, ErrValidationFailed, "input %q", bad)
	}
}

func TestValidateSearchQuery(t *testing.T) {
	q, err := ValidateSearchQuery("  covered call ")
	require.NoError(t, err)
	assert.Equal(t, "covered call", q)

	_, err = ValidateSearchQuery("<script>alert(1)</script>")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateSearchQuery(" ")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateSearchQuery("a b c d e f g h i")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateSearchQuery("j*e*p*")
	assert.ErrorIs(t, err, ErrValidationFailed)

	q, err = ValidateSearchQuery("JEP*")
	require.NoError(t, err)
	assert.Equal(t, "JEP*", q)
}

func TestHasMarkup(t *testing.T) {
	assert.True(t, HasMarkup(`<img src=x onerror=alert(1)>`))
	assert.True(t, HasMarkup("javascript:void(0)"))
	assert.False(t, HasMarkup("Covered call income on the S&P 500 <25% turnover"))
}

func TestSanitizers(t *testing.T) {
	assert.Equal(t, "Income fund", SanitizeText("<b>Income</b> fund"))
	assert.Equal(t, "'=SUM(A1:A3)", SanitizeForFormulaInjection("=SUM(A1:A3)"))
	assert.Equal(t, "'-1.5", SanitizeForFormulaInjection("-1.5"))
	assert.Equal(t, "JEPI", SanitizeForFormulaInjection("JEPI"))
	assert.Equal(t, "ab", StripUnprintable("a\x00b"))
}
