package processors

import (
	"strings"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// MergeFund builds the served fund from its provider-backed and curated
// rows. Field by field, the etf_static value wins when it is present and
// non-zero; otherwise the etfs value is used. Either row may be nil; the
// boolean is false only when both are.
func MergeFund(static *models.StaticFund, manual *models.ManualFund) (models.Fund, bool) {
	if static == nil && manual == nil {
		return models.Fund{}, false
	}
	if static == nil {
		static = &models.StaticFund{}
	}
	if manual == nil {
		manual = &models.ManualFund{}
	}

	f := models.Fund{
		Ticker:            preferString(static.Ticker, manual.Ticker),
		Name:              preferString(static.Name, manual.Name),
		Issuer:            manual.Issuer,
		Description:       preferString(static.Description, manual.Description),
		Category:          preferString(strings.ToUpper(manual.Category), models.CategoryETF),
		NAVSymbol:         manual.NAVSymbol,
		PaymentsPerYear:   manual.PaymentsPerYear,
		Price:             preferFloat(static.Metrics.LastPrice, manual.Price),
		Dividend:          preferFloat(static.Metrics.LastDividend, manual.Dividend),
		ForwardYield:      static.Metrics.ForwardYield,
		Metrics:           static.Metrics,
		HasProviderRecord: static.Ticker != "",
	}
	f.Metrics.Ticker = f.Ticker

	if !usable(f.ForwardYield) && usable(f.Dividend) && usable(f.Price) && f.Price.Float64 > 0 && f.PaymentsPerYear > 0 {
		f.ForwardYield = models.FloatOf(f.Dividend.Float64 * float64(f.PaymentsPerYear) / f.Price.Float64 * 100)
	}

	f.LastUpdated = manual.UpdatedAt
	if static.UpdatedAt.After(f.LastUpdated) {
		f.LastUpdated = static.UpdatedAt
	}
	return f, true
}

func preferString(primary, fallback string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return fallback
}

func preferFloat(primary, fallback models.NullFloat) models.NullFloat {
	if usable(primary) && primary.Float64 != 0 {
		return primary
	}
	if usable(fallback) {
		return fallback
	}
	return models.NoFloat()
}
