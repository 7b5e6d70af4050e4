package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
)

const (
	alphaVantageProvider = "alphavantage"
	// The free tier allows 5 calls per minute.
	alphaVantageDefaultRPS   = 5.0 / 60.0
	alphaVantageDefaultBurst = 1
)

type alphaVantageDividendsResponse struct {
	Symbol string `json:"symbol"`
	Data   []struct {
		ExDividendDate string `json:"ex_dividend_date"`
		PaymentDate    string `json:"payment_date"`
		Amount         string `json:"amount"`
	} `json:"data"`
	// Throttling and key errors come back as 200 with one of these set.
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// AlphaVantageClient reads dividend history from Alpha Vantage. It is the
// fallback when Tiingo reports no dividends for a ticker.
type AlphaVantageClient struct {
	client *providerClient
}

// NewAlphaVantageClient creates a client. An empty API key yields a client
// whose calls fail with ErrProviderNotConfigured.
func NewAlphaVantageClient(cfg ProviderConfig) *AlphaVantageClient {
	return &AlphaVantageClient{client: newProviderClient(alphaVantageProvider, cfg, alphaVantageDefaultRPS, alphaVantageDefaultBurst)}
}

var _ DividendProvider = (*AlphaVantageClient)(nil)

// FetchDividends returns the DIVIDENDS history ordered by ex-date. Rows with
// an unparsable amount or date are dropped.
func (a *AlphaVantageClient) FetchDividends(ctx context.Context, ticker string) ([]models.DividendRecord, error) {
	query := url.Values{}
	query.Set("function", "DIVIDENDS")
	query.Set("symbol", ticker)
	query.Set("apikey", a.client.apiKey)

	var resp alphaVantageDividendsResponse
	if err := a.client.getJSON(ctx, "dividends", "/query", query, &resp); err != nil {
		return nil, err
	}
	if msg := firstNonEmpty(resp.ErrorMessage, resp.Note, resp.Information); msg != "" {
		return nil, fmt.Errorf("%s dividends: %w: %s", alphaVantageProvider, ErrProviderResponse, msg)
	}

	out := make([]models.DividendRecord, 0, len(resp.Data))
	for _, d := range resp.Data {
		if _, err := validation.ValidateDateString(d.ExDividendDate, "ex_dividend_date"); err != nil {
			continue
		}
		// Rejects "None", NaN and infinities as well as non-positive amounts.
		amount, err := validation.ValidateFloatString(d.Amount, "amount", 0, math.MaxFloat64)
		if err != nil || amount <= 0 {
			continue
		}
		payDate := d.PaymentDate
		if _, err := validation.ValidateDateString(payDate, "payment_date"); err != nil {
			payDate = ""
		}
		out = append(out, models.DividendRecord{
			Ticker:      ticker,
			ExDate:      d.ExDividendDate,
			PayDate:     payDate,
			CashAmount:  amount,
			SplitFactor: 1,
			Source:      models.SourceAlphaVantage,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExDate < out[j].ExDate })
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
