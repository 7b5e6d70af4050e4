package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
)

const (
	tiingoProvider     = "tiingo"
	tiingoDefaultRPS   = 5
	tiingoDefaultBurst = 5
)

// --- API Response Structs ---

type tiingoPriceBar struct {
	Date        string  `json:"date"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      int64   `json:"volume"`
	AdjClose    float64 `json:"adjClose"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}

type tiingoMetaResponse struct {
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ExchangeCode string `json:"exchangeCode"`
}

// --- Service Implementation ---

// TiingoClient reads end-of-day bars and symbol metadata from Tiingo.
type TiingoClient struct {
	client *providerClient
}

// NewTiingoClient creates a client. An empty API key yields a client whose
// calls fail with ErrProviderNotConfigured.
func NewTiingoClient(cfg ProviderConfig) *TiingoClient {
	c := newProviderClient(tiingoProvider, cfg, tiingoDefaultRPS, tiingoDefaultBurst)
	c.authScheme = "Token"
	return &TiingoClient{client: c}
}

var _ PriceProvider = (*TiingoClient)(nil)

// FetchPrices returns daily bars in [from, to] ordered by date.
func (t *TiingoClient) FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceRecord, error) {
	query := url.Values{}
	query.Set("startDate", from.Format(validation.DateLayout))
	query.Set("endDate", to.Format(validation.DateLayout))

	var bars []tiingoPriceBar
	path := fmt.Sprintf("/tiingo/daily/%s/prices", url.PathEscape(ticker))
	if err := t.client.getJSON(ctx, "prices", path, query, &bars); err != nil {
		return nil, err
	}

	out := make([]models.PriceRecord, 0, len(bars))
	for _, b := range bars {
		if len(b.Date) < 10 {
			continue
		}
		split := b.SplitFactor
		if split == 0 {
			split = 1
		}
		out = append(out, models.PriceRecord{
			Ticker:      ticker,
			Date:        b.Date[:10],
			Open:        b.Open,
			High:        b.High,
			Low:         b.Low,
			Close:       b.Close,
			AdjClose:    b.AdjClose,
			Volume:      b.Volume,
			DivCash:     b.DivCash,
			SplitFactor: split,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// FetchMetadata returns the symbol's name, description and exchange.
func (t *TiingoClient) FetchMetadata(ctx context.Context, ticker string) (*TickerMetadata, error) {
	var meta tiingoMetaResponse
	path := fmt.Sprintf("/tiingo/daily/%s", url.PathEscape(ticker))
	if err := t.client.getJSON(ctx, "meta", path, nil, &meta); err != nil {
		return nil, err
	}
	if validation.HasMarkup(meta.Name) || validation.HasMarkup(meta.Description) {
		logger.FromContext(ctx).Warn("Provider metadata carried markup; sanitized", "ticker", ticker)
	}
	return &TickerMetadata{
		Ticker:      ticker,
		Name:        validation.SanitizeText(meta.Name),
		Description: validation.SanitizeText(meta.Description),
		Exchange:    validation.SanitizeText(meta.ExchangeCode),
	}, nil
}

// DividendsFromPrices extracts dividend records from bars with a non-zero
// divCash. The adjusted amount divides the cash amount by the product of
// split factors of every later bar, so pre-split payments are comparable.
func DividendsFromPrices(ticker string, prices []models.PriceRecord) []models.DividendRecord {
	sorted := make([]models.PriceRecord, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var out []models.DividendRecord
	laterSplits := 1.0
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		if p.DivCash > 0 {
			out = append(out, models.DividendRecord{
				Ticker:         ticker,
				ExDate:         p.Date,
				CashAmount:     p.DivCash,
				AdjustedAmount: models.FloatOf(p.DivCash / laterSplits),
				SplitFactor:    laterSplits,
				Source:         models.SourceTiingo,
			})
		}
		if p.SplitFactor > 0 && p.SplitFactor != 1 {
			laterSplits *= p.SplitFactor
		}
	}
	// Restore chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
