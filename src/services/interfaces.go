package services

import (
	"context"
	"errors"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// Define common service errors
var (
	ErrProviderNotConfigured = errors.New("market data provider is not configured")
	ErrProviderResponse      = errors.New("unexpected market data provider response")
	ErrUnknownTicker         = errors.New("unknown ticker")
	ErrNotClosedEnd          = errors.New("fund is not a closed-end fund with a NAV symbol")
)

// TickerMetadata is the descriptive data a provider returns for a symbol.
type TickerMetadata struct {
	Ticker      string
	Name        string
	Description string
	Exchange    string
}

// PriceProvider fetches daily bars and symbol metadata.
type PriceProvider interface {
	FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceRecord, error)
	FetchMetadata(ctx context.Context, ticker string) (*TickerMetadata, error)
}

// DividendProvider fetches a dividend history.
type DividendProvider interface {
	FetchDividends(ctx context.Context, ticker string) ([]models.DividendRecord, error)
}

// ProviderConfig configures one HTTP market data client.
type ProviderConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	// RequestsPerSecond and Burst bound outgoing calls. Zero uses the provider default.
	RequestsPerSecond float64
	Burst             int
}

// IngestionService pulls provider history into the store.
type IngestionService interface {
	// SyncTicker fetches bars and dividends since from and upserts them.
	SyncTicker(ctx context.Context, target SyncTarget, from time.Time) (*SyncResult, error)
	// SyncAll syncs every target with bounded concurrency. A failing ticker
	// is logged and counted; it does not abort the run.
	SyncAll(ctx context.Context, targets []SyncTarget, from time.Time) SyncSummary
	// SeedUniverse creates curated rows for configured funds that have none.
	SeedUniverse(ctx context.Context, funds []models.ManualFund) (int, error)
}

// MetricsService computes and persists metrics snapshots.
type MetricsService interface {
	Compute(ctx context.Context, ticker string) (*models.MetricsSnapshot, error)
	// GetFresh returns the stored snapshot, recomputing it when stale.
	GetFresh(ctx context.Context, ticker string) (*models.MetricsSnapshot, error)
	RecomputeAll(ctx context.Context) (int, error)
	DVI(ctx context.Context, ticker string) (*models.DVIResult, error)
	Returns(ctx context.Context, ticker string) (*models.ReturnsResult, error)
	ZScore(ctx context.Context, ticker string) (*models.ZScoreResult, error)
}

// RankingService ranks merged funds.
type RankingService interface {
	// Rank scores funds of a category (all funds when empty).
	Rank(ctx context.Context, category string, weights models.RankingWeights) (*models.RankingResult, error)
	// PersistDefaultRanks stores each fund's final rank under the category defaults.
	PersistDefaultRanks(ctx context.Context) error
}

// FundService serves the merged fund views.
type FundService interface {
	List(ctx context.Context, category string) ([]models.Fund, error)
	Get(ctx context.Context, ticker string) (*models.Fund, error)
	Delete(ctx context.Context, ticker string) error
	Dividends(ctx context.Context, ticker string) ([]models.DividendRecord, error)
	Prices(ctx context.Context, ticker, from string) ([]models.PriceRecord, error)
	ClearCache()
}

// SyncTarget is one symbol to sync. NAV symbols only need prices.
type SyncTarget struct {
	Ticker     string
	PricesOnly bool
}

// SyncResult reports what one ticker sync wrote.
type SyncResult struct {
	Ticker         string `json:"ticker"`
	Prices         int    `json:"prices"`
	Dividends      int    `json:"dividends"`
	DividendSource string `json:"dividend_source,omitempty"`
}

// SyncSummary reports a SyncAll run.
type SyncSummary struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}
