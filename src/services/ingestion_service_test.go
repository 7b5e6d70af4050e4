package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

func newTestIngestion(store model.Store, prices PriceProvider, divs DividendProvider) *ingestionServiceImpl {
	return NewIngestionService(store, prices, divs, 2).(*ingestionServiceImpl)
}

func TestSyncTickerUsesPriceFeedDividends(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	prices := &fakePriceProvider{
		bars: map[string][]models.PriceRecord{
			"JEPI": {
				{Ticker: "JEPI", Date: "2024-01-02", Close: 55, DivCash: 0.35, SplitFactor: 1},
				{Ticker: "JEPI", Date: "2024-01-03", Close: 56, SplitFactor: 1},
			},
		},
		meta: map[string]*TickerMetadata{"JEPI": {Ticker: "JEPI", Name: "JPMorgan Equity Premium Income", Exchange: "NYSE"}},
	}
	fallback := &fakeDividendProvider{}

	res, err := newTestIngestion(store, prices, fallback).SyncTicker(ctx, SyncTarget{Ticker: "JEPI"}, mustDate(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Prices)
	assert.Equal(t, 1, res.Dividends)
	assert.Equal(t, models.SourceTiingo, res.DividendSource)
	assert.Zero(t, fallback.calls)

	static, err := store.GetStaticFund(ctx, "JEPI")
	require.NoError(t, err)
	assert.Equal(t, "JPMorgan Equity Premium Income", static.Name)

	divs, err := store.ListDividends(ctx, "JEPI")
	require.NoError(t, err)
	require.Len(t, divs, 1)
	assert.Equal(t, 0.35, divs[0].CashAmount)
}

func TestSyncTickerFallsBackForDividends(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	prices := &fakePriceProvider{bars: map[string][]models.PriceRecord{
		"QYLD": {{Ticker: "QYLD", Date: "2024-01-02", Close: 17, SplitFactor: 1}},
	}}
	fallback := &fakeDividendProvider{divs: map[string][]models.DividendRecord{
		"QYLD": {{Ticker: "QYLD", ExDate: "2024-01-22", CashAmount: 0.16, Source: models.SourceAlphaVantage}},
	}}

	res, err := newTestIngestion(store, prices, fallback).SyncTicker(ctx, SyncTarget{Ticker: "QYLD"}, mustDate(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, 1, res.Dividends)
	assert.Equal(t, models.SourceAlphaVantage, res.DividendSource)
}

func TestSyncTickerToleratesUnconfiguredFallbackAndMetadataFailure(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	prices := &fakePriceProvider{
		bars:    map[string][]models.PriceRecord{"NEW": {{Ticker: "NEW", Date: "2024-01-02", Close: 10}}},
		metaErr: ErrProviderResponse,
	}
	fallback := &fakeDividendProvider{err: ErrProviderNotConfigured}

	res, err := newTestIngestion(store, prices, fallback).SyncTicker(ctx, SyncTarget{Ticker: "NEW"}, mustDate(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Zero(t, res.Dividends)
	assert.Empty(t, res.DividendSource)

	_, err = store.GetStaticFund(ctx, "NEW")
	assert.NoError(t, err)
}

func TestSyncTickerPricesOnlySkipsFundRows(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	prices := &fakePriceProvider{bars: map[string][]models.PriceRecord{
		"XGOFX": {{Ticker: "XGOFX", Date: "2024-01-02", Close: 5, DivCash: 0.1}},
	}}

	res, err := newTestIngestion(store, prices, nil).SyncTicker(ctx, SyncTarget{Ticker: "XGOFX", PricesOnly: true}, mustDate(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Prices)
	assert.Zero(t, res.Dividends)

	_, err = store.GetStaticFund(ctx, "XGOFX")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSyncAllCountsFailuresWithoutAborting(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	prices := &fakePriceProvider{
		bars: map[string][]models.PriceRecord{
			"A": {{Ticker: "A", Date: "2024-01-02", Close: 1}},
			"C": {{Ticker: "C", Date: "2024-01-02", Close: 3}},
		},
		failFor: map[string]error{"B": errFor("B")},
	}

	targets := []SyncTarget{{Ticker: "A"}, {Ticker: "B"}, {Ticker: "C"}}
	summary := newTestIngestion(store, prices, nil).SyncAll(ctx, targets, mustDate(t, "2024-01-01"))

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Errors["B"], "boom B")
	assert.ElementsMatch(t, []string{"A", "B", "C"}, prices.requests)
}

func TestSeedUniverseKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{Ticker: "GOF", Name: "Edited", Category: models.CategoryCEF}))

	u, err := config.ParseUniverse([]byte(`
funds:
  - ticker: GOF
    category: CEF
    name: Guggenheim
    nav_symbol: XGOFX
  - ticker: JEPI
    name: JPMorgan
    payments_per_year: 12
`))
	require.NoError(t, err)

	created, err := newTestIngestion(store, &fakePriceProvider{}, nil).SeedUniverse(ctx, ManualFundsFromUniverse(u))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	gof, err := store.GetManualFund(ctx, "GOF")
	require.NoError(t, err)
	assert.Equal(t, "Edited", gof.Name)

	jepi, err := store.GetManualFund(ctx, "JEPI")
	require.NoError(t, err)
	assert.Equal(t, 12, jepi.PaymentsPerYear)

	targets := TargetsFromUniverse(u)
	assert.Equal(t, []SyncTarget{{Ticker: "GOF"}, {Ticker: "JEPI"}, {Ticker: "XGOFX", PricesOnly: true}}, targets)
}
