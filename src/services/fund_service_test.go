package services

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

func seedFunds(t *testing.T, store *model.MemStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{
		Ticker: "JEPI", Name: "Curated JEPI", Category: models.CategoryETF, PaymentsPerYear: 12,
		Price: models.FloatOf(50), Dividend: models.FloatOf(0.4),
	}))
	require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{
		Ticker: "GOF", Name: "Guggenheim", Category: models.CategoryCEF, NAVSymbol: "XGOFX",
	}))
	require.NoError(t, store.SaveMetrics(ctx, models.MetricsSnapshot{
		Ticker: "JEPI", LastPrice: models.FloatOf(55), ForwardYield: models.FloatOf(7.5),
	}))
	require.NoError(t, store.UpsertStaticInfo(ctx, "JEPI", "JPMorgan Equity Premium Income", "", "NYSE"))
	require.NoError(t, store.UpsertStaticInfo(ctx, "SCHD", "Schwab Dividend", "", ""))
}

func TestListMergesAndFilters(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedFunds(t, store)
	svc := NewFundService(store, nil, nil)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"GOF", "JEPI", "SCHD"}, fundTickers(all))

	jepi := all[1]
	assert.Equal(t, "JPMorgan Equity Premium Income", jepi.Name)
	assert.Equal(t, 55.0, jepi.Price.Float64)
	assert.Equal(t, 7.5, jepi.ForwardYield.Float64)
	assert.True(t, jepi.HasProviderRecord)

	cefs, err := svc.List(ctx, "cef")
	require.NoError(t, err)
	assert.Equal(t, []string{"GOF"}, fundTickers(cefs))
}

func TestListIsCachedUntilCleared(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedFunds(t, store)
	svc := NewFundService(store, nil, cache.New(time.Hour, time.Hour))

	before, err := svc.List(ctx, "")
	require.NoError(t, err)

	require.NoError(t, store.UpsertManualFund(ctx, models.ManualFund{Ticker: "PDI", Category: models.CategoryCEF}))
	cached, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cached, len(before))

	svc.ClearCache()
	fresh, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, fresh, len(before)+1)
}

func TestGetRefreshesMetrics(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedCEF(t, store)
	metrics := newTestMetrics(t, store, "2024-12-31")
	svc := NewFundService(store, metrics, nil)

	f, err := svc.Get(ctx, "GOF")
	require.NoError(t, err)
	assert.True(t, f.IsCEF())
	assert.InDelta(t, 21.6, f.ForwardYield.Float64, 1e-9)
	assert.Equal(t, "2024-12-15", f.Metrics.LastDividendDate)

	_, err = svc.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownTicker)
}

func TestGetRecomputeInvalidatesList(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedCEF(t, store)
	metrics := newTestMetrics(t, store, "2024-12-31")
	svc := NewFundService(store, metrics, cache.New(time.Hour, time.Hour))

	before, err := svc.List(ctx, models.CategoryCEF)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.False(t, before[0].ForwardYield.Valid)

	_, err = svc.Get(ctx, "GOF")
	require.NoError(t, err)

	after, err := svc.List(ctx, models.CategoryCEF)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.InDelta(t, 21.6, after[0].ForwardYield.Float64, 1e-9)
}

func TestDeleteRemovesHistoryAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedFunds(t, store)
	seedDailyPrices(t, store, "JEPI", "2024-01-01", "2024-01-10", 55)
	svc := NewFundService(store, nil, nil)

	_, err := svc.List(ctx, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "JEPI"))
	funds, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.NotContains(t, fundTickers(funds), "JEPI")

	prices, err := store.ListPrices(ctx, "JEPI", "")
	require.NoError(t, err)
	assert.Empty(t, prices)

	assert.ErrorIs(t, svc.Delete(ctx, "JEPI"), ErrUnknownTicker)
}

func TestHistoryAccessors(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemStore()
	seedFunds(t, store)
	seedDailyPrices(t, store, "JEPI", "2024-01-01", "2024-01-10", 55)
	seedMonthlyDividends(t, store, "JEPI", "2024-01-05", 2, 0.4)
	svc := NewFundService(store, nil, nil)

	prices, err := svc.Prices(ctx, "JEPI", "2024-01-08")
	require.NoError(t, err)
	assert.Len(t, prices, 3)

	divs, err := svc.Dividends(ctx, "JEPI")
	require.NoError(t, err)
	assert.Len(t, divs, 2)

	_, err = svc.Dividends(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownTicker)
}

func fundTickers(funds []models.Fund) []string {
	out := make([]string, 0, len(funds))
	for _, f := range funds {
		out = append(out, f.Ticker)
	}
	return out
}
